package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"revdash/internal/amqp"
	"revdash/internal/cli"
	"revdash/internal/config"
	"revdash/internal/core"
	"revdash/internal/dashboard"
	apphttp "revdash/internal/http"
	"revdash/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboard over HTTP",
	Long: `Serve the dashboard page, its charts and the JSON API.

Configuration is read from the environment and an optional .env file.
When AMQP_URL is set every selection change is also published to
AMQP_EXCHANGE with routing key AMQP_ROUTING_KEY.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := cli.SetupLogger(cfg, os.Stdout)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, logger)
	},
}

func runServe(parent context.Context, cfg *config.Config, logger *log.Logger) error {
	dash := dashboard.New(core.SampleDataset())

	selectionLog := log.NewStructuredLogger(logger.WithComponent(log.ComponentDashboard))
	dash.Subscribe(func(ctx context.Context, c dashboard.Change) {
		op := log.OpSelect
		if c.Current.IsNone() {
			op = log.OpClear
		}
		selectionLog.LogSelectionChanged(ctx, op, c.Event.Name(), c.Previous.Label(), c.Current.Label(),
			c.Snapshot.Version, c.Snapshot.Summary.FocusedRevenue.String(), c.Snapshot.Summary.FocusRatioPercent)
	})

	ctx, stop := cli.SignalContext(parent)
	defer stop()

	var (
		opts      []apphttp.Option
		publisher *amqp.Publisher
	)
	if cfg.AMQPEnabled() {
		publisher = amqp.NewPublisher(amqp.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
			Buffer:     cfg.AMQPBuffer,
		}, logger)
		if err := publisher.Connect(ctx); err != nil {
			// The publisher reconnects on the first delivery.
			logger.Warn("AMQP broker unavailable at startup", log.FieldError, err)
		}
		dash.Subscribe(publisher.Listener())
		opts = append(opts, apphttp.WithAMQPStats(publisher.Stats))
	}

	srv, err := apphttp.NewServer(cfg, dash, logger, opts...)
	if err != nil {
		return err
	}

	logger.Info("Starting revdash",
		log.FieldOperation, log.OpStartup,
		"addr", cfg.Addr(),
		"categories", dash.Categories().Len(),
		"amqp", cfg.AMQPEnabled())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	if publisher != nil {
		g.Go(func() error { return publisher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		return cli.Shutdown(logger, cfg.ShutdownTimeout, func(sctx context.Context) error {
			err := srv.Shutdown(sctx)
			if publisher != nil {
				err = errors.Join(err, publisher.Close())
			}
			return err
		})
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
