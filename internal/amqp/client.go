// Package amqp publishes dashboard selection changes to a RabbitMQ topic
// exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"revdash/internal/dashboard"
	"revdash/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxAttempts    = 3
)

// Channel is the part of *amqp091.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Dialer opens a channel and the connection that owns it.
type Dialer func(url string) (Channel, io.Closer, error)

func dialAMQP(url string) (Channel, io.Closer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn, nil
}

// Config configures a Publisher.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	Buffer     int
	Dial       Dialer
}

// Stats counts publisher outcomes.
type Stats struct {
	Published uint64
	Dropped   uint64
	Failed    uint64
	Pending   int
}

// Publisher forwards selection changes from the dashboard to an exchange.
// Enqueueing never blocks; a full buffer drops the message.
type Publisher struct {
	url        string
	exchange   string
	routingKey string
	dial       Dialer
	backoff    func(attempt int) time.Duration
	logger     *log.Logger

	queue chan *SelectionChangedMessage

	connMu  sync.Mutex
	channel Channel
	conn    io.Closer

	// Circuit breaker
	state        int32
	failureCount int64
	breakerMu    sync.Mutex
	lastFailure  time.Time

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewPublisher creates a publisher. No connection is made until Connect or
// the first publish.
func NewPublisher(cfg Config, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	if cfg.Dial == nil {
		cfg.Dial = dialAMQP
	}
	return &Publisher{
		url:        cfg.URL,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		dial:       cfg.Dial,
		backoff:    exponentialBackoff,
		logger:     logger.WithComponent(log.ComponentAMQP),
		queue:      make(chan *SelectionChangedMessage, cfg.Buffer),
	}
}

// Connect dials the broker and declares the exchange.
func (p *Publisher) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.connMu.Lock()
	defer p.connMu.Unlock()
	return p.connectLocked()
}

func (p *Publisher) connectLocked() error {
	if p.channel != nil {
		return nil
	}
	ch, conn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		if conn != nil {
			conn.Close()
		}
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.channel, p.conn = ch, conn
	p.logger.Info("Connected to AMQP broker", "exchange", p.exchange, "routing_key", p.routingKey)
	return nil
}

// resetLocked drops the current connection so the next publish redials.
func (p *Publisher) resetLocked() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.channel, p.conn = nil, nil
}

// Listener returns a dashboard listener that enqueues every change.
func (p *Publisher) Listener() dashboard.Listener {
	return func(ctx context.Context, c dashboard.Change) {
		p.Enqueue(ctx, NewSelectionChangedMessage(c))
	}
}

// Enqueue queues msg for publishing and reports whether it was accepted.
func (p *Publisher) Enqueue(ctx context.Context, msg *SelectionChangedMessage) bool {
	select {
	case p.queue <- msg:
		return true
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "AMQP buffer full, dropping selection change",
			log.FieldVersion, msg.Version,
			log.FieldSelection, msg.ActiveLabel)
		return false
	}
}

// Publish sends one message, reconnecting when needed.
func (p *Publisher) Publish(ctx context.Context, msg *SelectionChangedMessage) error {
	if p.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, refusing to publish")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.connMu.Lock()
	defer p.connMu.Unlock()

	if err := p.connectLocked(); err != nil {
		p.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		p.recordFailure()
		if isConnectionError(err) {
			p.resetLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	p.recordSuccess()
	p.published.Add(1)
	p.logger.DebugContext(ctx, "Published selection change",
		"id", msg.ID,
		log.FieldVersion, msg.Version,
		log.FieldSelection, msg.ActiveLabel,
		"exchange", p.exchange)
	return nil
}

// Run drains the queue until ctx is done. Each message is retried with
// backoff before being dropped.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("Selection publisher started", "exchange", p.exchange)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Selection publisher stopping", "pending", len(p.queue))
			return nil
		case msg := <-p.queue:
			p.deliver(ctx, msg)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, msg *SelectionChangedMessage) {
	var err error
retry:
	for attempt := 0; ; attempt++ {
		if err = p.Publish(ctx, msg); err == nil {
			return
		}
		if attempt+1 >= maxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break retry
		case <-time.After(p.backoff(attempt)):
		}
	}
	p.failed.Add(1)
	p.logger.Error("Failed to publish selection change",
		log.FieldOperation, log.OpPublish,
		log.FieldError, err,
		"id", msg.ID,
		log.FieldVersion, msg.Version)
}

// Stats returns publisher counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
		Pending:   len(p.queue),
	}
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	var err error
	if p.channel != nil {
		err = p.channel.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	p.channel, p.conn = nil, nil
	return err
}

func (p *Publisher) isCircuitOpen() bool {
	switch atomic.LoadInt32(&p.state) {
	case StateOpen:
		p.breakerMu.Lock()
		last := p.lastFailure
		p.breakerMu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.CompareAndSwapInt32(&p.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (p *Publisher) recordSuccess() {
	atomic.StoreInt64(&p.failureCount, 0)
	atomic.StoreInt32(&p.state, StateClosed)
}

func (p *Publisher) recordFailure() {
	p.breakerMu.Lock()
	p.lastFailure = time.Now()
	p.breakerMu.Unlock()

	failures := atomic.AddInt64(&p.failureCount, 1)
	if failures >= maxFailures || atomic.LoadInt32(&p.state) == StateHalfOpen {
		if atomic.SwapInt32(&p.state, StateOpen) != StateOpen {
			p.logger.Warn("AMQP circuit breaker opened", "failures", failures)
		}
	}
}

// exponentialBackoff doubles from one second and caps at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 4 {
		return 30 * time.Second
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
