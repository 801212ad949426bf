package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"
)

type Config struct {
	// HTTP Server
	AppEnv          string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	Port            string        `envconfig:"PORT" default:"8081" validate:"required"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Selection endpoint rate limit, requests per minute per client IP
	SelectionRateLimit int `envconfig:"SELECTION_RATE_LIMIT" default:"120" validate:"min=1,max=10000"`

	// Chart rendering
	ChartCacheSize int           `envconfig:"CHART_CACHE_SIZE" default:"64" validate:"min=1,max=4096"`
	ChartCacheTTL  time.Duration `envconfig:"CHART_CACHE_TTL" default:"10m"`
	ChartWidth     int           `envconfig:"CHART_WIDTH" default:"640" validate:"min=200,max=4000"`
	ChartHeight    int           `envconfig:"CHART_HEIGHT" default:"320" validate:"min=120,max=4000"`

	// Display formatting
	CurrencySymbol string `envconfig:"CURRENCY_SYMBOL" default:"$" validate:"max=8"`
	Locale         string `envconfig:"LOCALE" default:"en-US" validate:"required"`

	// AMQP selection notifications (disabled when URL is empty)
	AMQPURL        string `envconfig:"AMQP_URL"`
	AMQPExchange   string `envconfig:"AMQP_EXCHANGE" default:"revdash"`
	AMQPRoutingKey string `envconfig:"AMQP_ROUTING_KEY" default:"selection.changed"`
	AMQPBuffer     int    `envconfig:"AMQP_BUFFER" default:"64" validate:"min=1,max=100000"`
}

var validate = validator.New()

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// .env is optional; production images set real env vars
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// AMQPEnabled reports whether selection notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("invalid %s %v: failed '%s' constraint", fe.Field(), fe.Value(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"read timeout", c.ReadTimeout},
		{"write timeout", c.WriteTimeout},
		{"idle timeout", c.IdleTimeout},
		{"shutdown timeout", c.ShutdownTimeout},
		{"chart cache ttl", c.ChartCacheTTL},
	}
	for _, d := range durations {
		if d.d < time.Second {
			errs = append(errs, fmt.Sprintf("invalid %s %v: must be at least 1 second", d.name, d.d))
		}
	}

	// Validate AMQP settings if notifications are enabled
	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errs = append(errs, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
