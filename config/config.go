package config

import (
	"fmt"
	"time"

	"github.com/wasselni/ridehail/pkg/configparser"
)

// Config contains all configuration variables of the application.
type (
	Config struct {
		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		RabbitMQ  RabbitMQConfig
		WebSocket WebSocketConfig
		Dispatch  DispatchConfig
		Pricing   PricingConfig
		Locations LocationsConfig
		Auth      AuthConfig
		Log       LogConfig
	}

	ServerConfig struct {
		Host string `env:"SERVER_HOST" default:"0.0.0.0"`
		Port string `env:"SERVER_PORT" default:"3000"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"ridehail_user"`
		Password string `env:"DATABASE_PASSWORD" default:"ridehail_pass"`
		Database string `env:"DATABASE_DATABASE" default:"ridehail_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RedisConfig struct {
		Host     string `env:"REDIS_HOST" default:"localhost"`
		Port     string `env:"REDIS_PORT" default:"6379"`
		Password string `env:"REDIS_PASSWORD" default:""`
		DB       int    `env:"REDIS_DB" default:"0"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	WebSocketConfig struct {
		// StaleAfter is how long a silent connection stays registered.
		StaleAfter time.Duration `env:"WEBSOCKET_STALE_AFTER" default:"5m"`
		// SweepEvery is the staleness sweep interval.
		SweepEvery time.Duration `env:"WEBSOCKET_SWEEP_EVERY" default:"1m"`
	}

	DispatchConfig struct {
		SearchRadiusKm float64       `env:"DISPATCH_SEARCH_RADIUS_KM" default:"5"`
		OfferTTL       time.Duration `env:"DISPATCH_OFFER_TTL" default:"2m"`
		ExpireEvery    time.Duration `env:"DISPATCH_EXPIRE_EVERY" default:"30s"`
	}

	PricingConfig struct {
		BaseFare       float64 `env:"PRICING_BASE_FARE" default:"0.50"`
		PerKm          float64 `env:"PRICING_PER_KM" default:"0.28"`
		PerMinute      float64 `env:"PRICING_PER_MINUTE" default:"0.05"`
		MinimumFare    float64 `env:"PRICING_MINIMUM_FARE" default:"1.10"`
		PeakMultiplier float64 `env:"PRICING_PEAK_MULTIPLIER" default:"1.20"`
	}

	AuthConfig struct {
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"24h"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	LocationsConfig struct {
		// Retention is how long driver position history is kept.
		Retention  time.Duration `env:"LOCATIONS_RETENTION" default:"24h"`
		PurgeEvery time.Duration `env:"LOCATIONS_PURGE_EVERY" default:"10m"`
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" default:"info"`
	}
)

// PoolLimits returns the pgx pool sizing knobs.
func (c DatabaseConfig) PoolLimits() (int32, int32, time.Duration, time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func New(filepath string) (*Config, error) {
	cfg := &Config{}

	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}
