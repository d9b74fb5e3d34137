package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary     Primary        `koanf:"primary"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Kafka       KafkaConfig    `koanf:"kafka"`
	Worker      WorkerConfig   `koanf:"worker"`
	UserService BreakerConfig  `koanf:"user_service"`
	BidService  BreakerConfig  `koanf:"bid_service"`
	Logger      LoggerConfig   `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	MetricsPort string `koanf:"metrics_port" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers" validate:"required"`
	GroupID string   `koanf:"group_id" validate:"required"`
}

type WorkerConfig struct {
	Interval time.Duration `koanf:"interval" validate:"required"`
	PageSize int           `koanf:"page_size" validate:"required"`
}

// BreakerConfig tunes one remote capability's circuit breaker and the
// deadline of each bridge call made through it.
type BreakerConfig struct {
	FailureRateThreshold      float64       `koanf:"failure_rate_threshold" validate:"required"`
	WaitDurationInOpenState   time.Duration `koanf:"wait_duration_in_open_state" validate:"required"`
	SlidingWindowSize         int           `koanf:"sliding_window_size" validate:"required"`
	MinimumNumberOfCalls      uint32        `koanf:"minimum_number_of_calls" validate:"required"`
	PermittedCallsInHalfOpen  uint32        `koanf:"permitted_calls_in_half_open" validate:"required"`
	SlowCallRateThreshold     float64       `koanf:"slow_call_rate_threshold" validate:"required"`
	SlowCallDurationThreshold time.Duration `koanf:"slow_call_duration_threshold" validate:"required"`
	CallTimeout               time.Duration `koanf:"call_timeout" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

func (l LoggerConfig) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// defaults mirror the settings the services shipped with: a 60s closing job
// over pages of 100, a 60%/60s/20/10 breaker with a 3s call deadline for the
// user service and a 70%/45s/15/8 breaker with a 5s deadline for the bid
// service.
var defaults = map[string]interface{}{
	"primary.env":         "development",
	"server.metrics_port": "9100",
	"logger.level":        "info",

	"kafka.group_id": "lot-service",

	"worker.interval":  "60s",
	"worker.page_size": 100,

	"user_service.failure_rate_threshold":       60,
	"user_service.wait_duration_in_open_state":  "60s",
	"user_service.sliding_window_size":          20,
	"user_service.minimum_number_of_calls":      10,
	"user_service.permitted_calls_in_half_open": 3,
	"user_service.slow_call_rate_threshold":     50,
	"user_service.slow_call_duration_threshold": "5s",
	"user_service.call_timeout":                 "3s",

	"bid_service.failure_rate_threshold":       70,
	"bid_service.wait_duration_in_open_state":  "45s",
	"bid_service.sliding_window_size":          15,
	"bid_service.minimum_number_of_calls":      8,
	"bid_service.permitted_calls_in_half_open": 3,
	"bid_service.slow_call_rate_threshold":     50,
	"bid_service.slow_call_duration_threshold": "5s",
	"bid_service.call_timeout":                 "5s",
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider("LOTSVC_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "LOTSVC_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
