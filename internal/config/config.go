// Package config loads the pipeline's configuration from environment
// variables, with .env autoloading for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary    Primary          `koanf:"primary"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Partner    PartnerConfig    `koanf:"partner"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Reconciler ReconcilerConfig `koanf:"reconciler"`
	Logger     LoggerConfig     `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"required"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password" validate:"required"`
	Name     string `koanf:"name" validate:"required"`
	SSLMode  string `koanf:"ssl_mode" validate:"required"`
}

// PartnerConfig carries the delivery partner's endpoint and the developer
// credentials used to sign requests.
type PartnerConfig struct {
	BaseURL       string        `koanf:"base_url" validate:"required"`
	DeveloperID   string        `koanf:"developer_id" validate:"required"`
	KeyID         string        `koanf:"key_id" validate:"required"`
	SigningSecret string        `koanf:"signing_secret" validate:"required"`
	Timeout       time.Duration `koanf:"timeout" validate:"required"`
}

// SchedulerConfig tunes the dispatch timing window.
type SchedulerConfig struct {
	Buffer       time.Duration `koanf:"buffer" validate:"required"`
	RestoreLimit int           `koanf:"restore_limit"`
}

// ReconcilerConfig tunes the periodic reconciliation sweep.
type ReconcilerConfig struct {
	Interval     time.Duration `koanf:"interval" validate:"required"`
	InitialDelay time.Duration `koanf:"initial_delay" validate:"required"`
	BatchLimit   int           `koanf:"batch_limit"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// LoadConfig reads DISPATCH_-prefixed environment variables into a validated
// Config. Double underscores separate nesting levels, so
// DISPATCH_PARTNER__BASE_URL maps to partner.base_url.
func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("DISPATCH_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "DISPATCH_")),
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
