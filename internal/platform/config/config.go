// Package config loads runtime configuration from the environment. A .env
// file in the working directory is read first when present; variables
// already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/srgjo27/tiered_ticket/internal/platform/database"
)

type Config struct {
	Env  string `env:"APP_ENV"  envDefault:"dev"`
	Port string `env:"APP_PORT" envDefault:"8080"`

	Tier                               string `env:"LEDGER_TIER"                            envDefault:"base"`
	RequireOrganizerSignatureOnCheckIn bool   `env:"REQUIRE_ORGANIZER_SIGNATURE_ON_CHECKIN" envDefault:"true"`
	AirdropEnabled                     bool   `env:"AIRDROP_ENABLED"                        envDefault:"false"`
	AirdropMax                         uint64 `env:"AIRDROP_MAX"                            envDefault:"1000000000"`

	JWTSecret string `env:"JWT_SECRET"`

	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER"   envDefault:"postgres"`
	Host     string `env:"DB_HOST"     envDefault:"localhost"`
	Port     string `env:"DB_PORT"     envDefault:"5432"`
	User     string `env:"DB_USER"     envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"     envDefault:"tiered_ticket"`
	SSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`
	Path     string `env:"DB_PATH"     envDefault:"tiered_ticket.db"`
}

func (c DBConfig) Postgres() database.Config {
	return database.Config{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		DBName:   c.Name,
		SSLMode:  c.SSLMode,
	}
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

func (c RedisConfig) Client() database.RedisConfig {
	return database.RedisConfig{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

type RabbitMQConfig struct {
	URL string `env:"RABBITMQ_URL"`
}

// Load reads the optional .env file and parses the environment into a
// Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Env == "prod" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in prod")
	}
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	return nil
}
