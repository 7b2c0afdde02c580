package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Settle"`
		Port     int    `envconfig:"PORT" default:"8080"`
		Locale   string `envconfig:"APP_LOCALE" default:"es-MX"`
		Operator string `envconfig:"OPERATOR_NAME" default:"operator"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"settle"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Auth struct {
		Secret   string        `envconfig:"AUTH_SECRET"`
		TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"12h"`
	}

	Ledger struct {
		URL     string        `envconfig:"LEDGER_URL" default:"http://localhost:8080/api/v1"`
		Token   string        `envconfig:"LEDGER_TOKEN"`
		Timeout time.Duration `envconfig:"LEDGER_TIMEOUT" default:"15s"`
		// Restricts the console to one resident account when set.
		OwnerID string `envconfig:"LEDGER_OWNER_ID"`
	}

	Receipts struct {
		Dir string `envconfig:"RECEIPTS_DIR" default:"./receipts"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
