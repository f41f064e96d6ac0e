package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	MySQLHost   string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort   string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB     string `env:"MYSQL_DB" envDefault:"rahnu"`
	MySQLUser   string `env:"MYSQL_USER" envDefault:"rahnu"`
	MySQLPass   string `env:"MYSQL_PASS" envDefault:"rahnu"`
	DBLogLevel  string `env:"DB_LOG_LEVEL" envDefault:"warn"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	IdempTTLSecs  int           `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`
	PriceCacheTTL time.Duration `env:"PRICE_CACHE_TTL" envDefault:"60s"`

	// Budget for one custody operation including its transaction.
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`

	// Loan-to-value range in percent: MarginMin exclusive, MarginMax inclusive.
	MarginMin string `env:"MARGIN_MIN_PERCENT" envDefault:"0"`
	MarginMax string `env:"MARGIN_MAX_PERCENT" envDefault:"100"`

	JWTSecret string `env:"JWT_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.StorageTimeout <= 0 {
		return errors.New("STORAGE_TIMEOUT must be positive")
	}
	lo, hi, err := c.MarginRange()
	if err != nil {
		return err
	}
	if lo.IsNegative() || hi.GreaterThan(decimal.NewFromInt(100)) || !lo.LessThan(hi) {
		return fmt.Errorf("invalid margin range (%s, %s]", lo, hi)
	}
	return nil
}

func (c *Config) MarginRange() (decimal.Decimal, decimal.Decimal, error) {
	lo, err := decimal.NewFromString(c.MarginMin)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid MARGIN_MIN_PERCENT %q: %w", c.MarginMin, err)
	}
	hi, err := decimal.NewFromString(c.MarginMax)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid MARGIN_MAX_PERCENT %q: %w", c.MarginMax, err)
	}
	return lo, hi, nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
