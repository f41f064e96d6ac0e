package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AppPort != "8080" || c.MySQLPort != "3306" || c.IdempTTLSecs != 300 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.StorageTimeout != 5*time.Second || c.PriceCacheTTL != time.Minute {
		t.Fatalf("durations: storage=%v cache=%v", c.StorageTimeout, c.PriceCacheTTL)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate defaults: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("STORAGE_TIMEOUT", "750ms")
	t.Setenv("MARGIN_MIN_PERCENT", "50")
	t.Setenv("MARGIN_MAX_PERCENT", "80")
	t.Setenv("JWT_SECRET", "x")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AppPort != "9090" || c.RedisDB != 3 || c.IdempotencyTTL() != time.Minute {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.StorageTimeout != 750*time.Millisecond {
		t.Fatalf("storage timeout = %v", c.StorageTimeout)
	}
	lo, hi, err := c.MarginRange()
	if err != nil || lo.String() != "50" || hi.String() != "80" {
		t.Fatalf("margin range = %s..%s err=%v", lo, hi, err)
	}
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppPort: "8080", MySQLHost: "h", MySQLPort: "3306", MySQLDB: "d", MySQLUser: "u",
			JWTSecret: "s", StorageTimeout: time.Second, MarginMin: "0", MarginMax: "100",
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing host", func(c *Config) { c.MySQLHost = "" }, "missing MySQL"},
		{"bad port", func(c *Config) { c.MySQLPort = "notaport" }, "invalid MYSQL_PORT"},
		{"missing app port", func(c *Config) { c.AppPort = "" }, "APP_PORT"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"zero timeout", func(c *Config) { c.StorageTimeout = 0 }, "STORAGE_TIMEOUT"},
		{"margin not number", func(c *Config) { c.MarginMax = "lots" }, "MARGIN_MAX_PERCENT"},
		{"margin above 100", func(c *Config) { c.MarginMax = "120" }, "invalid margin range"},
		{"margin inverted", func(c *Config) { c.MarginMin = "80"; c.MarginMax = "70" }, "invalid margin range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3307", MySQLDB: "rahnu"}
	dsn := c.MySQLDSN()
	if !strings.HasPrefix(dsn, "u:p@tcp(db:3307)/rahnu?") || !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn = %s", dsn)
	}
}

func TestMarginRange_Unparsable(t *testing.T) {
	c := &Config{MarginMin: "abc", MarginMax: "80"}
	if _, _, err := c.MarginRange(); err == nil || !strings.Contains(err.Error(), "MARGIN_MIN_PERCENT") {
		t.Fatalf("err = %v, want MARGIN_MIN_PERCENT error", err)
	}
	c = &Config{MarginMin: "0", MarginMax: ""}
	if _, _, err := c.MarginRange(); err == nil || !strings.Contains(err.Error(), "MARGIN_MAX_PERCENT") {
		t.Fatalf("err = %v, want MARGIN_MAX_PERCENT error", err)
	}
}
