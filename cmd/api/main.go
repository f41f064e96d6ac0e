package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpadp "rahnu-backend/internal/adapter/http"
	"rahnu-backend/internal/adapter/repository/mysql"
	"rahnu-backend/internal/adapter/repository/rediscache"
	"rahnu-backend/internal/config"
	"rahnu-backend/internal/infrastructure/cache"
	"rahnu-backend/internal/infrastructure/db"
	"rahnu-backend/internal/infrastructure/logger"
	"rahnu-backend/internal/metrics"
	priceuc "rahnu-backend/internal/usecase/goldprice"
	loanuc "rahnu-backend/internal/usecase/loan"
	"rahnu-backend/internal/usecase/valuation"
	vaultuc "rahnu-backend/internal/usecase/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), db.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("open mysql")
	}
	if cfg.AutoMigrate {
		if err := mysql.AutoMigrate(gdb); err != nil {
			log.Fatal().Err(err).Msg("auto-migrate")
		}
		log.Info().Msg("schema migrated")
	}

	rdb, err := cache.OpenRedis(context.Background(), cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("open redis")
	}
	defer rdb.Close()

	lo, hi, err := cfg.MarginRange()
	if err != nil {
		log.Fatal().Err(err).Msg("margin range")
	}
	calc := valuation.NewCalculator(valuation.MarginRange{Min: lo, Max: hi})

	tx := mysql.NewGormUoW(gdb)
	priceCache := rediscache.NewGoldPriceLookup(rdb, mysql.NewGoldPriceRepository(gdb), cfg.PriceCacheTTL, log)
	appraiser := valuation.NewAppraiser(priceCache, calc)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	vaultMetrics := metrics.NewVault(reg)

	loans := httpadp.NewLoanHandler(loanuc.NewUsecase(tx, appraiser, log, loanuc.WithTimeout(cfg.StorageTimeout)))
	vaults := vaultuc.NewUsecase(tx,
		vaultuc.WithLogger(log),
		vaultuc.WithMetrics(vaultMetrics),
		vaultuc.WithTimeout(cfg.StorageTimeout),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(requestLogger(log), middleware.Recover())

	httpadp.Register(e, httpadp.Routes{
		JWTSecret:      []byte(cfg.JWTSecret),
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Log:            log,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:         httpadp.NewHandler(),
		Loans:          loans,
		Audit:          httpadp.NewAuditHandler(loans, mysql.NewAuditRepository(gdb)),
		Vault:          httpadp.NewVaultHandler(vaults, loans),
		Prices:         httpadp.NewPriceHandler(priceuc.NewUsecase(tx, priceCache, priceCache, log)),
		Valuations:     httpadp.NewValuationHandler(appraiser),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", c.Request().Header.Get("Ax-Request-Id")).
				Msg("request")
			return nil
		},
	})
}
