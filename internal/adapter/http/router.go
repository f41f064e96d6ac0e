package http

import (
	"net/http"
	"time"

	mw "rahnu-backend/internal/adapter/middleware"
	"rahnu-backend/internal/domain/access"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Routes struct {
	JWTSecret      []byte
	Redis          *redis.Client // nil disables idempotency
	IdempotencyTTL time.Duration
	Log            zerolog.Logger
	Metrics        http.Handler // nil: no /metrics

	Health     *Handler
	Loans      *LoanHandler
	Audit      *AuditHandler
	Vault      *VaultHandler
	Prices     *PriceHandler
	Valuations *ValuationHandler
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	g := e.Group("", mw.RequireAuth(r.JWTSecret))
	if r.Redis != nil {
		g.Use(mw.Idempotency(r.Redis, r.IdempotencyTTL, r.Log))
	}

	pawnStaff := mw.RequireStaff(access.Staff, access.ScopePawn)
	pawnManager := mw.RequireStaff(access.ManagerOrAbove, access.ScopePawn)
	anyStaff := mw.RequireStaff(access.Staff, access.ScopePawn, access.ScopeGoldSavings)
	anyManager := mw.RequireStaff(access.ManagerOrAbove, access.ScopePawn, access.ScopeGoldSavings)

	g.POST("/loans", r.Loans.CreateLoan, pawnStaff)
	g.GET("/loans/:loan_id", r.Loans.GetLoan, pawnStaff)
	g.GET("/loans/:loan_id/audit", r.Audit.ListForLoan, pawnManager)

	g.POST("/loans/:loan_id/vault-in", r.Vault.VaultIn, pawnStaff)
	g.POST("/loans/:loan_id/vault-out", r.Vault.VaultOut, pawnStaff)
	g.GET("/loans/:loan_id/vault", r.Vault.GetItem, pawnStaff)
	g.GET("/vault/items", r.Vault.ListItems, pawnManager)

	g.GET("/gold-prices", r.Prices.List, anyStaff)
	g.GET("/gold-prices/:purity", r.Prices.Get, anyStaff)
	g.PUT("/gold-prices/:purity", r.Prices.Set, anyManager)

	g.POST("/valuations", r.Valuations.Quote, pawnStaff)
}
