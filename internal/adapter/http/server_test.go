package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	mw "rahnu-backend/internal/adapter/middleware"
	"rahnu-backend/internal/adapter/repository/mysql"
	"rahnu-backend/internal/domain/access"
	"rahnu-backend/internal/testutil/testdb"
	priceuc "rahnu-backend/internal/usecase/goldprice"
	loanuc "rahnu-backend/internal/usecase/loan"
	"rahnu-backend/internal/usecase/valuation"
	vaultuc "rahnu-backend/internal/usecase/vault"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testSecret = []byte("handler-test-secret")

type server struct {
	t      *testing.T
	e      *echo.Echo
	db     *gorm.DB
	prices *priceuc.Usecase
}

// newServer wires the real usecases over sqlite, without idempotency.
func newServer(t *testing.T) *server {
	t.Helper()
	db := testdb.Open(t)
	tx := mysql.NewGormUoW(db)
	priceRepo := mysql.NewGoldPriceRepository(db)
	appraiser := valuation.NewAppraiser(priceRepo, valuation.NewCalculator(valuation.DefaultMarginRange()))

	loans := NewLoanHandler(loanuc.NewUsecase(tx, appraiser, zerolog.Nop()))
	prices := priceuc.NewUsecase(tx, priceRepo, nil, zerolog.Nop())

	e := echo.New()
	e.Validator = NewValidator()
	Register(e, Routes{
		JWTSecret:  testSecret,
		Log:        zerolog.Nop(),
		Health:     NewHandler(),
		Loans:      loans,
		Audit:      NewAuditHandler(loans, mysql.NewAuditRepository(db)),
		Vault:      NewVaultHandler(vaultuc.NewUsecase(tx), loans),
		Prices:     NewPriceHandler(prices),
		Valuations: NewValuationHandler(appraiser),
	})
	return &server{t: t, e: e, db: db, prices: prices}
}

func (s *server) seedPrice(purity, buy string) {
	s.t.Helper()
	_, err := s.prices.SetQuote(context.Background(), priceuc.SetQuoteInput{
		Purity:    purity,
		BuyPrice:  decimal.RequireFromString(buy),
		SellPrice: decimal.RequireFromString(buy).Add(decimal.NewFromInt(15)),
		ActorID:   "seed",
	})
	if err != nil {
		s.t.Fatalf("seed price: %v", err)
	}
}

type who struct {
	id     string
	role   access.Role
	branch string
	scopes []string
}

var (
	tellerKL  = who{"EMP-T1", access.RoleTeller, "KL01", []string{"pawn"}}
	tellerPG  = who{"EMP-T2", access.RoleTeller, "PG01", []string{"pawn"}}
	managerKL = who{"EMP-M1", access.RoleManager, "KL01", []string{"pawn", "gold_savings"}}
	savingsKL = who{"EMP-S1", access.RoleTeller, "KL01", []string{"gold_savings"}}
	admin     = who{"EMP-A1", access.RoleAdmin, "", []string{"pawn", "gold_savings"}}
)

func token(t *testing.T, w who) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mw.StaffClaims{
		Role:   string(w.role),
		Scopes: w.scopes,
		Branch: w.branch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   w.id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (s *server) do(as who, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case rawJSON:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as.id != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(s.t, as))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// rawJSON is sent as-is, for malformed bodies.
type rawJSON string

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	expectStatus(t, rec, status)
	if got := decode[ErrorResponse](t, rec).Error; got != msg {
		t.Fatalf("error = %q, want %q", got, msg)
	}
}

const customerID = "cccccccccccccccccccccccccccccccc"

func loanBody() map[string]any {
	return map[string]any{
		"customer_id":        customerID,
		"description":        "22k bangle",
		"purity":             "916",
		"weight_grams":       "25.500",
		"margin_percent":     "70",
		"ujrah_rate_percent": "0.75",
		"tenure_months":      6,
	}
}

// createLoan books a loan in KL01 and returns its id.
func (s *server) createLoan() string {
	s.t.Helper()
	rec := s.do(tellerKL, stdhttp.MethodPost, "/loans", loanBody())
	expectStatus(s.t, rec, stdhttp.StatusCreated)
	return decode[loanuc.LoanDTO](s.t, rec).LoanID
}
