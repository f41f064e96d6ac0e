package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/domain/goldprice"
	"rahnu-backend/internal/domain/loan"
	"rahnu-backend/internal/domain/uow"
	"rahnu-backend/internal/usecase/valuation"
	"rahnu-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	maxTenureMonths = 60
	dateLayout      = "2006-01-02"
	defaultTimeout  = 5 * time.Second
)

type Usecase struct {
	uow       uow.UnitOfWork
	appraiser *valuation.Appraiser
	log       zerolog.Logger
	timeout   time.Duration
	now       func() time.Time
}

type Option func(*Usecase)

// WithTimeout bounds every storage round trip; values <= 0 are ignored.
func WithTimeout(d time.Duration) Option {
	return func(u *Usecase) {
		if d > 0 {
			u.timeout = d
		}
	}
}

func NewUsecase(tx uow.UnitOfWork, appraiser *valuation.Appraiser, log zerolog.Logger, opts ...Option) *Usecase {
	u := &Usecase{uow: tx, appraiser: appraiser, log: log, timeout: defaultTimeout, now: time.Now}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (in *CreateLoanInput) validate() error {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.Branch = strings.TrimSpace(in.Branch)
	in.Description = strings.TrimSpace(in.Description)
	in.Purity = strings.TrimSpace(in.Purity)

	switch {
	case in.CustomerID == "":
		return fmt.Errorf("%w: customer_id required", loan.ErrInvalidInput)
	case in.Branch == "":
		return fmt.Errorf("%w: branch required", loan.ErrInvalidInput)
	case in.Description == "":
		return fmt.Errorf("%w: description required", loan.ErrInvalidInput)
	case in.Purity == "":
		return fmt.Errorf("%w: purity required", loan.ErrInvalidInput)
	case in.TenureMonths < 1 || in.TenureMonths > maxTenureMonths:
		return fmt.Errorf("%w: tenure_months must be 1..%d", loan.ErrInvalidInput, maxTenureMonths)
	case in.UjrahRatePercent.IsNegative():
		return fmt.Errorf("%w: ujrah_rate_percent must not be negative", loan.ErrInvalidInput)
	}
	return nil
}

// Create appraises the collateral at today's buy price and books the loan.
// Amounts are rounded once, here, before they are persisted.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	a, err := u.appraiser.Appraise(ctx, in.Purity, in.WeightGrams, in.MarginPercent)
	if err != nil {
		return nil, u.classify("loan_create", "", err)
	}

	now := u.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	principal := valuation.RoundMoney(a.Principal)

	l := &loan.Loan{
		LoanID:           id.NewID32(),
		CustomerID:       in.CustomerID,
		Branch:           in.Branch,
		Description:      in.Description,
		Purity:           a.Purity,
		WeightGrams:      valuation.RoundWeight(a.WeightGrams),
		PricePerGram:     valuation.RoundMoney(a.PricePerGram),
		MarketValue:      valuation.RoundMoney(a.MarketValue),
		MarginPercent:    a.MarginPercent.Round(2),
		Principal:        principal,
		UjrahRatePercent: in.UjrahRatePercent.Round(4),
		MonthlyUjrah:     valuation.RoundMoney(principal.Mul(in.UjrahRatePercent).Div(decimal.NewFromInt(100))),
		TenureMonths:     in.TenureMonths,
		MaturityDate:     today.AddDate(0, in.TenureMonths, 0),
		State:            loan.StateActive,
		CreatedBy:        in.ActorID,
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		entry, err := audit.New(audit.ActionLoanCreated, l.LoanID, in.ActorID, map[string]any{
			"customer_id": l.CustomerID,
			"branch":      l.Branch,
			"principal":   l.Principal.StringFixed(2),
			"quote_id":    a.QuoteID,
		}, now)
		if err != nil {
			return err
		}
		return r.Audit.Create(ctx, entry)
	})
	if err != nil {
		return nil, u.classify("loan_create", l.LoanID, err)
	}
	return toDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	if u.uow == nil {
		return nil, loan.ErrStorageUnavailable
	}
	loanID = strings.TrimSpace(loanID)
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var l *loan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		l, err = r.Loans.GetByLoanID(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, u.classify("loan_get", loanID, err)
	}
	return toDTO(l), nil
}

var expected = []error{
	loan.ErrNotFound,
	loan.ErrInvalidInput,
	loan.ErrStorageUnavailable,
	goldprice.ErrNoActivePrice,
	valuation.ErrInvalidWeight,
	valuation.ErrInvalidPrice,
	valuation.ErrInvalidMargin,
}

// classify reports anything that is not a business error as
// ErrStorageUnavailable, keeping the cause in the chain.
func (u *Usecase) classify(op, loanID string, err error) error {
	for _, e := range expected {
		if errors.Is(err, e) {
			return err
		}
	}
	u.log.Error().Err(err).Str("op", op).Str("loan_id", loanID).Msg("loan storage failure")
	return fmt.Errorf("%w: %w", loan.ErrStorageUnavailable, err)
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.LoanID,
		CustomerID:       l.CustomerID,
		Branch:           l.Branch,
		Description:      l.Description,
		Purity:           l.Purity,
		WeightGrams:      l.WeightGrams.StringFixed(3),
		PricePerGram:     l.PricePerGram.StringFixed(2),
		MarketValue:      l.MarketValue.StringFixed(2),
		MarginPercent:    l.MarginPercent.StringFixed(2),
		Principal:        l.Principal.StringFixed(2),
		UjrahRatePercent: l.UjrahRatePercent.StringFixed(4),
		MonthlyUjrah:     l.MonthlyUjrah.StringFixed(2),
		TenureMonths:     l.TenureMonths,
		MaturityDate:     l.MaturityDate.Format(dateLayout),
		State:            string(l.State),
		CreatedAt:        l.CreatedAt,
	}
}
