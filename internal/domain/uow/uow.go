package uow

import (
	"context"

	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/domain/goldprice"
	"rahnu-backend/internal/domain/loan"
	"rahnu-backend/internal/domain/vault"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans  loan.Repository
	Vault  vault.Repository
	Prices goldprice.Repository
	Audit  audit.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
