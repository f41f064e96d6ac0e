package vaultmock

import (
	"context"

	domain "rahnu-backend/internal/domain/vault"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Calls records method names in order so tests can assert nothing was
// written after a failed precondition.
type Repo struct {
	CreateFn               func(ctx context.Context, it *domain.Item) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Item, error)
	GetByBarcodeFn         func(ctx context.Context, barcode string) (*domain.Item, error)
	TransitionToReleasedFn func(ctx context.Context, loanID string, ev domain.ExitEvidence) (*domain.Item, error)
	ListFn                 func(ctx context.Context, f domain.ListFilter) ([]domain.Item, error)

	Calls []string
}

func (m *Repo) Create(ctx context.Context, it *domain.Item) error {
	m.Calls = append(m.Calls, "Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, it)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Item, error) {
	m.Calls = append(m.Calls, "GetByLoanID")
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	m.Calls = append(m.Calls, "GetByBarcode")
	if m.GetByBarcodeFn != nil {
		return m.GetByBarcodeFn(ctx, barcode)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) TransitionToReleased(ctx context.Context, loanID string, ev domain.ExitEvidence) (*domain.Item, error) {
	m.Calls = append(m.Calls, "TransitionToReleased")
	if m.TransitionToReleasedFn != nil {
		return m.TransitionToReleasedFn(ctx, loanID, ev)
	}
	return nil, domain.ErrNotInVault
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Item, error) {
	m.Calls = append(m.Calls, "List")
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

// Wrote reports whether a mutating method was called.
func (m *Repo) Wrote() bool {
	for _, c := range m.Calls {
		if c == "Create" || c == "TransitionToReleased" {
			return true
		}
	}
	return false
}
