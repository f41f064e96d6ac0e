package auditmock

import (
	"context"

	domain "rahnu-backend/internal/domain/audit"
)

var _ domain.Repository = (*Repo)(nil)

// Repo records created entries; CreateFn overrides the default append.
type Repo struct {
	CreateFn       func(ctx context.Context, e *domain.Entry) error
	ListByLoanIDFn func(ctx context.Context, loanID string) ([]domain.Entry, error)

	Entries []*domain.Entry
}

func (m *Repo) Create(ctx context.Context, e *domain.Entry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID string) ([]domain.Entry, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	var out []domain.Entry
	for _, e := range m.Entries {
		if e.LoanID != nil && *e.LoanID == loanID {
			out = append(out, *e)
		}
	}
	return out, nil
}
