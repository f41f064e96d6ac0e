package audit

import "context"

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByLoanID(ctx context.Context, loanID string) ([]Entry, error)
}
