package vault

import "context"

type Repository interface {
	// Create fails with ErrAlreadyVaulted if the loan already has a record.
	Create(ctx context.Context, it *Item) error

	GetByLoanID(ctx context.Context, loanID string) (*Item, error)
	GetByBarcode(ctx context.Context, barcode string) (*Item, error)

	// TransitionToReleased is a conditional update on status=in_vault.
	// Returns ErrNotInVault when no row matched.
	TransitionToReleased(ctx context.Context, loanID string, ev ExitEvidence) (*Item, error)

	List(ctx context.Context, f ListFilter) ([]Item, error)
}
