package goldprice

import "context"

type Repository interface {
	Create(ctx context.Context, q *Quote) error
	// GetActive returns ErrNoActivePrice when the purity has no active quote.
	GetActive(ctx context.Context, purity string) (*Quote, error)
	DeactivateAll(ctx context.Context, purity string) error
	ListActive(ctx context.Context) ([]Quote, error)
}

// Lookup is the read side the valuation code depends on.
type Lookup interface {
	GetActive(ctx context.Context, purity string) (*Quote, error)
}
