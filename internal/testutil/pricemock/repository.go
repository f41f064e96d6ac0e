package pricemock

import (
	"context"

	domain "rahnu-backend/internal/domain/goldprice"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, q *domain.Quote) error
	GetActiveFn     func(ctx context.Context, purity string) (*domain.Quote, error)
	DeactivateAllFn func(ctx context.Context, purity string) error
	ListActiveFn    func(ctx context.Context) ([]domain.Quote, error)
}

func (m *Repo) Create(ctx context.Context, q *domain.Quote) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, q)
	}
	return nil
}

func (m *Repo) GetActive(ctx context.Context, purity string) (*domain.Quote, error) {
	if m.GetActiveFn != nil {
		return m.GetActiveFn(ctx, purity)
	}
	return nil, domain.ErrNoActivePrice
}

func (m *Repo) DeactivateAll(ctx context.Context, purity string) error {
	if m.DeactivateAllFn != nil {
		return m.DeactivateAllFn(ctx, purity)
	}
	return nil
}

func (m *Repo) ListActive(ctx context.Context) ([]domain.Quote, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	return nil, nil
}
