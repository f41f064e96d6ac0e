// Package goldprice maintains the active per-gram quote for each purity.
package goldprice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rahnu-backend/internal/domain/audit"
	"rahnu-backend/internal/domain/goldprice"
	"rahnu-backend/internal/domain/uow"
	"rahnu-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type SetQuoteInput struct {
	Purity    string
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	ActorID   string
}

// Invalidator drops cached reads for a purity after a new quote commits.
type Invalidator interface {
	Invalidate(ctx context.Context, purity string) error
}

type Usecase struct {
	uow    uow.UnitOfWork
	lookup goldprice.Lookup
	cache  Invalidator
	log    zerolog.Logger
	now    func() time.Time
}

// NewUsecase reads through lookup (usually the redis cache) and
// invalidates cache on writes. cache may be nil.
func NewUsecase(tx uow.UnitOfWork, lookup goldprice.Lookup, cache Invalidator, log zerolog.Logger) *Usecase {
	return &Usecase{uow: tx, lookup: lookup, cache: cache, log: log, now: time.Now}
}

func (u *Usecase) SetQuote(ctx context.Context, in SetQuoteInput) (*goldprice.Quote, error) {
	in.Purity = strings.TrimSpace(in.Purity)
	switch {
	case in.Purity == "":
		return nil, fmt.Errorf("%w: purity required", goldprice.ErrInvalidQuote)
	case !in.BuyPrice.IsPositive():
		return nil, fmt.Errorf("%w: buy price must be positive", goldprice.ErrInvalidQuote)
	case in.SellPrice.LessThan(in.BuyPrice):
		return nil, fmt.Errorf("%w: sell price below buy price", goldprice.ErrInvalidQuote)
	}

	now := u.now().UTC().Truncate(time.Millisecond)
	q := &goldprice.Quote{
		QuoteID:     id.NewID32(),
		Purity:      in.Purity,
		BuyPrice:    in.BuyPrice.Round(2),
		SellPrice:   in.SellPrice.Round(2),
		EffectiveAt: now,
		Active:      true,
		CreatedBy:   in.ActorID,
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Prices.DeactivateAll(ctx, q.Purity); err != nil {
			return err
		}
		if err := r.Prices.Create(ctx, q); err != nil {
			return err
		}
		entry, err := audit.New(audit.ActionPriceQuoteSet, "", in.ActorID, map[string]any{
			"quote_id":            q.QuoteID,
			"purity":              q.Purity,
			"buy_price_per_gram":  q.BuyPrice.StringFixed(2),
			"sell_price_per_gram": q.SellPrice.StringFixed(2),
		}, now)
		if err != nil {
			return err
		}
		return r.Audit.Create(ctx, entry)
	})
	if err != nil {
		u.log.Error().Err(err).Str("op", "price_set").Str("purity", in.Purity).Msg("set quote failed")
		return nil, err
	}

	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, q.Purity); err != nil {
			u.log.Warn().Err(err).Str("purity", q.Purity).Msg("price cache invalidation failed")
		}
	}
	return q, nil
}

func (u *Usecase) Active(ctx context.Context, purity string) (*goldprice.Quote, error) {
	return u.lookup.GetActive(ctx, strings.TrimSpace(purity))
}

func (u *Usecase) List(ctx context.Context) ([]goldprice.Quote, error) {
	var out []goldprice.Quote
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Prices.ListActive(ctx)
		return err
	})
	return out, err
}
