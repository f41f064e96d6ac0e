package valuation

import (
	"context"
	"errors"
	"strings"

	"rahnu-backend/internal/domain/goldprice"

	"github.com/shopspring/decimal"
)

type Appraisal struct {
	Purity        string
	WeightGrams   decimal.Decimal
	PricePerGram  decimal.Decimal
	MarketValue   decimal.Decimal
	MarginPercent decimal.Decimal
	Principal     decimal.Decimal
	QuoteID       string
}

// Appraiser prices collateral against the active quote for its purity.
type Appraiser struct {
	prices goldprice.Lookup
	calc   *Calculator
}

func NewAppraiser(prices goldprice.Lookup, calc *Calculator) *Appraiser {
	return &Appraiser{prices: prices, calc: calc}
}

// Appraise uses the quote's buy price: that is what the house would pay
// for the collateral. Results are unrounded.
func (a *Appraiser) Appraise(ctx context.Context, purity string, weightGrams, marginPercent decimal.Decimal) (*Appraisal, error) {
	purity = strings.TrimSpace(purity)
	if !weightGrams.IsPositive() {
		return nil, ErrInvalidWeight
	}
	q, err := a.prices.GetActive(ctx, purity)
	if err != nil {
		return nil, err
	}
	if q == nil || !q.Active {
		return nil, goldprice.ErrNoActivePrice
	}
	mv, err := ComputeMarketValue(weightGrams, q.BuyPrice)
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) {
			return nil, goldprice.ErrNoActivePrice
		}
		return nil, err
	}
	principal, err := a.calc.ComputeLoanPrincipal(mv, marginPercent)
	if err != nil {
		return nil, err
	}
	return &Appraisal{
		Purity:        purity,
		WeightGrams:   weightGrams,
		PricePerGram:  q.BuyPrice,
		MarketValue:   mv,
		MarginPercent: marginPercent,
		Principal:     principal,
		QuoteID:       q.QuoteID,
	}, nil
}
