// Package valuation turns gold weight and purity into market value and
// pawn loan principal. All arithmetic is decimal; rounding happens only
// through RoundMoney/RoundWeight at the persistence and JSON boundary.
package valuation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidWeight = errors.New("weight must be greater than zero")
	ErrInvalidPrice  = errors.New("price per gram must be greater than zero")
	ErrInvalidMargin = errors.New("margin percent out of range")
)

var hundred = decimal.NewFromInt(100)

// ComputeMarketValue = weightGrams * pricePerGram, unrounded.
func ComputeMarketValue(weightGrams, pricePerGram decimal.Decimal) (decimal.Decimal, error) {
	if !weightGrams.IsPositive() {
		return decimal.Zero, ErrInvalidWeight
	}
	if !pricePerGram.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return weightGrams.Mul(pricePerGram), nil
}

// MarginRange is (Min, Max]: Min exclusive, Max inclusive.
type MarginRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func DefaultMarginRange() MarginRange {
	return MarginRange{Min: decimal.Zero, Max: hundred}
}

func (r MarginRange) Contains(pct decimal.Decimal) bool {
	return pct.GreaterThan(r.Min) && pct.LessThanOrEqual(r.Max)
}

type Calculator struct {
	margins MarginRange
}

func NewCalculator(r MarginRange) *Calculator { return &Calculator{margins: r} }

// ComputeLoanPrincipal = marketValue * marginPercent / 100, unrounded.
func (c *Calculator) ComputeLoanPrincipal(marketValue, marginPercent decimal.Decimal) (decimal.Decimal, error) {
	if !c.margins.Contains(marginPercent) {
		return decimal.Zero, fmt.Errorf("%w: %s not in (%s, %s]", ErrInvalidMargin, marginPercent, c.margins.Min, c.margins.Max)
	}
	return marketValue.Mul(marginPercent).Div(hundred), nil
}

// RoundMoney rounds half-up to 2 places. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts we store.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// RoundWeight rounds half-up to 3 places.
func RoundWeight(d decimal.Decimal) decimal.Decimal { return d.Round(3) }
