package goldprice

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoActivePrice = errors.New("no active gold price for purity")
	ErrInvalidQuote  = errors.New("invalid gold price quote")
)

// Quote is a per-gram price for one purity grade (999, 916, ...).
// Only one quote per purity is active at a time.
type Quote struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	QuoteID     string          `gorm:"column:quote_id;type:char(32);not null;uniqueIndex:ux_gold_price_quotes_quote_id" json:"quote_id"`
	Purity      string          `gorm:"column:purity;size:8;not null;index:idx_gold_price_quotes_purity_active" json:"purity"`
	BuyPrice    decimal.Decimal `gorm:"column:buy_price_per_gram;type:decimal(18,2);not null" json:"buy_price_per_gram"`
	SellPrice   decimal.Decimal `gorm:"column:sell_price_per_gram;type:decimal(18,2);not null" json:"sell_price_per_gram"`
	EffectiveAt time.Time       `gorm:"column:effective_at;not null" json:"effective_at"`
	Active      bool            `gorm:"column:active;not null;index:idx_gold_price_quotes_purity_active" json:"active"`
	CreatedBy   string          `gorm:"column:created_by;size:32" json:"created_by"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Quote) TableName() string { return "gold_price_quotes" }
