package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("loan not found")
	ErrInvalidInput       = errors.New("invalid loan input")
	ErrStorageUnavailable = errors.New("loan storage unavailable")
)

type State string

const (
	StateActive    State = "active"
	StateRedeemed  State = "redeemed"
	StateForfeited State = "forfeited"
)

// Loan is one pawn (rahn) contract. Collateral fields are what the
// vault snapshots when the item goes in.
type Loan struct {
	ID               uint64          `gorm:"primaryKey;column:id"`
	LoanID           string          `gorm:"column:loan_id;size:32;uniqueIndex:ux_loans_loan_id"`
	CustomerID       string          `gorm:"column:customer_id;size:32;index:idx_loans_customer"`
	Branch           string          `gorm:"column:branch;size:32;index:idx_loans_branch"`
	Description      string          `gorm:"column:description;type:text"`
	Purity           string          `gorm:"column:purity;size:8"`
	WeightGrams      decimal.Decimal `gorm:"column:weight_grams;type:decimal(12,3)"`
	PricePerGram     decimal.Decimal `gorm:"column:price_per_gram;type:decimal(18,2)"`
	MarketValue      decimal.Decimal `gorm:"column:market_value;type:decimal(18,2)"`
	MarginPercent    decimal.Decimal `gorm:"column:margin_percent;type:decimal(5,2)"`
	Principal        decimal.Decimal `gorm:"column:principal;type:decimal(18,2)"`
	UjrahRatePercent decimal.Decimal `gorm:"column:ujrah_rate_percent;type:decimal(6,4)"`
	MonthlyUjrah     decimal.Decimal `gorm:"column:monthly_ujrah;type:decimal(18,2)"`
	TenureMonths     int             `gorm:"column:tenure_months"`
	MaturityDate     time.Time       `gorm:"column:maturity_date;type:date"`
	State            State           `gorm:"column:state;type:varchar(16);default:'active'"`
	CreatedBy        string          `gorm:"column:created_by;size:32"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Loan) TableName() string { return "loans" }
