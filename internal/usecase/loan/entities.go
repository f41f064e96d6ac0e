package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateLoanInput struct {
	CustomerID       string
	Branch           string
	Description      string
	Purity           string
	WeightGrams      decimal.Decimal
	MarginPercent    decimal.Decimal
	UjrahRatePercent decimal.Decimal
	TenureMonths     int
	ActorID          string
}

type LoanDTO struct {
	LoanID           string    `json:"loan_id"`
	CustomerID       string    `json:"customer_id"`
	Branch           string    `json:"branch"`
	Description      string    `json:"description"`
	Purity           string    `json:"purity"`
	WeightGrams      string    `json:"weight_grams"`
	PricePerGram     string    `json:"price_per_gram"`
	MarketValue      string    `json:"market_value"`
	MarginPercent    string    `json:"margin_percent"`
	Principal        string    `json:"principal"`
	UjrahRatePercent string    `json:"ujrah_rate_percent"`
	MonthlyUjrah     string    `json:"monthly_ujrah"`
	TenureMonths     int       `json:"tenure_months"`
	MaturityDate     string    `json:"maturity_date"`
	State            string    `json:"state"`
	CreatedAt        time.Time `json:"created_at"`
}
