package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompletedOnboarding is one finished wizard run from the audit log.
type CompletedOnboarding struct {
	DealID             int64
	DealTitle          string
	InvestorID         int64
	ProfileID          int64
	Category           string
	InvestmentValue    decimal.Decimal
	NumberOfSecurities int64
	DtCreate           time.Time
}
