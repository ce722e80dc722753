package model

import "github.com/shopspring/decimal"

type Deal struct {
	ID                int64
	Title             string
	State             string
	SecurityType      string
	PricePerSecurity  decimal.Decimal
	MinimumInvestment decimal.Decimal
	MaximumInvestment decimal.Decimal
	InvestorsTotal    int
	InvestorsAccepted int
	InvestorsInvited  int
	AmountSubscribed  decimal.Decimal
	FundsReceived     decimal.Decimal
	EnterpriseName    string
}

type DealsPage struct {
	Deals       []Deal
	CurPage     int
	HasNextPage bool
}

type Investor struct {
	ID                 int64
	Name               string
	Email              string
	PhoneNumber        string
	State              string
	FundingState       string
	InvestmentValue    decimal.Decimal
	NumberOfSecurities int
	FundsValue         decimal.Decimal
	BeneficialAddress  string
	CheckoutState      string
	CreatedAt          string
	Tags               []string
}
