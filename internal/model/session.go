package model

import "github.com/shopspring/decimal"

type state int

const (
	DefaultState state = iota
	ExpectingFieldInput
)

// OnboardingStep is the wizard position. Steps only move forward one at a
// time after the current step's remote call succeeds.
type OnboardingStep int

const (
	StepBasicInfo OnboardingStep = iota + 1
	StepInvestment
	StepDetails
	StepCompleted
)

func (s OnboardingStep) String() string {
	switch s {
	case StepBasicInfo:
		return "Basic Info"
	case StepInvestment:
		return "Investment"
	case StepDetails:
		return "Details"
	case StepCompleted:
		return "Completed"
	}
	return "Unknown"
}

// Form field keys. Values are kept as entered; converters coerce them to the
// wire types the Dealmaker API expects.
const (
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldInvestmentAmount = "investment_amount"
	FieldInvestorCategory = "investor_category"
	FieldStreetAddress    = "street_address"
	FieldUnit             = "unit"
	FieldCity             = "city"
	FieldPostalCode       = "postal_code"
	FieldState            = "state"
	FieldCountry          = "country"
	FieldDateOfBirth      = "date_of_birth"
	FieldTaxpayerID       = "taxpayer_id"
)

// Investor profile categories offered to the operator. The upstream selector
// also knows "corporation" and "trust", but those have no payload mapping, so
// they are not offered here.
const (
	CategoryIndividuals = "individuals"
	CategoryJoints      = "joints"
)

// OnboardingSession holds one onboarding attempt for one deal. Fields are
// only appended to between steps. InvestorID is set once by the Basic Info
// step and never overwritten afterwards.
type OnboardingSession struct {
	Step             OnboardingStep
	DealID           int64
	DealTitle        string
	PricePerSecurity decimal.Decimal
	Fields           map[string]string
	InvestorID       int64
	ProfileID        int64
	AccessLink       string
	FieldErrors      map[string]string
	APIError         string
	InFlight         bool
}

type Session struct {
	State        state
	PendingField string
	DealsPage    int
	Onboarding   *OnboardingSession
}
