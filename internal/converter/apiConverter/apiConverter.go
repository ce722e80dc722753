package apiConverter

import (
	"strings"
	"time"

	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dealmakerModel"
	"github.com/shopspring/decimal"
)

// selfServiceTag marks investor records created through the onboarding form.
const selfServiceTag = "web-form"

// linkStepMarker is the checkout step the link call reports back to the API.
const linkStepMarker = "contact-information"

// FieldError is a mapping failure tied to a single form field. It surfaces
// like a validation error and never reaches the network.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Date layouts accepted for date of birth input. Output is always
// zero-padded YYYY-MM-DD.
var dobLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
}

func CreateInvestorPayload(s model.OnboardingSession) dealmakerModel.CreateInvestorRequest {
	return dealmakerModel.CreateInvestorRequest{
		FirstName:   s.Fields[model.FieldFirstName],
		LastName:    s.Fields[model.FieldLastName],
		Email:       s.Fields[model.FieldEmail],
		PhoneNumber: s.Fields[model.FieldPhone],
		Tags:        []string{selfServiceTag},
		DealID:      s.DealID,
	}
}

// InvestmentPayload converts the entered dollar amount into the investment
// value and a whole security count: amount divided by the deal's price per
// security, rounded half-up (decimal.Round is half away from zero, identical
// for positive amounts).
func InvestmentPayload(s model.OnboardingSession) (dealmakerModel.InvestmentRequest, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s.Fields[model.FieldInvestmentAmount]))
	if err != nil {
		return dealmakerModel.InvestmentRequest{}, &FieldError{
			Field:   model.FieldInvestmentAmount,
			Message: "Investment amount must be a number",
		}
	}

	// the API can serve a deal without a price, decimal panics on dividing by it
	if s.PricePerSecurity.IsZero() {
		return dealmakerModel.InvestmentRequest{}, &FieldError{
			Field:   model.FieldInvestmentAmount,
			Message: "Deal has no price per security, investment cannot be placed",
		}
	}

	return dealmakerModel.InvestmentRequest{
		InvestmentValue:    amount.InexactFloat64(),
		NumberOfSecurities: amount.Div(s.PricePerSecurity).Round(0).IntPart(),
	}, nil
}

// ProfilePayload builds the category-specific profile payload. For
// individuals both investor_id and investor_profile_id carry the investor id:
// the server assigns the real profile id later, and the link call delivers
// it. For joints the investor_profile_id field is omitted entirely.
func ProfilePayload(s model.OnboardingSession) (dealmakerModel.InvestorProfileRequest, error) {
	category := s.Fields[model.FieldInvestorCategory]

	if category != model.CategoryIndividuals && category != model.CategoryJoints {
		return dealmakerModel.InvestorProfileRequest{}, &FieldError{
			Field:   model.FieldInvestorCategory,
			Message: "Investor type is not supported",
		}
	}

	dob, err := FormatDateOfBirth(s.Fields[model.FieldDateOfBirth])
	if err != nil {
		return dealmakerModel.InvestorProfileRequest{}, &FieldError{
			Field:   model.FieldDateOfBirth,
			Message: "Date of birth must be a valid date",
		}
	}

	payload := dealmakerModel.InvestorProfileRequest{
		FirstName:     s.Fields[model.FieldFirstName],
		Email:         s.Fields[model.FieldEmail],
		LastName:      s.Fields[model.FieldLastName],
		PhoneNumber:   strings.ReplaceAll(s.Fields[model.FieldPhone], "-", ""),
		InvestorInfo:  category,
		City:          s.Fields[model.FieldCity],
		Country:       s.Fields[model.FieldCountry],
		DateOfBirth:   dob,
		InvestorID:    s.InvestorID,
		PostalCode:    s.Fields[model.FieldPostalCode],
		Region:        s.Fields[model.FieldState],
		StreetAddress: s.Fields[model.FieldStreetAddress],
		Unit2:         s.Fields[model.FieldUnit],
		TaxpayerID:    s.Fields[model.FieldTaxpayerID],
	}

	if category == model.CategoryIndividuals {
		investorID := s.InvestorID
		payload.InvestorProfileID = &investorID
	}

	return payload, nil
}

func LinkProfilePayload(profileID int64) dealmakerModel.LinkProfileRequest {
	return dealmakerModel.LinkProfileRequest{
		InvestorProfileID: profileID,
		CurrentStep:       linkStepMarker,
	}
}

func FormatDateOfBirth(input string) (string, error) {
	input = strings.TrimSpace(input)

	var parsed time.Time
	var err error
	for _, layout := range dobLayouts {
		parsed, err = time.Parse(layout, input)
		if err == nil {
			return parsed.Format("2006-01-02"), nil
		}
	}

	return "", err
}
