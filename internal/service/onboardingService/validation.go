package onboardingService

import (
	"strings"

	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/shopspring/decimal"
)

// Minimum investment accepted by the Investment step, inclusive.
const minInvestmentUSD = 300

// validateStep checks the active step's fields and returns field -> message.
// An empty map means the step may proceed. Pure function: no session state is
// touched here.
func validateStep(step model.OnboardingStep, fields map[string]string) map[string]string {
	errs := make(map[string]string)

	switch step {
	case model.StepBasicInfo:
		requireField(errs, fields, model.FieldFirstName, "First name")
		requireField(errs, fields, model.FieldLastName, "Last name")
		requireField(errs, fields, model.FieldEmail, "Email")
		requireField(errs, fields, model.FieldPhone, "Phone")

	case model.StepInvestment:
		amount := strings.TrimSpace(fields[model.FieldInvestmentAmount])
		if amount == "" {
			errs[model.FieldInvestmentAmount] = "Investment amount is required"
			break
		}

		value, err := decimal.NewFromString(amount)
		if err != nil || value.LessThan(decimal.NewFromInt(minInvestmentUSD)) {
			errs[model.FieldInvestmentAmount] = "Minimum investment is $300"
		}

	case model.StepDetails:
		requireField(errs, fields, model.FieldInvestorCategory, "Investor type")
		requireField(errs, fields, model.FieldStreetAddress, "Street address")
		requireField(errs, fields, model.FieldCity, "City")
		requireField(errs, fields, model.FieldPostalCode, "Postal code")
		requireField(errs, fields, model.FieldState, "State")
		requireField(errs, fields, model.FieldCountry, "Country")
		requireField(errs, fields, model.FieldDateOfBirth, "Date of birth")
		requireField(errs, fields, model.FieldTaxpayerID, "Taxpayer ID")
	}

	return errs
}

func requireField(errs map[string]string, fields map[string]string, key, label string) {
	if strings.TrimSpace(fields[key]) == "" {
		errs[key] = label + " is required"
	}
}
