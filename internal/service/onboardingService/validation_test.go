package onboardingService

import (
	"testing"

	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicInfoFields() map[string]string {
	return map[string]string{
		model.FieldFirstName: "Jane",
		model.FieldLastName:  "Doe",
		model.FieldEmail:     "jane@example.com",
		model.FieldPhone:     "555-123-4567",
	}
}

func detailsFields() map[string]string {
	return map[string]string{
		model.FieldInvestorCategory: model.CategoryIndividuals,
		model.FieldStreetAddress:    "1 Main St",
		model.FieldCity:             "Toronto",
		model.FieldPostalCode:       "M5V 2T6",
		model.FieldState:            "ON",
		model.FieldCountry:          "Canada",
		model.FieldDateOfBirth:      "1990-04-01",
		model.FieldTaxpayerID:       "123-45-6789",
	}
}

func TestValidateStepBasicInfo(t *testing.T) {
	errs := validateStep(model.StepBasicInfo, map[string]string{})
	require.Len(t, errs, 4)
	assert.Equal(t, "First name is required", errs[model.FieldFirstName])
	assert.Equal(t, "Last name is required", errs[model.FieldLastName])
	assert.Equal(t, "Email is required", errs[model.FieldEmail])
	assert.Equal(t, "Phone is required", errs[model.FieldPhone])

	assert.Empty(t, validateStep(model.StepBasicInfo, basicInfoFields()))
}

func TestValidateStepBasicInfoWhitespaceOnly(t *testing.T) {
	fields := basicInfoFields()
	fields[model.FieldFirstName] = "   "

	errs := validateStep(model.StepBasicInfo, fields)
	require.Len(t, errs, 1)
	assert.Equal(t, "First name is required", errs[model.FieldFirstName])
}

func TestValidateStepInvestment(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantMsg string
	}{
		{name: "empty", amount: "", wantMsg: "Investment amount is required"},
		{name: "not a number", amount: "a lot", wantMsg: "Minimum investment is $300"},
		{name: "below minimum", amount: "250", wantMsg: "Minimum investment is $300"},
		{name: "just below minimum", amount: "299.99", wantMsg: "Minimum investment is $300"},
		{name: "exactly minimum", amount: "300", wantMsg: ""},
		{name: "above minimum", amount: "350", wantMsg: ""},
		{name: "padded input", amount: "  1000  ", wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateStep(model.StepInvestment, map[string]string{model.FieldInvestmentAmount: tt.amount})
			if tt.wantMsg == "" {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, tt.wantMsg, errs[model.FieldInvestmentAmount])
			}
		})
	}
}

func TestValidateStepDetails(t *testing.T) {
	errs := validateStep(model.StepDetails, map[string]string{})
	require.Len(t, errs, 8)
	assert.Equal(t, "Investor type is required", errs[model.FieldInvestorCategory])
	assert.Equal(t, "Street address is required", errs[model.FieldStreetAddress])
	assert.Equal(t, "Date of birth is required", errs[model.FieldDateOfBirth])
	assert.Equal(t, "Taxpayer ID is required", errs[model.FieldTaxpayerID])

	// unit is the only optional field on this step
	fields := detailsFields()
	assert.Empty(t, validateStep(model.StepDetails, fields))
	fields[model.FieldUnit] = "4B"
	assert.Empty(t, validateStep(model.StepDetails, fields))
}

func TestValidateStepDoesNotMutateFields(t *testing.T) {
	fields := map[string]string{model.FieldFirstName: "Jane"}

	first := validateStep(model.StepBasicInfo, fields)
	second := validateStep(model.StepBasicInfo, fields)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]string{model.FieldFirstName: "Jane"}, fields)
}
