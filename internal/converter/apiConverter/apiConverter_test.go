package apiConverter

import (
	"encoding/json"
	"testing"

	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithFields(fields map[string]string) model.OnboardingSession {
	return model.OnboardingSession{
		Step:             model.StepDetails,
		DealID:           7,
		PricePerSecurity: decimal.NewFromInt(100),
		Fields:           fields,
		InvestorID:       42,
		FieldErrors:      make(map[string]string),
	}
}

func TestCreateInvestorPayload(t *testing.T) {
	sess := sessionWithFields(map[string]string{
		model.FieldFirstName: "Jane",
		model.FieldLastName:  "Doe",
		model.FieldEmail:     "jane@example.com",
		model.FieldPhone:     "555-123-4567",
	})

	payload := CreateInvestorPayload(sess)

	assert.Equal(t, "Jane", payload.FirstName)
	assert.Equal(t, "Doe", payload.LastName)
	assert.Equal(t, "jane@example.com", payload.Email)
	assert.Equal(t, "555-123-4567", payload.PhoneNumber)
	assert.Equal(t, []string{"web-form"}, payload.Tags)
	assert.Equal(t, int64(7), payload.DealID)
}

func TestInvestmentPayloadSecuritiesRounding(t *testing.T) {
	tests := []struct {
		amount string
		price  int64
		want   int64
	}{
		{amount: "350", price: 100, want: 4},   // 3.5 rounds up
		{amount: "1000", price: 250, want: 4},  // exact
		{amount: "1000", price: 300, want: 3},  // 3.33 rounds down
		{amount: "449.99", price: 100, want: 4},
		{amount: "300", price: 1000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			sess := sessionWithFields(map[string]string{model.FieldInvestmentAmount: tt.amount})
			sess.PricePerSecurity = decimal.NewFromInt(tt.price)

			payload, err := InvestmentPayload(sess)
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload.NumberOfSecurities)
		})
	}
}

func TestInvestmentPayloadZeroPrice(t *testing.T) {
	sess := sessionWithFields(map[string]string{model.FieldInvestmentAmount: "1000"})
	sess.PricePerSecurity = decimal.Zero

	_, err := InvestmentPayload(sess)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, model.FieldInvestmentAmount, fieldErr.Field)
	assert.Equal(t, "Deal has no price per security, investment cannot be placed", fieldErr.Message)
}

func TestInvestmentPayloadInvalidAmount(t *testing.T) {
	sess := sessionWithFields(map[string]string{model.FieldInvestmentAmount: "a lot"})

	_, err := InvestmentPayload(sess)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, model.FieldInvestmentAmount, fieldErr.Field)
}

func detailsSession(category string) model.OnboardingSession {
	return sessionWithFields(map[string]string{
		model.FieldFirstName:        "Jane",
		model.FieldLastName:         "Doe",
		model.FieldEmail:            "jane@example.com",
		model.FieldPhone:            "555-123-4567",
		model.FieldInvestorCategory: category,
		model.FieldStreetAddress:    "1 Main St",
		model.FieldUnit:             "4B",
		model.FieldCity:             "Toronto",
		model.FieldPostalCode:       "M5V 2T6",
		model.FieldState:            "ON",
		model.FieldCountry:          "Canada",
		model.FieldDateOfBirth:      "1990-4-1",
		model.FieldTaxpayerID:       "123-45-6789",
	})
}

func TestProfilePayloadIndividuals(t *testing.T) {
	payload, err := ProfilePayload(detailsSession(model.CategoryIndividuals))
	require.NoError(t, err)

	assert.Equal(t, "individuals", payload.InvestorInfo)
	assert.Equal(t, "5551234567", payload.PhoneNumber)
	assert.Equal(t, "1990-04-01", payload.DateOfBirth)
	assert.Equal(t, "4B", payload.Unit2)
	assert.Equal(t, "ON", payload.Region)
	assert.Equal(t, int64(42), payload.InvestorID)

	// individuals reuse the investor id as the profile id placeholder
	require.NotNil(t, payload.InvestorProfileID)
	assert.Equal(t, int64(42), *payload.InvestorProfileID)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"investor_profile_id":42`)
	assert.Contains(t, string(raw), `"investorInfo":"individuals"`)
	assert.Contains(t, string(raw), `"unit2":"4B"`)
}

func TestProfilePayloadJointsOmitsProfileID(t *testing.T) {
	payload, err := ProfilePayload(detailsSession(model.CategoryJoints))
	require.NoError(t, err)

	assert.Nil(t, payload.InvestorProfileID)
	assert.Equal(t, int64(42), payload.InvestorID)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "investor_profile_id")
}

func TestProfilePayloadUnsupportedCategory(t *testing.T) {
	for _, category := range []string{"corporation", "trust", "something-else"} {
		t.Run(category, func(t *testing.T) {
			_, err := ProfilePayload(detailsSession(category))

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, model.FieldInvestorCategory, fieldErr.Field)
			assert.Equal(t, "Investor type is not supported", fieldErr.Message)
		})
	}
}

func TestProfilePayloadInvalidDateOfBirth(t *testing.T) {
	sess := detailsSession(model.CategoryIndividuals)
	sess.Fields[model.FieldDateOfBirth] = "yesterday"

	_, err := ProfilePayload(sess)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, model.FieldDateOfBirth, fieldErr.Field)
}

func TestFormatDateOfBirth(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "1990-04-01", want: "1990-04-01"},
		{input: "1990-4-1", want: "1990-04-01"},
		{input: "04/01/1990", want: "1990-04-01"},
		{input: "4/1/1990", want: "1990-04-01"},
		{input: "01.04.1990", want: "1990-04-01"},
		{input: "  1990-04-01  ", want: "1990-04-01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := FormatDateOfBirth(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FormatDateOfBirth("31/31/1990")
	assert.Error(t, err)
}

func TestLinkProfilePayload(t *testing.T) {
	payload := LinkProfilePayload(77)

	assert.Equal(t, int64(77), payload.InvestorProfileID)
	assert.Equal(t, "contact-information", payload.CurrentStep)
}
