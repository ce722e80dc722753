package dbConverter

import (
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

func ConvertOnboarding(rec dbModel.OnboardingRecord) model.CompletedOnboarding {
	value, err := decimal.NewFromString(rec.InvestmentValue)
	if err != nil {
		value = decimal.Zero
	}

	return model.CompletedOnboarding{
		DealID:             rec.DealID,
		DealTitle:          rec.DealTitle,
		InvestorID:         rec.InvestorID,
		ProfileID:          rec.ProfileID,
		Category:           rec.Category,
		InvestmentValue:    value,
		NumberOfSecurities: rec.NumberOfSecurities,
		DtCreate:           rec.DtCreate,
	}
}

func ConvertOnboardings(recs []dbModel.OnboardingRecord) []model.CompletedOnboarding {
	res := make([]model.CompletedOnboarding, 0, len(recs))
	for _, rec := range recs {
		res = append(res, ConvertOnboarding(rec))
	}
	return res
}
