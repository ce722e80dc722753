package dbModel

import "time"

type OnboardingRecord struct {
	ID                 int64     `db:"id"`
	OperatorID         int64     `db:"operator_id"`
	DealID             int64     `db:"deal_id"`
	DealTitle          string    `db:"deal_title"`
	InvestorID         int64     `db:"investor_id"`
	ProfileID          int64     `db:"profile_id"`
	Category           string    `db:"category"`
	InvestmentValue    string    `db:"investment_value"`
	NumberOfSecurities int64     `db:"number_of_securities"`
	DtCreate           time.Time `db:"dt_create"`
}
