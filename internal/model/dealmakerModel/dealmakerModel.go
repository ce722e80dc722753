package dealmakerModel

type DealsResponse struct {
	Items []Deal `json:"items"`
}

type Deal struct {
	ID                int64          `json:"id"`
	Title             string         `json:"title"`
	State             string         `json:"state"`
	SecurityType      string         `json:"security_type"`
	PricePerSecurity  float64        `json:"price_per_security"`
	MinimumInvestment *float64       `json:"minimum_investment"`
	MaximumInvestment *float64       `json:"maximum_investment"`
	Investors         InvestorsStats `json:"investors"`
	Funding           Funding        `json:"funding"`
	Enterprise        Enterprise     `json:"enterprise"`
}

type InvestorsStats struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Invited  int `json:"invited"`
}

type Funding struct {
	AmountSubscribed float64 `json:"amount_subscribed"`
	FundsReceived    float64 `json:"funds_received"`
}

type Enterprise struct {
	Name string `json:"name"`
}

type InvestorsResponse struct {
	Items []Investor `json:"items"`
}

type Investor struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	State              string   `json:"state"`
	FundingState       string   `json:"funding_state"`
	PhoneNumber        string   `json:"phone_number"`
	InvestmentValue    float64  `json:"investment_value"`
	NumberOfSecurities int      `json:"number_of_securities"`
	FundsValue         float64  `json:"funds_value"`
	BeneficialAddress  string   `json:"beneficial_address"`
	CheckoutState      string   `json:"checkout_state"`
	CreatedAt          string   `json:"created_at"`
	Tags               []string `json:"tags"`
	User               User     `json:"user"`
}

type User struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateInvestorRequest struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number"`
	Tags        []string `json:"tags"`
	DealID      int64    `json:"deal_id"`
}

type CreateInvestorResponse struct {
	ID int64 `json:"id"`
}

type InvestmentRequest struct {
	InvestmentValue    float64 `json:"investment_value"`
	NumberOfSecurities int64   `json:"number_of_securities"`
}

type InvestmentResponse struct {
	AccessLink string `json:"access_link"`
}

// InvestorProfileRequest is the category-specific profile payload.
// InvestorProfileID is a pointer so the joints variant can omit it entirely
// while the individuals variant sends it populated with the investor id.
type InvestorProfileRequest struct {
	FirstName         string `json:"first_name"`
	Email             string `json:"email"`
	LastName          string `json:"last_name"`
	PhoneNumber       string `json:"phone_number"`
	InvestorInfo      string `json:"investorInfo"`
	City              string `json:"city"`
	Country           string `json:"country"`
	DateOfBirth       string `json:"date_of_birth"`
	InvestorID        int64  `json:"investor_id"`
	InvestorProfileID *int64 `json:"investor_profile_id,omitempty"`
	PostalCode        string `json:"postal_code"`
	Region            string `json:"region"`
	StreetAddress     string `json:"street_address"`
	Unit2             string `json:"unit2"`
	TaxpayerID        string `json:"taxpayer_id"`
}

type InvestorProfileResponse struct {
	ID int64 `json:"id"`
}

type LinkProfileRequest struct {
	InvestorProfileID int64  `json:"investor_profile_id"`
	CurrentStep       string `json:"current_step"`
}

type LinkProfileResponse struct {
	ID int64 `json:"id"`
}
