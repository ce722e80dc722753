package tgCallback

// Callback data prefixes for inline keyboards. Payload (if any) follows the
// prefix directly.
const (
	DealsPagePrefix = "dealsPage|"
	DealPrefix      = "deal|"
	InvestorsPrefix = "investors|"
	ExportPrefix    = "export|"
	OnboardPrefix   = "onboard|"
	FieldPrefix     = "field|"
	CategoryPrefix  = "category|"

	NextStep         = "nextStep"
	PrevStep         = "prevStep"
	CancelOnboarding = "cancelOnboarding"
	BackToDeals      = "backToDeals"
)
