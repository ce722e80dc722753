package telebotConverter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dealflow-tools/onboarding_bot/internal/model"
	tele "gopkg.in/telebot.v4"
)

var fieldLabels = map[string]string{
	model.FieldFirstName:        "First name",
	model.FieldLastName:         "Last name",
	model.FieldEmail:            "Email",
	model.FieldPhone:            "Phone",
	model.FieldInvestmentAmount: "Investment amount (USD)",
	model.FieldInvestorCategory: "Investor type",
	model.FieldStreetAddress:    "Street address",
	model.FieldUnit:             "Unit/Apt",
	model.FieldCity:             "City",
	model.FieldPostalCode:       "Postal code",
	model.FieldState:            "State",
	model.FieldCountry:          "Country",
	model.FieldDateOfBirth:      "Date of birth",
	model.FieldTaxpayerID:       "Taxpayer ID",
}

// stepFields lists each step's fields in display order. Unit is the only
// optional one.
var stepFields = map[model.OnboardingStep][]string{
	model.StepBasicInfo: {
		model.FieldFirstName,
		model.FieldLastName,
		model.FieldEmail,
		model.FieldPhone,
	},
	model.StepInvestment: {
		model.FieldInvestmentAmount,
	},
	model.StepDetails: {
		model.FieldInvestorCategory,
		model.FieldStreetAddress,
		model.FieldUnit,
		model.FieldCity,
		model.FieldPostalCode,
		model.FieldState,
		model.FieldCountry,
		model.FieldDateOfBirth,
		model.FieldTaxpayerID,
	},
}

func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

func FieldPrompt(field string) string {
	return fmt.Sprintf("Enter %s:", strings.ToLower(FieldLabel(field)))
}

func DealsPageResponse(page model.DealsPage) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString("🏆 Deals\n\n")

	dealBtns := make([]tele.Row, 0, len(page.Deals))
	for _, deal := range page.Deals {
		sb.WriteString(fmt.Sprintf("▸ %s — %s, $%s per security (id %d)\n",
			deal.Title, strings.ToUpper(deal.State), deal.PricePerSecurity.StringFixed(2), deal.ID))

		btn := markup.Data(deal.Title, "deal", strconv.FormatInt(deal.ID, 10))
		dealBtns = append(dealBtns, markup.Row(btn))
	}

	if len(page.Deals) == 0 {
		sb.WriteString("No deals found. Check your API connection.\n")
	}

	paginationBtns := make([]tele.Btn, 0, 2)
	if page.CurPage > 0 {
		paginationBtns = append(paginationBtns, markup.Data("← prev", "dealsPage", strconv.Itoa(page.CurPage-1)))
	}
	if page.HasNextPage {
		paginationBtns = append(paginationBtns, markup.Data("next →", "dealsPage", strconv.Itoa(page.CurPage+1)))
	}

	rows := append(dealBtns, markup.Row(paginationBtns...))
	markup.Inline(rows...)

	return sb.String(), markup
}

func DealDetailsResponse(deal model.Deal) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🏆 %s (%s)\n", deal.Title, strings.ToUpper(deal.State)))
	sb.WriteString(fmt.Sprintf("ID: %d | %s\n\n", deal.ID, deal.EnterpriseName))
	sb.WriteString(fmt.Sprintf("▸ Security type: %s\n", deal.SecurityType))
	sb.WriteString(fmt.Sprintf("▸ Price per security: $%s\n", deal.PricePerSecurity.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("▸ Min investment: $%s\n", deal.MinimumInvestment.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("▸ Max investment: $%s\n\n", deal.MaximumInvestment.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("👥 Investors: %d total, %d accepted, %d invited\n", deal.InvestorsTotal, deal.InvestorsAccepted, deal.InvestorsInvited))
	sb.WriteString(fmt.Sprintf("💰 Funding: $%s subscribed, $%s received\n", deal.AmountSubscribed.StringFixed(2), deal.FundsReceived.StringFixed(2)))

	dealID := strconv.FormatInt(deal.ID, 10)
	markup.Inline(
		markup.Row(markup.Data("➕ Onboard investor", "onboard", dealID)),
		markup.Row(
			markup.Data("👥 Investors", "investors", dealID),
			markup.Data("📄 Export XLSX", "export", dealID),
		),
		markup.Row(markup.Data("← Back to deals", "backToDeals")),
	)

	return sb.String(), markup
}

func InvestorsListResponse(deal model.Deal, investors []model.Investor) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("👥 Investors of %s\n\n", deal.Title))

	for _, investor := range investors {
		name := investor.Name
		if name == "" {
			name = "Unnamed Investor"
		}

		sb.WriteString(fmt.Sprintf("▸ %s (id %d) — %s/%s\n", name, investor.ID, investor.State, investor.FundingState))
		sb.WriteString(fmt.Sprintf("   $%s for %d securities\n", investor.InvestmentValue.StringFixed(2), investor.NumberOfSecurities))
		if len(investor.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("   🏷 %s\n", strings.Join(investor.Tags, ", ")))
		}
	}

	if len(investors) == 0 {
		sb.WriteString("No investors found.\n")
	}

	dealID := strconv.FormatInt(deal.ID, 10)
	markup.Inline(
		markup.Row(markup.Data("📄 Export XLSX", "export", dealID)),
		markup.Row(markup.Data("← Back to deal", "deal", dealID)),
	)

	return sb.String(), markup
}

// OnboardingStepResponse renders the wizard's current step: field values,
// inline errors, the API error banner and the navigation controls.
func OnboardingStepResponse(sess model.OnboardingSession) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("👤 Onboarding for %s\n", sess.DealTitle))
	sb.WriteString(fmt.Sprintf("Step %d of 3: %s\n\n", int(sess.Step), sess.Step))

	if sess.APIError != "" {
		sb.WriteString(fmt.Sprintf("❌ %s\n\n", sess.APIError))
	}

	rows := make([]tele.Row, 0, len(stepFields[sess.Step])+2)

	for _, field := range stepFields[sess.Step] {
		value := sess.Fields[field]
		if value == "" {
			value = "—"
		}
		sb.WriteString(fmt.Sprintf("▸ %s: %s\n", FieldLabel(field), value))

		if msg, ok := sess.FieldErrors[field]; ok {
			sb.WriteString(fmt.Sprintf("   ⚠️ %s\n", msg))
		}

		if field == model.FieldInvestorCategory {
			rows = append(rows, markup.Row(
				markup.Data("Individual", "category", model.CategoryIndividuals),
				markup.Data("Joint Account", "category", model.CategoryJoints),
			))
			continue
		}

		rows = append(rows, markup.Row(markup.Data("✏️ "+FieldLabel(field), "field", field)))
	}

	navBtns := make([]tele.Btn, 0, 2)
	if sess.Step > model.StepBasicInfo {
		navBtns = append(navBtns, markup.Data("← Previous", "prevStep"))
	}

	nextLabel := "Next →"
	if sess.Step == model.StepDetails {
		nextLabel = "Create Investor"
	}
	navBtns = append(navBtns, markup.Data(nextLabel, "nextStep"))

	rows = append(rows, markup.Row(navBtns...))
	rows = append(rows, markup.Row(markup.Data("✖ Cancel", "cancelOnboarding")))
	markup.Inline(rows...)

	return sb.String(), markup
}

func OnboardingCompletedResponse(sess model.OnboardingSession, redirectToAccessLink bool) string {
	var sb strings.Builder

	if redirectToAccessLink && sess.AccessLink != "" {
		sb.WriteString("🎉 Investor created! Continue to checkout:\n")
		sb.WriteString(sess.AccessLink)
		return sb.String()
	}

	sb.WriteString("🎉 Investor Created Successfully!\n")
	sb.WriteString(fmt.Sprintf("Investor ID: %d\n", sess.InvestorID))
	sb.WriteString(fmt.Sprintf("Profile ID: %d\n", sess.ProfileID))
	sb.WriteString(fmt.Sprintf("Deal: %s\n", sess.DealTitle))
	if sess.AccessLink != "" {
		sb.WriteString(fmt.Sprintf("Access link: %s\n", sess.AccessLink))
	}

	return sb.String()
}

func HistoryResponse(recs []model.CompletedOnboarding) string {
	if len(recs) == 0 {
		return "No completed onboardings yet."
	}

	var sb strings.Builder
	sb.WriteString("📋 Recent onboardings:\n\n")

	for _, rec := range recs {
		sb.WriteString(fmt.Sprintf("▸ %s — investor %d (%s), $%s for %d securities, %s\n",
			rec.DealTitle,
			rec.InvestorID,
			rec.Category,
			rec.InvestmentValue.StringFixed(2),
			rec.NumberOfSecurities,
			rec.DtCreate.Format("2006-01-02 15:04"),
		))
	}

	return sb.String()
}
