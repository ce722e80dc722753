package dealmakerApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/internal/externalApi"
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dealmakerModel"
	"github.com/dealflow-tools/onboarding_bot/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type DealmakerApi struct {
	client *resty.Client
	cfg    *config.Config
}

func New(cfg *config.Config) *DealmakerApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Dealmaker.Url)
	return &DealmakerApi{client: client, cfg: cfg}
}

// errorBody is the error shape the API returns on non-2xx responses. Some
// endpoints use "message", others "error".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func apiError(resp *resty.Response) *externalApi.APIError {
	body := errorBody{}
	msg := ""
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		if body.Message != "" {
			msg = body.Message
		} else if body.Error != "" {
			msg = body.Error
		}
	}
	return externalApi.NewAPIError(resp.StatusCode(), msg)
}

func (a *DealmakerApi) GetDeals(ctx context.Context) ([]model.Deal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DealmakerApi.GetDeals"

	slog.Debug("GetDeals request start", slog.String("rqID", rqID), slog.String("op", op))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/deals")

	if err != nil {
		slog.Error("error while dialing DealmakerApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		slog.Warn("deals listing blocked upstream", slog.String("rqID", rqID), slog.String("op", op), slog.Int("status", resp.StatusCode()))
		return nil, externalApi.ErrAccessBlocked
	}

	if !resp.IsSuccess() {
		return nil, apiError(resp)
	}

	rawDeals := dealmakerModel.DealsResponse{}
	if err := json.Unmarshal(resp.Body(), &rawDeals); err != nil {
		slog.Error("can't unmarshal response into dealmakerModel.DealsResponse", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	deals := make([]model.Deal, 0, len(rawDeals.Items))
	for _, rawDeal := range rawDeals.Items {
		deals = append(deals, parseRawDeal(rawDeal))
	}

	slog.Debug("GetDeals request complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int("deals", len(deals)))

	return deals, nil
}

func (a *DealmakerApi) GetDealInvestors(ctx context.Context, dealID int64) ([]model.Investor, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DealmakerApi.GetDealInvestors"

	slog.Debug("GetDealInvestors request start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(fmt.Sprintf("/deals/%d/investors", dealID))

	if err != nil {
		slog.Error("error while dialing DealmakerApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, apiError(resp)
	}

	rawInvestors := dealmakerModel.InvestorsResponse{}
	if err := json.Unmarshal(resp.Body(), &rawInvestors); err != nil {
		slog.Error("can't unmarshal response into dealmakerModel.InvestorsResponse", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	investors := make([]model.Investor, 0, len(rawInvestors.Items))
	for _, rawInvestor := range rawInvestors.Items {
		investors = append(investors, parseRawInvestor(rawInvestor))
	}

	slog.Debug("GetDealInvestors request complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int("investors", len(investors)))

	return investors, nil
}

// CreateInvestor registers a new investor on the deal and returns the id the
// server assigned.
func (a *DealmakerApi) CreateInvestor(ctx context.Context, dealID int64, req dealmakerModel.CreateInvestorRequest) (investorID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DealmakerApi.CreateInvestor"

	slog.Debug("CreateInvestor request start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("/deals/%d/investors", dealID))

	if err != nil {
		slog.Error("error while dialing DealmakerApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	if !resp.IsSuccess() {
		return 0, apiError(resp)
	}

	created := dealmakerModel.CreateInvestorResponse{}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		slog.Error("can't unmarshal response into dealmakerModel.CreateInvestorResponse", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	if created.ID == 0 {
		slog.Error("CreateInvestor response missing investor id", slog.String("rqID", rqID), slog.String("op", op))
		return 0, externalApi.NewAPIError(resp.StatusCode(), "response is missing investor id")
	}

	slog.Debug("CreateInvestor request complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("investorID", created.ID))

	return created.ID, nil
}

// UpdateInvestment sets the investment value and security count on the
// investor. The response may carry an external checkout link.
func (a *DealmakerApi) UpdateInvestment(ctx context.Context, dealID, investorID int64, req dealmakerModel.InvestmentRequest) (accessLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DealmakerApi.UpdateInvestment"

	slog.Debug("UpdateInvestment request start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("investorID", investorID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Patch(fmt.Sprintf("/deals/%d/investors/%d", dealID, investorID))

	if err != nil {
		slog.Error("error while dialing DealmakerApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	if !resp.IsSuccess() {
		return "", apiError(resp)
	}

	updated := dealmakerModel.InvestmentResponse{}
	if err := json.Unmarshal(resp.Body(), &updated); err != nil {
		slog.Error("can't unmarshal response into dealmakerModel.InvestmentResponse", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	slog.Debug("UpdateInvestment request complete", slog.String("rqID", rqID), slog.String("op", op))

	return updated.AccessLink, nil
}

// CreateInvestorProfile creates the category-specific compliance profile and
// returns the profile id the server assigned.
func (a *DealmakerApi) CreateInvestorProfile(ctx context.Context, category string, req dealmakerModel.InvestorProfileRequest) (profileID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DealmakerApi.CreateInvestorProfile"

	slog.Debug("CreateInvestorProfile request start", slog.String("rqID", rqID), slog.String("op", op), slog.String("category", category))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("/investor_profiles/%s", category))

	if err != nil {
		slog.Error("error while dialing DealmakerApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	if !resp.IsSuccess() {
		return 0, apiError(resp)
	}

	created := dealmakerModel.InvestorProfileResponse{}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		slog.Error("can't unmarshal response into dealmakerModel.InvestorProfileResponse", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	if created.ID == 0 {
		slog.Error("CreateInvestorProfile response missing profile id", slog.String("rqID", rqID), slog.String("op", op))
		return 0, externalApi.NewAPIError(resp.StatusCode(), "response is missing profile id")
	}

	slog.Debug("CreateInvestorProfile request complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("profileID", created.ID))

	return created.ID, nil
}

// LinkProfileToInvestor attaches the created profile back to the investor
// record. Encoding is switchable because the upstream contract for this PATCH
// is ambiguous; JSON is the default.
func (a *DealmakerApi) LinkProfileToInvestor(ctx context.Context, dealID, profileID int64, req dealmakerModel.LinkProfileRequest) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DealmakerApi.LinkProfileToInvestor"

	slog.Debug("LinkProfileToInvestor request start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("profileID", profileID))

	request := a.client.R().SetContext(ctx)

	if a.cfg.API.Dealmaker.LinkFormEncoded {
		request.SetFormData(map[string]string{
			"investor_profile_id": strconv.FormatInt(req.InvestorProfileID, 10),
			"current_step":        req.CurrentStep,
		})
	} else {
		request.SetHeader("Content-Type", "application/json").SetBody(req)
	}

	resp, err := request.Patch(fmt.Sprintf("/deals/%d/investors/%d", dealID, profileID))

	if err != nil {
		slog.Error("error while dialing DealmakerApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if !resp.IsSuccess() {
		return apiError(resp)
	}

	slog.Debug("LinkProfileToInvestor request complete", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

func parseRawDeal(raw dealmakerModel.Deal) model.Deal {
	deal := model.Deal{
		ID:                raw.ID,
		Title:             raw.Title,
		State:             raw.State,
		SecurityType:      raw.SecurityType,
		PricePerSecurity:  decimal.NewFromFloat(raw.PricePerSecurity),
		InvestorsTotal:    raw.Investors.Total,
		InvestorsAccepted: raw.Investors.Accepted,
		InvestorsInvited:  raw.Investors.Invited,
		AmountSubscribed:  decimal.NewFromFloat(raw.Funding.AmountSubscribed),
		FundsReceived:     decimal.NewFromFloat(raw.Funding.FundsReceived),
		EnterpriseName:    raw.Enterprise.Name,
	}

	if raw.MinimumInvestment != nil {
		deal.MinimumInvestment = decimal.NewFromFloat(*raw.MinimumInvestment)
	}
	if raw.MaximumInvestment != nil {
		deal.MaximumInvestment = decimal.NewFromFloat(*raw.MaximumInvestment)
	}

	return deal
}

func parseRawInvestor(raw dealmakerModel.Investor) model.Investor {
	phone := raw.PhoneNumber
	if phone == "" {
		phone = raw.User.Phone
	}

	return model.Investor{
		ID:                 raw.ID,
		Name:               raw.Name,
		Email:              raw.User.Email,
		PhoneNumber:        phone,
		State:              raw.State,
		FundingState:       raw.FundingState,
		InvestmentValue:    decimal.NewFromFloat(raw.InvestmentValue),
		NumberOfSecurities: raw.NumberOfSecurities,
		FundsValue:         decimal.NewFromFloat(raw.FundsValue),
		BeneficialAddress:  raw.BeneficialAddress,
		CheckoutState:      raw.CheckoutState,
		CreatedAt:          raw.CreatedAt,
		Tags:               raw.Tags,
	}
}
