package onboardingService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/data/repository"
	"github.com/dealflow-tools/onboarding_bot/internal/converter/apiConverter"
	"github.com/dealflow-tools/onboarding_bot/internal/converter/dbConverter"
	"github.com/dealflow-tools/onboarding_bot/internal/externalApi"
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dbModel"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dealmakerModel"
	"github.com/dealflow-tools/onboarding_bot/internal/service"
	"github.com/dealflow-tools/onboarding_bot/utils"
	"github.com/shopspring/decimal"
)

type DealmakerApi interface {
	GetDeals(ctx context.Context) ([]model.Deal, error)
	GetDealInvestors(ctx context.Context, dealID int64) ([]model.Investor, error)
	CreateInvestor(ctx context.Context, dealID int64, req dealmakerModel.CreateInvestorRequest) (investorID int64, err error)
	UpdateInvestment(ctx context.Context, dealID, investorID int64, req dealmakerModel.InvestmentRequest) (accessLink string, err error)
	CreateInvestorProfile(ctx context.Context, category string, req dealmakerModel.InvestorProfileRequest) (profileID int64, err error)
	LinkProfileToInvestor(ctx context.Context, dealID, profileID int64, req dealmakerModel.LinkProfileRequest) error
}

type Cache interface {
	SetDeals(ctx context.Context, deals []model.Deal) error
	GetDeals(ctx context.Context) ([]model.Deal, error)
	GetDeal(ctx context.Context, dealID int64) (model.Deal, error)
}

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	InsertOperator(ctx context.Context, chatID int64) (operatorID int64, err error)
	GetOperatorID(ctx context.Context, chatID int64) (operatorID int64, err error)
	InsertOnboarding(ctx context.Context, rec dbModel.OnboardingRecord) error
	GetOnboardings(ctx context.Context, operatorID int64, limit int) ([]dbModel.OnboardingRecord, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, deal model.Deal, investors []model.Investor) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

type OnboardingService struct {
	cfg          *config.Config
	repo         Repository
	cache        Cache
	dealmakerApi DealmakerApi
	reports      ReportGenerator
	cloudStorage CloudStorage
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	dealmakerApi DealmakerApi,
	reports ReportGenerator,
	cloudStorage CloudStorage,
) *OnboardingService {
	return &OnboardingService{
		cfg:          cfg,
		repo:         repo,
		cache:        cache,
		dealmakerApi: dealmakerApi,
		reports:      reports,
		cloudStorage: cloudStorage,
	}
}

func (s *OnboardingService) RegOperator(ctx context.Context, chatID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.RegOperator"

	slog.Debug("RegOperator start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("RegOperator finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	_, err := s.repo.InsertOperator(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil
		}
		slog.Error("got error from repo.InsertOperator", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// getDeals serves the listing from cache and falls back to the API, warming
// the cache asynchronously on a miss.
func (s *OnboardingService) getDeals(ctx context.Context) ([]model.Deal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.getDeals"

	deals, err := s.cache.GetDeals(ctx)
	if err == nil {
		return deals, nil
	}

	slog.Warn("can't get deals from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	deals, err = s.dealmakerApi.GetDeals(ctx)
	if err != nil {
		return nil, err
	}

	go s.cache.SetDeals(context.WithoutCancel(ctx), deals)

	return deals, nil
}

func (s *OnboardingService) GetDealsPage(ctx context.Context, page int) (model.DealsPage, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.GetDealsPage"

	slog.Debug("GetDealsPage start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("page", page))
	defer func() {
		slog.Debug("GetDealsPage finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("page", page))
	}()

	deals, err := s.getDeals(ctx)
	if err != nil {
		return model.DealsPage{}, err
	}

	perPage := s.cfg.DealsPerPage
	if page < 0 {
		page = 0
	}

	start := page * perPage
	if start >= len(deals) {
		return model.DealsPage{CurPage: page}, nil
	}

	end := start + perPage
	hasNext := end < len(deals)
	if end > len(deals) {
		end = len(deals)
	}

	return model.DealsPage{
		Deals:       deals[start:end],
		CurPage:     page,
		HasNextPage: hasNext,
	}, nil
}

func (s *OnboardingService) GetDeal(ctx context.Context, dealID int64) (model.Deal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.GetDeal"

	slog.Debug("GetDeal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))
	defer func() {
		slog.Debug("GetDeal finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))
	}()

	deal, err := s.cache.GetDeal(ctx, dealID)
	if err == nil {
		return deal, nil
	}

	slog.Warn("can't get deal from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	deals, err := s.dealmakerApi.GetDeals(ctx)
	if err != nil {
		return model.Deal{}, err
	}

	go s.cache.SetDeals(context.WithoutCancel(ctx), deals)

	for _, d := range deals {
		if d.ID == dealID {
			return d, nil
		}
	}

	return model.Deal{}, service.ErrNotFound
}

func (s *OnboardingService) GetDealInvestors(ctx context.Context, dealID int64) ([]model.Investor, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.GetDealInvestors"

	slog.Debug("GetDealInvestors start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))
	defer func() {
		slog.Debug("GetDealInvestors finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))
	}()

	investors, err := s.dealmakerApi.GetDealInvestors(ctx, dealID)
	if err != nil {
		slog.Error("got error from dealmakerApi.GetDealInvestors", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return investors, nil
}

// ExportInvestorsReport builds the roster workbook. Files above the Telegram
// upload limit go to cloud storage and only the link is returned.
func (s *OnboardingService) ExportInvestorsReport(ctx context.Context, dealID int64) (fileBytes []byte, filename string, downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.ExportInvestorsReport"

	slog.Debug("ExportInvestorsReport start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))
	defer func() {
		slog.Debug("ExportInvestorsReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", dealID))
	}()

	deal, err := s.GetDeal(ctx, dealID)
	if err != nil {
		return nil, "", "", err
	}

	investors, err := s.GetDealInvestors(ctx, dealID)
	if err != nil {
		return nil, "", "", err
	}

	fileBytes, ext, err := s.reports.Generate(ctx, deal, investors)
	if err != nil {
		slog.Error("got error from reports.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", "", err
	}

	filename = fmt.Sprintf("investors_deal_%d_%s%s", dealID, time.Now().Format("2006-01-02"), ext)

	if len(fileBytes) > s.cfg.Telegram.FileLimitInBytes {
		downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
		if err != nil {
			slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, "", "", err
		}
		return nil, filename, downloadLink, nil
	}

	return fileBytes, filename, "", nil
}

// FillDealsCache is a scheduler job keeping the deals listing warm.
func (s *OnboardingService) FillDealsCache(ctx context.Context) error {
	deals, err := s.dealmakerApi.GetDeals(ctx)
	if err != nil {
		return err
	}

	return s.cache.SetDeals(ctx, deals)
}

// CleanupCloudStorage is a scheduler job removing expired report uploads.
func (s *OnboardingService) CleanupCloudStorage(ctx context.Context) error {
	return s.cloudStorage.DeleteOldFiles(ctx)
}

// BeginOnboarding opens a wizard session for the chosen deal. The deal's
// price per security is carried in the session: the Investment step derives
// the security count from it.
func (s *OnboardingService) BeginOnboarding(deal model.Deal) model.OnboardingSession {
	return model.OnboardingSession{
		Step:             model.StepBasicInfo,
		DealID:           deal.ID,
		DealTitle:        deal.Title,
		PricePerSecurity: deal.PricePerSecurity,
		Fields:           make(map[string]string),
		FieldErrors:      make(map[string]string),
	}
}

// SetOnboardingField stores an entered value and clears that field's error
// along with any pending API error.
func (s *OnboardingService) SetOnboardingField(sess *model.OnboardingSession, field, value string) {
	if sess.Fields == nil {
		sess.Fields = make(map[string]string)
	}
	sess.Fields[field] = value
	delete(sess.FieldErrors, field)
	sess.APIError = ""
}

// AdvanceOnboarding runs one step transition: validate, map, call the API,
// merge returned identifiers, move one step forward. On any failure the step
// does not change; validation failures land in FieldErrors, remote failures
// in APIError. chatID identifies the operator for the audit record written on
// completion.
func (s *OnboardingService) AdvanceOnboarding(ctx context.Context, chatID int64, sess model.OnboardingSession) (model.OnboardingSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.AdvanceOnboarding"

	slog.Debug("AdvanceOnboarding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", sess.DealID), slog.Any("step", sess.Step))
	defer func() {
		slog.Debug("AdvanceOnboarding finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", sess.DealID), slog.Any("step", sess.Step))
	}()

	if sess.InFlight {
		return sess, service.ErrStepInFlight
	}
	if sess.Step == model.StepCompleted {
		return sess, service.ErrOnboardingCompleted
	}

	sess.APIError = ""
	sess.FieldErrors = validateStep(sess.Step, sess.Fields)
	if len(sess.FieldErrors) > 0 {
		return sess, service.ErrValidation
	}

	switch sess.Step {
	case model.StepBasicInfo:
		investorID, err := s.dealmakerApi.CreateInvestor(ctx, sess.DealID, apiConverter.CreateInvestorPayload(sess))
		if err != nil {
			slog.Error("got error from dealmakerApi.CreateInvestor", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			sess.APIError = userFacingMessage(err, "Failed to create investor. Please try again.")
			return sess, err
		}

		if sess.InvestorID == 0 {
			sess.InvestorID = investorID
		}
		sess.Step = model.StepInvestment

	case model.StepInvestment:
		payload, err := apiConverter.InvestmentPayload(sess)
		if err != nil {
			return applyFieldError(sess, err)
		}

		accessLink, err := s.dealmakerApi.UpdateInvestment(ctx, sess.DealID, sess.InvestorID, payload)
		if err != nil {
			slog.Error("got error from dealmakerApi.UpdateInvestment", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			sess.APIError = userFacingMessage(err, "Failed to update investment amount. Please try again.")
			return sess, err
		}

		if accessLink != "" {
			sess.AccessLink = accessLink
		}
		sess.Step = model.StepDetails

	case model.StepDetails:
		payload, err := apiConverter.ProfilePayload(sess)
		if err != nil {
			return applyFieldError(sess, err)
		}

		profileID, err := s.dealmakerApi.CreateInvestorProfile(ctx, sess.Fields[model.FieldInvestorCategory], payload)
		if err != nil {
			slog.Error("got error from dealmakerApi.CreateInvestorProfile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			sess.APIError = userFacingMessage(err, "Failed to complete investor profile.")
			return sess, err
		}

		// The link call is only reached with a confirmed profile id: the
		// gateway treats a 2xx without one as an error.
		err = s.dealmakerApi.LinkProfileToInvestor(ctx, sess.DealID, profileID, apiConverter.LinkProfilePayload(profileID))
		if err != nil {
			slog.Error("got error from dealmakerApi.LinkProfileToInvestor", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			sess.APIError = userFacingMessage(err, "Failed to complete investor profile.")
			return sess, err
		}

		sess.ProfileID = profileID
		sess.Step = model.StepCompleted

		go s.saveOnboardingRecord(context.WithoutCancel(ctx), chatID, sess)
	}

	return sess, nil
}

// RegressOnboarding steps back by exactly one from Investment or Details.
// Entered fields and obtained identifiers are kept; there is no way back out
// of Completed.
func (s *OnboardingService) RegressOnboarding(sess model.OnboardingSession) (model.OnboardingSession, error) {
	if sess.InFlight {
		return sess, service.ErrStepInFlight
	}

	if sess.Step > model.StepBasicInfo && sess.Step < model.StepCompleted {
		sess.Step--
	}

	return sess, nil
}

func (s *OnboardingService) OnboardingHistory(ctx context.Context, chatID int64, limit int) ([]model.CompletedOnboarding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.OnboardingHistory"

	slog.Debug("OnboardingHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("OnboardingHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	operatorID, err := s.repo.GetOperatorID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}

	recs, err := s.repo.GetOnboardings(ctx, operatorID, limit)
	if err != nil {
		return nil, err
	}

	return dbConverter.ConvertOnboardings(recs), nil
}

func (s *OnboardingService) saveOnboardingRecord(ctx context.Context, chatID int64, sess model.OnboardingSession) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "OnboardingService.saveOnboardingRecord"

	amount, err := decimal.NewFromString(strings.TrimSpace(sess.Fields[model.FieldInvestmentAmount]))
	if err != nil {
		slog.Error("can't parse investment amount for audit record", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return
	}

	if sess.PricePerSecurity.IsZero() {
		slog.Error("deal without price per security in audit record", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", sess.DealID))
		return
	}

	// register-if-missing and the audit insert commit together
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		operatorID, err := s.repo.GetOperatorID(ctx, chatID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			operatorID, err = s.repo.InsertOperator(ctx, chatID)
			if err != nil {
				return err
			}
		}

		return s.repo.InsertOnboarding(ctx, dbModel.OnboardingRecord{
			OperatorID:         operatorID,
			DealID:             sess.DealID,
			DealTitle:          sess.DealTitle,
			InvestorID:         sess.InvestorID,
			ProfileID:          sess.ProfileID,
			Category:           sess.Fields[model.FieldInvestorCategory],
			InvestmentValue:    amount.StringFixed(2),
			NumberOfSecurities: amount.Div(sess.PricePerSecurity).Round(0).IntPart(),
		})
	})
	if err != nil {
		slog.Error("can't save onboarding audit record", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}

func applyFieldError(sess model.OnboardingSession, err error) (model.OnboardingSession, error) {
	var fieldErr *apiConverter.FieldError
	if errors.As(err, &fieldErr) {
		sess.FieldErrors[fieldErr.Field] = fieldErr.Message
		return sess, service.ErrValidation
	}
	return sess, err
}

// userFacingMessage prefers the server-supplied message of an application
// error; transport failures collapse to the step's generic fallback.
func userFacingMessage(err error, fallback string) string {
	var apiErr *externalApi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fallback
}
