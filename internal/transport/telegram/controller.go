package telegram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/data/session"
	"github.com/dealflow-tools/onboarding_bot/internal/converter/telebotConverter"
	"github.com/dealflow-tools/onboarding_bot/internal/externalApi"
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/service"
	"github.com/dealflow-tools/onboarding_bot/utils"
	tele "gopkg.in/telebot.v4"
)

const (
	internalErrMsg   = "something went wrong, please try again"
	processingMsg    = "still processing the previous action, please wait"
	noOnboardingMsg  = "no active onboarding, pick a deal first: /deals"
	historyCmdLimit  = 10
	accessBlockedMsg = "🔒 Deals are not reachable: access is blocked upstream. Check the deployment protection settings of the API."
)

type OnboardingService interface {
	RegOperator(ctx context.Context, chatID int64) error
	GetDealsPage(ctx context.Context, page int) (model.DealsPage, error)
	GetDeal(ctx context.Context, dealID int64) (model.Deal, error)
	GetDealInvestors(ctx context.Context, dealID int64) ([]model.Investor, error)
	ExportInvestorsReport(ctx context.Context, dealID int64) (fileBytes []byte, filename string, downloadLink string, err error)
	BeginOnboarding(deal model.Deal) model.OnboardingSession
	SetOnboardingField(sess *model.OnboardingSession, field, value string)
	AdvanceOnboarding(ctx context.Context, chatID int64, sess model.OnboardingSession) (model.OnboardingSession, error)
	RegressOnboarding(sess model.OnboardingSession) (model.OnboardingSession, error)
	OnboardingHistory(ctx context.Context, chatID int64, limit int) ([]model.CompletedOnboarding, error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
	DeleteSession(ctx context.Context, key string) error
}

type Controller struct {
	cfg               *config.Config
	onboardingService OnboardingService
	session           Session
}

func NewController(cfg *config.Config, onboardingService OnboardingService, session Session) *Controller {
	return &Controller{
		cfg:               cfg,
		onboardingService: onboardingService,
		session:           session,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.onboardingService.RegOperator(ctx, c.Chat().ID)
	return c.Send("Hello! Use /deals to browse deals and onboard investors, /history for your recent onboardings.")
}

func (ctrl *Controller) ShowDeals(c tele.Context) error {
	return ctrl.renderDealsPage(c, 0, false)
}

func (ctrl *Controller) ShowDealsPage(c tele.Context, payload string) error {
	page, err := strconv.Atoi(payload)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	return ctrl.renderDealsPage(c, page, true)
}

func (ctrl *Controller) renderDealsPage(c tele.Context, page int, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	dealsPage, err := ctrl.onboardingService.GetDealsPage(ctx, page)
	if err != nil {
		if errors.Is(err, externalApi.ErrAccessBlocked) {
			return c.Send(accessBlockedMsg)
		}
		slog.Error("got error from onboardingService.GetDealsPage", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.DealsPageResponse(dealsPage)
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func (ctrl *Controller) ShowDeal(c tele.Context, payload string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	dealID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	deal, err := ctrl.onboardingService.GetDeal(ctx, dealID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("deal not found, try /deals again")
		}
		slog.Error("got error from onboardingService.GetDeal", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Edit(telebotConverter.DealDetailsResponse(deal))
}

func (ctrl *Controller) ShowInvestors(c tele.Context, payload string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	dealID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	deal, err := ctrl.onboardingService.GetDeal(ctx, dealID)
	if err != nil {
		slog.Error("got error from onboardingService.GetDeal", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	investors, err := ctrl.onboardingService.GetDealInvestors(ctx, dealID)
	if err != nil {
		slog.Error("got error from onboardingService.GetDealInvestors", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Edit(telebotConverter.InvestorsListResponse(deal, investors))
}

func (ctrl *Controller) ExportRoster(c tele.Context, payload string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	dealID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	fileBytes, filename, downloadLink, err := ctrl.onboardingService.ExportInvestorsReport(ctx, dealID)
	if err != nil {
		slog.Error("got error from onboardingService.ExportInvestorsReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	if downloadLink != "" {
		return c.Send("the report is too large for Telegram, download it here: " + downloadLink)
	}

	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(fileBytes)),
		FileName: filename,
	}
	return c.Send(doc)
}

// StartOnboarding opens a wizard session for the deal and renders step 1.
func (ctrl *Controller) StartOnboarding(c tele.Context, payload string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	dealID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	deal, err := ctrl.onboardingService.GetDeal(ctx, dealID)
	if err != nil {
		slog.Error("got error from onboardingService.GetDeal", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return c.Send(internalErrMsg)
	}

	onboarding := ctrl.onboardingService.BeginOnboarding(deal)
	chatSession.Onboarding = &onboarding
	chatSession.State = model.DefaultState
	chatSession.PendingField = ""

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Edit(telebotConverter.OnboardingStepResponse(onboarding))
}

// PromptField asks the operator to type a value for one form field.
func (ctrl *Controller) PromptField(c tele.Context, field string) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Onboarding == nil {
		return c.Send(noOnboardingMsg)
	}
	if chatSession.Onboarding.InFlight {
		return c.Send(processingMsg)
	}

	chatSession.State = model.ExpectingFieldInput
	chatSession.PendingField = field

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.FieldPrompt(field))
}

// ProcessFieldInput consumes the typed value for the pending field and
// re-renders the step.
func (ctrl *Controller) ProcessFieldInput(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Onboarding == nil || chatSession.PendingField == "" {
		return c.Send(noOnboardingMsg)
	}
	if chatSession.Onboarding.InFlight {
		return c.Send(processingMsg)
	}

	ctrl.onboardingService.SetOnboardingField(chatSession.Onboarding, chatSession.PendingField, c.Message().Text)
	chatSession.State = model.DefaultState
	chatSession.PendingField = ""

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.OnboardingStepResponse(*chatSession.Onboarding))
}

// SelectCategory stores the investor type chosen via inline button.
func (ctrl *Controller) SelectCategory(c tele.Context, category string) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Onboarding == nil {
		return c.Send(noOnboardingMsg)
	}
	if chatSession.Onboarding.InFlight {
		return c.Send(processingMsg)
	}

	ctrl.onboardingService.SetOnboardingField(chatSession.Onboarding, model.FieldInvestorCategory, category)

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Edit(telebotConverter.OnboardingStepResponse(*chatSession.Onboarding))
}

// NextStep drives one wizard transition. The in-flight lock is persisted
// before the remote calls are dispatched and cleared when they settle, so a
// second tap cannot start a parallel transition.
func (ctrl *Controller) NextStep(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Onboarding == nil {
		return c.Send(noOnboardingMsg)
	}
	if chatSession.Onboarding.InFlight {
		return c.Send(processingMsg)
	}

	chatSession.Onboarding.InFlight = true
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	// the persisted session stays locked while the remote calls run; the
	// working copy handed to the service must not carry the lock
	working := *chatSession.Onboarding
	working.InFlight = false

	onboarding, err := ctrl.onboardingService.AdvanceOnboarding(ctx, c.Chat().ID, working)
	onboarding.InFlight = false
	chatSession.Onboarding = &onboarding

	if err != nil && !errors.Is(err, service.ErrValidation) {
		slog.Error("got error from onboardingService.AdvanceOnboarding", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}

	if onboarding.Step == model.StepCompleted {
		text := telebotConverter.OnboardingCompletedResponse(onboarding, ctrl.cfg.Onboarding.RedirectToAccessLink)

		// terminal step: the wizard session ends here
		if err := ctrl.session.DeleteSession(ctx, strconv.FormatInt(c.Chat().ID, 10)); err != nil {
			slog.Error("got error from session.DeleteSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}

		return c.Edit(text)
	}

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Edit(telebotConverter.OnboardingStepResponse(onboarding))
}

func (ctrl *Controller) PrevStep(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Onboarding == nil {
		return c.Send(noOnboardingMsg)
	}

	onboarding, err := ctrl.onboardingService.RegressOnboarding(*chatSession.Onboarding)
	if err != nil {
		if errors.Is(err, service.ErrStepInFlight) {
			return c.Send(processingMsg)
		}
		return c.Send(internalErrMsg)
	}
	chatSession.Onboarding = &onboarding

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Edit(telebotConverter.OnboardingStepResponse(onboarding))
}

// CancelOnboarding aborts the wizard and returns to the deal list. Server-side
// effects of already completed steps stay as they are.
func (ctrl *Controller) CancelOnboarding(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return c.Send(internalErrMsg)
	}

	if chatSession.Onboarding != nil && chatSession.Onboarding.InFlight {
		return c.Send(processingMsg)
	}

	chatSession.Onboarding = nil
	chatSession.State = model.DefaultState
	chatSession.PendingField = ""

	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.renderDealsPage(c, 0, true)
}

func (ctrl *Controller) History(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	recs, err := ctrl.onboardingService.OnboardingHistory(ctx, c.Chat().ID, historyCmdLimit)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("you are not registered yet, send /start first")
		}
		slog.Error("got error from onboardingService.OnboardingHistory", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.HistoryResponse(recs))
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) setSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
	return err
}
