package telegram

import (
	"context"
	"testing"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/data/session"
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dbModel"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dealmakerModel"
	"github.com/dealflow-tools/onboarding_bot/internal/service/onboardingService"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type stubGateway struct {
	createInvestorCalls int
	investorID          int64
	investorErr         error
}

func (g *stubGateway) GetDeals(ctx context.Context) ([]model.Deal, error) {
	return nil, nil
}

func (g *stubGateway) GetDealInvestors(ctx context.Context, dealID int64) ([]model.Investor, error) {
	return nil, nil
}

func (g *stubGateway) CreateInvestor(ctx context.Context, dealID int64, req dealmakerModel.CreateInvestorRequest) (int64, error) {
	g.createInvestorCalls++
	return g.investorID, g.investorErr
}

func (g *stubGateway) UpdateInvestment(ctx context.Context, dealID, investorID int64, req dealmakerModel.InvestmentRequest) (string, error) {
	return "", nil
}

func (g *stubGateway) CreateInvestorProfile(ctx context.Context, category string, req dealmakerModel.InvestorProfileRequest) (int64, error) {
	return 0, nil
}

func (g *stubGateway) LinkProfileToInvestor(ctx context.Context, dealID, profileID int64, req dealmakerModel.LinkProfileRequest) error {
	return nil
}

type stubRepo struct{}

func (r *stubRepo) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}

func (r *stubRepo) InsertOperator(ctx context.Context, chatID int64) (int64, error) {
	return 1, nil
}

func (r *stubRepo) GetOperatorID(ctx context.Context, chatID int64) (int64, error) {
	return 1, nil
}

func (r *stubRepo) InsertOnboarding(ctx context.Context, rec dbModel.OnboardingRecord) error {
	return nil
}

func (r *stubRepo) GetOnboardings(ctx context.Context, operatorID int64, limit int) ([]dbModel.OnboardingRecord, error) {
	return nil, nil
}

type memSessionStore struct {
	sessions map[string]model.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]model.Session)}
}

func (m *memSessionStore) GetSession(ctx context.Context, key string) (model.Session, error) {
	s, ok := m.sessions[key]
	if !ok {
		return model.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (m *memSessionStore) SetSession(ctx context.Context, key string, chatSession model.Session) error {
	m.sessions[key] = chatSession
	return nil
}

func (m *memSessionStore) DeleteSession(ctx context.Context, key string) error {
	delete(m.sessions, key)
	return nil
}

// teleCtx fakes the one update's worth of telebot context the controller
// touches. The embedded interface covers the rest.
type teleCtx struct {
	tele.Context
	chat   *tele.Chat
	store  map[string]interface{}
	sent   []interface{}
	edited []interface{}
	text   string
}

func newTeleCtx(chatID int64) *teleCtx {
	return &teleCtx{
		chat:  &tele.Chat{ID: chatID},
		store: make(map[string]interface{}),
	}
}

func (c *teleCtx) Chat() *tele.Chat { return c.chat }

func (c *teleCtx) Message() *tele.Message { return &tele.Message{Text: c.text} }

func (c *teleCtx) Get(key string) interface{} { return c.store[key] }

func (c *teleCtx) Set(key string, val interface{}) { c.store[key] = val }

func (c *teleCtx) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *teleCtx) Edit(what interface{}, opts ...interface{}) error {
	c.edited = append(c.edited, what)
	return nil
}

func newTestController(gateway *stubGateway, store *memSessionStore) *Controller {
	srv := onboardingService.New(&config.Config{}, &stubRepo{}, nil, gateway, nil, nil)
	return NewController(&config.Config{}, srv, store)
}

func storedOnboarding(t *testing.T, store *memSessionStore, chatID string) *model.OnboardingSession {
	t.Helper()
	chatSession, ok := store.sessions[chatID]
	require.True(t, ok, "session missing from store")
	require.NotNil(t, chatSession.Onboarding)
	return chatSession.Onboarding
}

func filledBasicInfoSession() model.Session {
	return model.Session{
		Onboarding: &model.OnboardingSession{
			Step:             model.StepBasicInfo,
			DealID:           7,
			DealTitle:        "Series A",
			PricePerSecurity: decimal.NewFromInt(250),
			Fields: map[string]string{
				model.FieldFirstName: "Jane",
				model.FieldLastName:  "Doe",
				model.FieldEmail:     "jane@example.com",
				model.FieldPhone:     "555-123-4567",
			},
			FieldErrors: make(map[string]string),
		},
	}
}

func TestNextStepAdvancesBasicInfo(t *testing.T) {
	gateway := &stubGateway{investorID: 42}
	store := newMemSessionStore()
	store.sessions["1"] = filledBasicInfoSession()

	ctrl := newTestController(gateway, store)

	err := ctrl.NextStep(newTeleCtx(1))
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.createInvestorCalls)

	onboarding := storedOnboarding(t, store, "1")
	assert.Equal(t, model.StepInvestment, onboarding.Step)
	assert.Equal(t, int64(42), onboarding.InvestorID)
	assert.False(t, onboarding.InFlight, "lock must be released after the transition settles")
	assert.Empty(t, onboarding.APIError)
}

func TestNextStepValidationKeepsStepAndReleasesLock(t *testing.T) {
	gateway := &stubGateway{investorID: 42}
	store := newMemSessionStore()

	chatSession := filledBasicInfoSession()
	chatSession.Onboarding.Fields[model.FieldEmail] = ""
	store.sessions["1"] = chatSession

	ctrl := newTestController(gateway, store)

	err := ctrl.NextStep(newTeleCtx(1))
	require.NoError(t, err)

	assert.Zero(t, gateway.createInvestorCalls)

	onboarding := storedOnboarding(t, store, "1")
	assert.Equal(t, model.StepBasicInfo, onboarding.Step)
	assert.Equal(t, "Email is required", onboarding.FieldErrors[model.FieldEmail])
	assert.False(t, onboarding.InFlight)
}

func TestNextStepGatewayErrorReleasesLock(t *testing.T) {
	gateway := &stubGateway{investorErr: assert.AnError}
	store := newMemSessionStore()
	store.sessions["1"] = filledBasicInfoSession()

	ctrl := newTestController(gateway, store)

	err := ctrl.NextStep(newTeleCtx(1))
	require.NoError(t, err)

	onboarding := storedOnboarding(t, store, "1")
	assert.Equal(t, model.StepBasicInfo, onboarding.Step)
	assert.Equal(t, "Failed to create investor. Please try again.", onboarding.APIError)
	assert.False(t, onboarding.InFlight, "a failed transition must not leave the session locked")
}

func TestNextStepRefusedWhileInFlight(t *testing.T) {
	gateway := &stubGateway{investorID: 42}
	store := newMemSessionStore()

	chatSession := filledBasicInfoSession()
	chatSession.Onboarding.InFlight = true
	store.sessions["1"] = chatSession

	ctrl := newTestController(gateway, store)

	c := newTeleCtx(1)
	err := ctrl.NextStep(c)
	require.NoError(t, err)

	assert.Zero(t, gateway.createInvestorCalls)
	require.Len(t, c.sent, 1)
	assert.Equal(t, processingMsg, c.sent[0])

	onboarding := storedOnboarding(t, store, "1")
	assert.Equal(t, model.StepBasicInfo, onboarding.Step)
}
