package tgbot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dealflow-tools/onboarding_bot/config"
	"github.com/dealflow-tools/onboarding_bot/data/session"
	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/internal/model/tg/tgCallback"
	"github.com/dealflow-tools/onboarding_bot/internal/transport/telegram"
	customMW "github.com/dealflow-tools/onboarding_bot/internal/transport/telegram/middleware"
	"github.com/dealflow-tools/onboarding_bot/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/deals", b.ctrl.ShowDeals)
	b.bot.Handle("/history", b.ctrl.History)
	b.bot.Handle("/cancel", b.ctrl.CancelOnboarding)

	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// pick the controller method based on the chat session state
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return c.Send("start with one of the commands: /deals")
			}
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("something went wrong, please try again")
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingFieldInput:
			return b.ctrl.ProcessFieldInput(c)
		default:
			return c.Send("start with one of the commands: /deals")
		}
	})

	b.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		data := strings.TrimPrefix(c.Callback().Data, "\f")

		switch {
		case data == tgCallback.NextStep:
			return b.ctrl.NextStep(c)
		case data == tgCallback.PrevStep:
			return b.ctrl.PrevStep(c)
		case data == tgCallback.CancelOnboarding:
			return b.ctrl.CancelOnboarding(c)
		case data == tgCallback.BackToDeals:
			return b.ctrl.ShowDealsPage(c, "0")
		case strings.HasPrefix(data, tgCallback.DealsPagePrefix):
			return b.ctrl.ShowDealsPage(c, strings.TrimPrefix(data, tgCallback.DealsPagePrefix))
		case strings.HasPrefix(data, tgCallback.DealPrefix):
			return b.ctrl.ShowDeal(c, strings.TrimPrefix(data, tgCallback.DealPrefix))
		case strings.HasPrefix(data, tgCallback.InvestorsPrefix):
			return b.ctrl.ShowInvestors(c, strings.TrimPrefix(data, tgCallback.InvestorsPrefix))
		case strings.HasPrefix(data, tgCallback.ExportPrefix):
			return b.ctrl.ExportRoster(c, strings.TrimPrefix(data, tgCallback.ExportPrefix))
		case strings.HasPrefix(data, tgCallback.OnboardPrefix):
			return b.ctrl.StartOnboarding(c, strings.TrimPrefix(data, tgCallback.OnboardPrefix))
		case strings.HasPrefix(data, tgCallback.FieldPrefix):
			return b.ctrl.PromptField(c, strings.TrimPrefix(data, tgCallback.FieldPrefix))
		case strings.HasPrefix(data, tgCallback.CategoryPrefix):
			return b.ctrl.SelectCategory(c, strings.TrimPrefix(data, tgCallback.CategoryPrefix))
		}

		return c.Respond()
	})
}
