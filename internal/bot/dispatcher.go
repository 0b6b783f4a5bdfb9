package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"cardpro/internal/domain"
	"cardpro/internal/infra"
	"cardpro/internal/ledger"
)

// Generator is the slice of the generation backend the flows need.
type Generator interface {
	Questions(ctx context.Context, marketplace, productName string) (string, error)
	Card(ctx context.Context, marketplace, productName, details string) (GenResult, error)
	Analyze(ctx context.Context, marketplace, competitorText string) (GenResult, error)
	Rewrite(ctx context.Context, marketplace, originalText, style string) (GenResult, error)
}

// GenResult mirrors the backend's answer: text plus token accounting.
type GenResult struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Config carries the knobs the conversation layer needs.
type Config struct {
	FreeDailyLimit       int
	StandardMonthlyLimit int
	PriceStandard        int
	PricePro             int
	AdminIDs             []int64
	ReferralLinkBase     string
	GenerationTimeout    time.Duration
}

// Bot routes inbound chat events through the conversation state machine.
type Bot struct {
	sender   Sender
	gen      Generator
	ledger   *ledger.Service
	gens     domain.GenerationRepository
	sessions *SessionStore
	throttle *Throttle
	locks    *userLocks
	cfg      Config
	logger   infra.Logger
}

// New wires the dispatcher. It also registers itself as the ledger's
// referral-credit notifier.
func New(sender Sender, gen Generator, ledgerSvc *ledger.Service, gens domain.GenerationRepository, cfg Config, logger infra.Logger) *Bot {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	b := &Bot{
		sender:   sender,
		gen:      gen,
		ledger:   ledgerSvc,
		gens:     gens,
		sessions: NewSessionStore(30 * time.Minute),
		throttle: NewThrottle(time.Second, 500*time.Millisecond),
		locks:    newUserLocks(),
		cfg:      cfg,
		logger:   logger,
	}
	ledgerSvc.OnReferralCredit(b.notifyInviter)
	return b
}

// Run consumes the inbound stream, handling each event on its own
// goroutine. Per-user serialization comes from the keyed session lock.
func (b *Bot) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			go b.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent processes one inbound event end to end.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) {
	from := ev.From()

	_, isButton := ev.(ButtonPress)
	if !b.throttle.Allow(from.ID, isButton) {
		return
	}

	unlock := b.locks.Lock(from.ID)
	defer unlock()

	switch e := ev.(type) {
	case TextMessage:
		b.handleText(ctx, e)
	case ButtonPress:
		b.handleButton(ctx, e)
	default:
		b.logger.Warn().Int64("user_id", from.ID).Msg("bot: unknown event type")
	}
}

func (b *Bot) handleText(ctx context.Context, msg TextMessage) {
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/start") {
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		b.onStart(ctx, msg.User, payload)
		return
	}

	b.touch(ctx, msg.User.ID)

	switch text {
	case "/menu":
		b.send(ctx, msg.User.ID, mainMenuText, mainMenuKb())
		return
	case "/help":
		b.sendHelp(ctx, msg.User.ID)
		return
	}

	switch b.sessions.Get(msg.User.ID).State {
	case StateEnteringProduct:
		b.onProductText(ctx, msg.User, text)
	case StateAnsweringQuestions:
		b.onAnswers(ctx, msg.User, text)
	case StateEnteringCompetitorText:
		b.onCompetitorText(ctx, msg.User, text)
	default:
		b.send(ctx, msg.User.ID, fallbackText, mainMenuKb())
	}
}

func (b *Bot) handleButton(ctx context.Context, press ButtonPress) {
	b.touch(ctx, press.User.ID)

	data := press.Data
	switch {
	case data == cbNewCard:
		b.onNewCard(ctx, press.User)
	case data == cbAnalyze:
		b.onAnalyze(ctx, press.User)
	case data == cbMPWB || data == cbMPOzon:
		b.onMarketplace(ctx, press.User, data)
	case data == cbSkip:
		b.onSkipQuestions(ctx, press.User)
	case data == cbRegenerate:
		b.onRegenerate(ctx, press.User)
	case data == cbRestyle:
		b.onRestyle(ctx, press.User)
	case strings.HasPrefix(data, cbStylePfx):
		b.onStyle(ctx, press.User, data)
	case data == cbBackMain:
		b.onBackMain(ctx, press.User)
	case data == cbProfile:
		b.onProfile(ctx, press.User)
	case data == cbPricing:
		b.onPricing(ctx, press.User)
	case data == cbReferral:
		b.onReferral(ctx, press.User)
	case data == cbHelp:
		b.sendHelp(ctx, press.User.ID)
	case strings.HasPrefix(data, cbMyCards+":"):
		b.onMyCards(ctx, press.User, data)
	case strings.HasPrefix(data, cbShowCard+":"):
		b.onShowCard(ctx, press.User, data)
	case strings.HasPrefix(data, cbBuyPrefix):
		b.onBuy(ctx, press.User, strings.TrimPrefix(data, cbBuyPrefix))
	case strings.HasPrefix(data, cbConfPrefix):
		b.onConfirmPayment(ctx, press.User, strings.TrimPrefix(data, cbConfPrefix))
	default:
		b.logger.Debug().Str("data", data).Int64("user_id", press.User.ID).Msg("bot: unknown callback")
	}
}

// touch refreshes the activity timestamp; failures are not the user's
// problem.
func (b *Bot) touch(ctx context.Context, userID int64) {
	if err := b.ledger.TouchActivity(ctx, userID); err != nil {
		b.logger.Warn().Err(err).Int64("user_id", userID).Msg("bot: touch activity failed")
	}
}

// send delivers one outbound message, logging delivery failures.
func (b *Bot) send(ctx context.Context, userID int64, text string, kb *Keyboard) {
	if err := b.sender.Send(ctx, userID, text, kb); err != nil {
		if errors.Is(err, domain.ErrDeliveryBlocked) {
			b.logger.Info().Int64("user_id", userID).Msg("bot: recipient blocked the channel")
			return
		}
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("bot: send failed")
	}
}

// notifyInviter is the decoupled referral-credit side effect. It runs on
// its own goroutine and its failure never reaches the ledger.
func (b *Bot) notifyInviter(ctx context.Context, inviterID int64, bonusDays, totalReferrals int) {
	b.send(ctx, inviterID, inviterCreditText(bonusDays, totalReferrals), nil)
}
