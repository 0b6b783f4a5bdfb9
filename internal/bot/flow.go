package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cardpro/internal/domain"
)

// messageChunkSize is the transport's hard per-message limit. Longer
// output is split into ordered chunks with controls only on the last one.
const messageChunkSize = 4000

const (
	productMinLen    = 3
	productMaxLen    = 500
	answersMaxLen    = 3000
	competitorMinLen = 20
	competitorMaxLen = 5000
)

func (b *Bot) onStart(ctx context.Context, from UserRef, refCode string) {
	if _, _, err := b.ledger.GetOrCreate(ctx, from.ID, from.Username, from.FullName, refCode); err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: onboarding failed")
		b.send(ctx, from.ID, retryFailureText, nil)
		return
	}
	b.send(ctx, from.ID, welcomeText, mainMenuKb())
}

// onNewCard starts the card-creation flow, gated by quota.
func (b *Bot) onNewCard(ctx context.Context, from UserRef) {
	st, err := b.ledger.CheckQuota(ctx, from.ID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: quota check failed")
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	if !st.Allowed {
		b.send(ctx, from.ID, quotaExceededText(st), backKb())
		return
	}

	b.sessions.Put(from.ID, Session{State: StateChoosingMarketplace})
	b.send(ctx, from.ID, "Which marketplace is this listing for?", marketplaceKb())
}

// onAnalyze starts the competitor-analysis flow, gated by plan and quota.
func (b *Bot) onAnalyze(ctx context.Context, from UserRef) {
	plan, err := b.ledger.ResolveActivePlan(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	if plan == domain.PlanFree {
		b.send(ctx, from.ID, "Competitor analysis is available on Standard and above.", backKb())
		return
	}
	st, err := b.ledger.CheckQuota(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	if !st.Allowed {
		b.send(ctx, from.ID, quotaExceededText(st), backKb())
		return
	}

	b.sessions.Put(from.ID, Session{State: StateCompetitorMarketplace})
	b.send(ctx, from.ID, "Competitor listing analysis\n\nPick the marketplace:", marketplaceKb())
}

func (b *Bot) onMarketplace(ctx context.Context, from UserRef, data string) {
	mp := marketplaceWB
	if data == cbMPOzon {
		mp = marketplaceOzon
	}

	sess := b.sessions.Get(from.ID)
	switch sess.State {
	case StateChoosingMarketplace:
		sess.Marketplace = mp
		sess.State = StateEnteringProduct
		b.sessions.Put(from.ID, sess)
		b.send(ctx, from.ID, productPromptText(mp), nil)
	case StateCompetitorMarketplace:
		sess.Marketplace = mp
		sess.State = StateEnteringCompetitorText
		b.sessions.Put(from.ID, sess)
		b.send(ctx, from.ID, competitorPromptText(mp), nil)
	default:
		// Stale button from an earlier screen.
		b.send(ctx, from.ID, mainMenuText, mainMenuKb())
	}
}

// onProductText validates the product name and fetches clarifying
// questions. A backend failure here degrades to a generic prompt; it must
// never block the user.
func (b *Bot) onProductText(ctx context.Context, from UserRef, text string) {
	n := len([]rune(text))
	if n < productMinLen {
		b.send(ctx, from.ID, "That name is too short. Describe the product in more detail.", nil)
		return
	}
	if n > productMaxLen {
		b.send(ctx, from.ID, fmt.Sprintf("Too long. Keep it under %d characters.", productMaxLen), nil)
		return
	}

	sess := b.sessions.Get(from.ID)
	sess.ProductName = text
	b.send(ctx, from.ID, "Analyzing the product, picking questions...", nil)

	genCtx, cancel := context.WithTimeout(ctx, b.cfg.GenerationTimeout)
	questions, err := b.gen.Questions(genCtx, sess.Marketplace, text)
	cancel()

	sess.State = StateAnsweringQuestions
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: question elicitation failed")
		b.sessions.Put(from.ID, sess)
		b.send(ctx, from.ID, genericQuestionsText(text), skipKb())
		return
	}
	sess.AIQuestions = questions
	b.sessions.Put(from.ID, sess)
	b.send(ctx, from.ID, questionsText(text, questions), skipKb())
}

func (b *Bot) onSkipQuestions(ctx context.Context, from UserRef) {
	if b.sessions.Get(from.ID).State != StateAnsweringQuestions {
		b.send(ctx, from.ID, mainMenuText, mainMenuKb())
		return
	}
	b.runCardGeneration(ctx, from, "")
}

func (b *Bot) onAnswers(ctx context.Context, from UserRef, text string) {
	if len([]rune(text)) > answersMaxLen {
		b.send(ctx, from.ID, fmt.Sprintf("Too long. Keep it under %d characters.", answersMaxLen), nil)
		return
	}
	b.runCardGeneration(ctx, from, text)
}

// runCardGeneration is the answering_questions → result transition: fresh
// quota check, backend call, history write, result presentation. On
// backend failure the session resets to idle.
func (b *Bot) runCardGeneration(ctx context.Context, from UserRef, answers string) {
	st, err := b.ledger.CheckQuota(ctx, from.ID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: quota check failed")
		b.send(ctx, from.ID, retryFailureText, backKb())
		return
	}
	if !st.Allowed {
		b.sessions.Clear(from.ID)
		b.send(ctx, from.ID, quotaExceededText(st), backKb())
		return
	}

	sess := b.sessions.Get(from.ID)
	b.send(ctx, from.ID, "Generating the listing...\n10-20 seconds", nil)

	genCtx, cancel := context.WithTimeout(ctx, b.cfg.GenerationTimeout)
	res, err := b.gen.Card(genCtx, sess.Marketplace, sess.ProductName, answers)
	cancel()
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: card generation failed")
		b.sessions.Clear(from.ID)
		b.send(ctx, from.ID, genericFailureText, mainMenuKb())
		return
	}

	b.recordGeneration(ctx, from.ID, sess.Marketplace, "", sess.ProductName, res)

	sess.LastResult = res.Text
	sess.Details = answers
	sess.State = StateResult
	b.sessions.Put(from.ID, sess)

	b.sendChunked(ctx, from.ID, res.Text, afterGenerationKb())
}

// onRegenerate re-runs the last card generation. The session stays in
// result on failure so the user keeps their previous output.
func (b *Bot) onRegenerate(ctx context.Context, from UserRef) {
	sess := b.sessions.Get(from.ID)
	if sess.ProductName == "" {
		b.send(ctx, from.ID, "Nothing to regenerate yet.", mainMenuKb())
		return
	}

	st, err := b.ledger.CheckQuota(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, afterGenerationKb())
		return
	}
	if !st.Allowed {
		b.send(ctx, from.ID, quotaExceededText(st), backKb())
		return
	}

	b.send(ctx, from.ID, "Generating another variant...", nil)

	genCtx, cancel := context.WithTimeout(ctx, b.cfg.GenerationTimeout)
	res, err := b.gen.Card(genCtx, sess.Marketplace, sess.ProductName, sess.Details)
	cancel()
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: regeneration failed")
		b.send(ctx, from.ID, retryFailureText, afterGenerationKb())
		return
	}

	b.recordGeneration(ctx, from.ID, sess.Marketplace, "", sess.ProductName, res)

	sess.LastResult = res.Text
	sess.State = StateResult
	b.sessions.Put(from.ID, sess)

	b.sendChunked(ctx, from.ID, res.Text, afterGenerationKb())
}

// onRestyle offers the style picker; gated by plan.
func (b *Bot) onRestyle(ctx context.Context, from UserRef) {
	plan, err := b.ledger.ResolveActivePlan(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, nil)
		return
	}
	if plan == domain.PlanFree {
		b.send(ctx, from.ID, "Style change is available on Standard and above.", backKb())
		return
	}
	b.send(ctx, from.ID, "Pick a style:", restyleKb())
}

// onStyle rewrites the last result in the chosen style. Like regenerate,
// failure keeps the session in result.
func (b *Bot) onStyle(ctx context.Context, from UserRef, styleToken string) {
	sess := b.sessions.Get(from.ID)
	if sess.LastResult == "" {
		b.send(ctx, from.ID, "No listing to restyle yet.", mainMenuKb())
		return
	}

	st, err := b.ledger.CheckQuota(ctx, from.ID)
	if err != nil {
		b.send(ctx, from.ID, retryFailureText, afterGenerationKb())
		return
	}
	if !st.Allowed {
		b.send(ctx, from.ID, quotaExceededText(st), backKb())
		return
	}

	style, ok := styleDirectives[styleToken]
	if !ok {
		style = "Neutral tone."
	}
	marketplace := sess.Marketplace
	if marketplace == "" {
		marketplace = marketplaceWB
	}

	b.send(ctx, from.ID, "Rewriting...", nil)

	genCtx, cancel := context.WithTimeout(ctx, b.cfg.GenerationTimeout)
	res, err := b.gen.Rewrite(genCtx, marketplace, sess.LastResult, style)
	cancel()
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: restyle failed")
		b.send(ctx, from.ID, retryFailureText, afterGenerationKb())
		return
	}

	b.recordGeneration(ctx, from.ID, marketplace, "", sess.ProductName, res)

	sess.LastResult = res.Text
	sess.State = StateResult
	b.sessions.Put(from.ID, sess)

	b.sendChunked(ctx, from.ID, res.Text, afterGenerationKb())
}

// onCompetitorText is the entering_competitor_text → result transition.
func (b *Bot) onCompetitorText(ctx context.Context, from UserRef, text string) {
	n := len([]rune(text))
	if n < competitorMinLen {
		b.send(ctx, from.ID, "That text is too short.", nil)
		return
	}
	if n > competitorMaxLen {
		b.send(ctx, from.ID, fmt.Sprintf("Maximum %d characters.", competitorMaxLen), nil)
		return
	}

	sess := b.sessions.Get(from.ID)
	b.send(ctx, from.ID, "Analyzing...", nil)

	genCtx, cancel := context.WithTimeout(ctx, b.cfg.GenerationTimeout)
	res, err := b.gen.Analyze(genCtx, sess.Marketplace, text)
	cancel()
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", from.ID).Msg("bot: competitor analysis failed")
		b.sessions.Clear(from.ID)
		b.send(ctx, from.ID, analyzeFailureText, mainMenuKb())
		return
	}

	b.recordGeneration(ctx, from.ID, sess.Marketplace, domain.CategoryAnalysis, domain.ProductNameCompetitor, res)

	sess.LastResult = res.Text
	sess.State = StateResult
	b.sessions.Put(from.ID, sess)

	b.sendChunked(ctx, from.ID, res.Text, afterGenerationKb())
}

func (b *Bot) onBackMain(ctx context.Context, from UserRef) {
	b.sessions.Clear(from.ID)
	b.send(ctx, from.ID, mainMenuText, mainMenuKb())
}

// recordGeneration appends to the history log and touches activity. A
// failed write is logged but does not take the result away from the user.
func (b *Bot) recordGeneration(ctx context.Context, userID int64, marketplace, category, productName string, res GenResult) {
	gen := &domain.Generation{
		ID:          uuid.NewString(),
		UserID:      userID,
		Marketplace: marketplace,
		Category:    category,
		ProductName: productName,
		ResultText:  res.Text,
		TokensIn:    res.TokensIn,
		TokensOut:   res.TokensOut,
		CreatedAt:   time.Now(),
	}
	if err := b.gens.Insert(ctx, gen); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("bot: history write failed")
	}
	b.touch(ctx, userID)
}

// sendChunked splits long output into ordered chunks, attaching the
// keyboard only to the final one.
func (b *Bot) sendChunked(ctx context.Context, userID int64, text string, kb *Keyboard) {
	runes := []rune(text)
	for len(runes) > messageChunkSize {
		b.send(ctx, userID, string(runes[:messageChunkSize]), nil)
		runes = runes[messageChunkSize:]
	}
	b.send(ctx, userID, string(runes), kb)
}
