package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cardpro/internal/adapter/repo"
	"cardpro/internal/bot"
	"cardpro/internal/http/handlers"
	"cardpro/internal/http/httpapi"
	"cardpro/internal/infra"
	"cardpro/internal/ledger"
	"cardpro/internal/notify"
	"cardpro/internal/providers/openai"
	"cardpro/internal/transport/console"
)

// aiGenerator adapts the provider client to the conversation layer's
// Generator contract.
type aiGenerator struct {
	c *openai.Client
}

func (g aiGenerator) Questions(ctx context.Context, marketplace, productName string) (string, error) {
	return g.c.Questions(ctx, marketplace, productName)
}

func (g aiGenerator) Card(ctx context.Context, marketplace, productName, details string) (bot.GenResult, error) {
	return toGenResult(g.c.Card(ctx, marketplace, productName, details))
}

func (g aiGenerator) Analyze(ctx context.Context, marketplace, competitorText string) (bot.GenResult, error) {
	return toGenResult(g.c.Analyze(ctx, marketplace, competitorText))
}

func (g aiGenerator) Rewrite(ctx context.Context, marketplace, originalText, style string) (bot.GenResult, error) {
	return toGenResult(g.c.Rewrite(ctx, marketplace, originalText, style))
}

func toGenResult(res openai.Result, err error) (bot.GenResult, error) {
	return bot.GenResult{Text: res.Text, TokensIn: res.TokensIn, TokensOut: res.TokensOut}, err
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := infra.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	users := repo.NewUserRepository(pool)
	gens := repo.NewGenerationRepository(pool)
	stats := repo.NewStatsRepository(pool)

	limits := ledger.Limits{
		FreeDaily:       cfg.FreeDailyLimit,
		StandardMonthly: cfg.StandardMonthlyLimit,
		ProMonthly:      cfg.ProMonthlyLimit,
	}
	ledgerSvc := ledger.NewService(users, gens, limits, cfg.ReferralBonusDays, logger)

	ai, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation client")
	}

	// TODO: swap for the real chat transport once its adapter lands; the
	// console transport drives the identical event loop from stdin.
	transport := console.New(os.Stdin, os.Stdout, 1)

	botCfg := bot.Config{
		FreeDailyLimit:       cfg.FreeDailyLimit,
		StandardMonthlyLimit: cfg.StandardMonthlyLimit,
		PriceStandard:        cfg.PriceStandard,
		PricePro:             cfg.PricePro,
		AdminIDs:             cfg.AdminIDs,
		ReferralLinkBase:     cfg.ReferralLinkBase,
		GenerationTimeout:    cfg.GenerationTimeout,
	}
	b := bot.New(transport, aiGenerator{c: ai}, ledgerSvc, gens, botCfg, logger)

	sweeper := notify.NewSweeper(users, transport, cfg.ReminderInterval, cfg.InactiveAfter, cfg.FreeDailyLimit, logger)

	app := &handlers.App{
		Ledger: ledgerSvc,
		Users:  users,
		Stats:  stats,
		Sender: transport,
		Logger: logger,
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, cfg.AdminToken))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("admin api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Info().Msg("conversation loop started")
		return b.Run(gctx, transport.Events())
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("service stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("service stopped")
}
