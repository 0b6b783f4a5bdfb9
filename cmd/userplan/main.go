// Command userplan sets a user's subscription from the shell. It is the
// operator's tool for activating manually verified payments.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"cardpro/internal/adapter/repo"
	"cardpro/internal/domain"
	"cardpro/internal/infra"
	"cardpro/internal/ledger"
)

func main() {
	var (
		idFlag   int64
		planFlag string
		daysFlag int
	)

	flag.Int64Var(&idFlag, "id", 0, "user id to update")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (free, standard, pro)")
	flag.IntVar(&daysFlag, "days", 30, "subscription length in days (ignored for free)")
	flag.Parse()

	if idFlag == 0 {
		exitWithError(errors.New("-id is required"))
	}
	plan, err := domain.ParsePlan(strings.TrimSpace(strings.ToLower(planFlag)))
	if err != nil {
		exitWithError(err)
	}
	if plan != domain.PlanFree && daysFlag <= 0 {
		exitWithError(errors.New("-days must be positive for paid plans"))
	}

	_ = godotenv.Load()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "userplan")
	users := repo.NewUserRepository(pool)
	gens := repo.NewGenerationRepository(pool)
	svc := ledger.NewService(users, gens, ledger.Limits{}, 0, logger)

	if err := svc.SetSubscription(ctx, idFlag, plan, daysFlag); err != nil {
		exitWithError(fmt.Errorf("failed to set plan: %w", err))
	}

	u, err := users.GetByID(ctx, idFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to reload user: %w", err))
	}

	fmt.Printf("User %d updated to plan %s\n", u.ID, u.Plan)
	if u.SubExpiresAt != nil {
		fmt.Printf("expires_at=%s\n", u.SubExpiresAt.Format(time.RFC3339))
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
