package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	FreeDailyLimit       int
	StandardMonthlyLimit int
	ProMonthlyLimit      int
	ReferralBonusDays    int

	PriceStandard int
	PricePro      int

	AdminIDs   []int64
	AdminToken string

	ReferralLinkBase string

	GenerationTimeout time.Duration
	ReminderInterval  time.Duration
	InactiveAfter     time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		FreeDailyLimit:       getEnvInt("FREE_DAILY_LIMIT", 3),
		StandardMonthlyLimit: getEnvInt("STANDARD_MONTHLY_LIMIT", 50),
		ProMonthlyLimit:      getEnvInt("PRO_MONTHLY_LIMIT", 999999),
		ReferralBonusDays:    getEnvInt("REFERRAL_BONUS_DAYS", 3),

		PriceStandard: getEnvInt("PRICE_STANDARD", 490),
		PricePro:      getEnvInt("PRICE_PRO", 990),

		AdminToken: os.Getenv("ADMIN_TOKEN"),

		ReferralLinkBase: getEnv("REFERRAL_LINK_BASE", "https://t.me/CardPROBot?start="),

		GenerationTimeout: time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 60)),
		ReminderInterval:  time.Hour * time.Duration(getEnvInt("REMINDER_INTERVAL_HOURS", 6)),
		InactiveAfter:     24 * time.Hour * time.Duration(getEnvInt("INACTIVE_AFTER_DAYS", 3)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	ids, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = ids

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
