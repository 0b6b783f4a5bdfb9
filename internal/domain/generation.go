package domain

import "time"

// CategoryAnalysis marks records produced by the competitor-analysis flow.
// Card generations carry an empty category.
const CategoryAnalysis = "analysis"

// ProductNameCompetitor is the sentinel product name stored for
// competitor-analysis records, which have no product of their own.
const ProductNameCompetitor = "competitor"

// Generation is one completed call to the generation backend.
// Records are append-only: every record counts toward the owner's quota,
// but only records with a non-empty ResultText appear in history browsing.
type Generation struct {
	ID          string
	UserID      int64
	Marketplace string
	Category    string
	ProductName string
	ResultText  string
	TokensIn    int
	TokensOut   int
	CreatedAt   time.Time
}

// Stats aggregates service-wide counters for the admin surface.
type Stats struct {
	TotalUsers     int64
	PaidUsers      int64
	TodayGens      int64
	TotalGens      int64
	TotalTokensIn  int64
	TotalTokensOut int64
	TotalReferrals int64
}
