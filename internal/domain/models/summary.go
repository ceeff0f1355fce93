package models

import "time"

// SentimentSummary aggregates sentiment observations over a window.
type SentimentSummary struct {
	Ticker        string     `json:"ticker"`
	WindowStart   time.Time  `json:"window_start"`
	WindowEnd     time.Time  `json:"window_end"`
	AverageScore  float64    `json:"average_score"`
	Observations  int        `json:"observations"`
	PositiveCount int        `json:"positive_count"`
	NegativeCount int        `json:"negative_count"`
	NeutralCount  int        `json:"neutral_count"`
	Trend         TrendLabel `json:"trend_label"`
}

// TickerOverview is a consolidated view of all analysis sections for
// one ticker. Sections that failed are reported in Errors instead of
// aborting the whole view.
type TickerOverview struct {
	Ticker      string             `json:"ticker"`
	GeneratedAt time.Time          `json:"generated_at"`
	Correlation *CorrelationReport `json:"correlation,omitempty"`
	Summary     *SentimentSummary  `json:"summary,omitempty"`
	Posts       []ScoredPost       `json:"posts,omitempty"`
	Errors      map[string]string  `json:"errors,omitempty"`
}
