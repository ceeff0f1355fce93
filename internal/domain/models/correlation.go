package models

import "time"

// TrendLabel classifies the sentiment/price relationship.
type TrendLabel string

const (
	TrendBullish          TrendLabel = "bullish"
	TrendBearish          TrendLabel = "bearish"
	TrendNeutral          TrendLabel = "neutral"
	TrendInsufficientData TrendLabel = "insufficient_data"
)

// AlignedPair is one bucket where both inputs were present: the mean
// sentiment of the bucket and the simple price return from the bucket
// close to the next bucket close. SourceCount is the number of
// sentiment observations aggregated into the bucket.
type AlignedPair struct {
	Bucket      time.Time `json:"bucket"`
	Sentiment   float64   `json:"sentiment"`
	Return      float64   `json:"return"`
	SourceCount int       `json:"source_count"`
}

// CorrelationResult is the outcome of correlating aligned pairs for
// one ticker window. Coefficient is nil when undefined (too few pairs
// or zero variance). Transient value, never authoritative state.
type CorrelationResult struct {
	Ticker      string     `json:"ticker"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Coefficient *float64   `json:"correlation_coefficient"`
	Trend       TrendLabel `json:"trend_label"`
	SampleSize  int        `json:"sample_size"`
}

// CorrelationReport is the API view: the result plus the aligned
// series it was computed from, for charting.
type CorrelationReport struct {
	Result CorrelationResult `json:"result"`
	Pairs  []AlignedPair     `json:"pairs,omitempty"`
}
