package models

import "time"

// SentimentObservation is one sentiment reading for a ticker.
// Score must lie in [-1, 1]; SourceCount is the number of raw
// posts/comments aggregated into the score.
type SentimentObservation struct {
	Ticker      string
	Timestamp   time.Time
	Score       float64
	SourceCount int
}

// PriceObservation is one close-price reading for a ticker.
// Close must be finite and non-negative.
type PriceObservation struct {
	Ticker    string
	Timestamp time.Time
	Close     float64
}
