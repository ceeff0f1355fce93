package service

import "context"

// SentimentScorer assigns a sentiment score in [-1, 1] to free text.
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
	Name() string
}
