package repository

import (
	"context"
	"time"

	"SentiPull/internal/domain/models"
)

// PostSupply yields raw posts for a ticker over a time range.
// Implementations are REST clients or scrapers; retry policy is theirs.
type PostSupply interface {
	Name() string
	FetchPosts(ctx context.Context, ticker string, from, to time.Time) ([]models.Post, error)
}

// PriceSupply yields daily close bars for a ticker over a trailing window.
type PriceSupply interface {
	FetchDailyHistory(ctx context.Context, ticker string, days int) ([]models.PriceObservation, error)
}

type Publisher interface {
	PublishSentiments(ctx context.Context, obs []*models.SentimentObservation) error
	PublishPrices(ctx context.Context, obs []*models.PriceObservation) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreSentiments(ctx context.Context, obs []*models.SentimentObservation) error
	StorePrices(ctx context.Context, obs []*models.PriceObservation) error
	StoreScoredPosts(ctx context.Context, posts []models.ScoredPost) error
	Health(ctx context.Context) error // ping
	Close() error
}

// ObservationStore provides read-only access to stored series for analysis.
// Series come back ordered by timestamp ascending.
type ObservationStore interface {
	GetSentiments(ctx context.Context, ticker string, from, to time.Time) ([]models.SentimentObservation, error)
	GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error)
	GetRecentPosts(ctx context.Context, ticker string, limit int) ([]models.ScoredPost, error)
}

type Metrics interface {
	RecordObservation(kind, ticker string)
	RecordMessageSent(backend, ticker string)
	RecordError(kind string)
	RecordLastScore(ticker string, score float64)
	RecordLastClose(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}
