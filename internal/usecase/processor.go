package usecase

import (
	"context"
	"fmt"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
)

// ObservationProcessor routes validated observations to the
// configured backend: straight into ClickHouse, or onto the Kafka
// observations topic for the consumer path to persist.
type ObservationProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewObservationProcessor creates a new ObservationProcessor instance.
func NewObservationProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *ObservationProcessor {
	return &ObservationProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single sentiment observation to the configured backend.
func (p *ObservationProcessor) Process(ctx context.Context, o *models.SentimentObservation) error {
	if o == nil {
		return fmt.Errorf("observation is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishSentiments(ctx, []*models.SentimentObservation{o})
	case "clickhouse":
		err = p.store.StoreSentiments(ctx, []*models.SentimentObservation{o})
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process observation: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, o.Ticker)
	p.metrics.RecordLastScore(o.Ticker, o.Score)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple sentiment observations in one call.
func (p *ObservationProcessor) ProcessBatch(ctx context.Context, obs []*models.SentimentObservation) error {
	if len(obs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishSentiments(ctx, obs)
	case "clickhouse":
		err = p.store.StoreSentiments(ctx, obs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, o := range obs {
		p.metrics.RecordMessageSent(p.backend, o.Ticker)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// ProcessPrices routes a price history batch. Prices bypass the
// sentiment pipeline: they arrive pre-validated from the supply on a
// slower cadence.
func (p *ObservationProcessor) ProcessPrices(ctx context.Context, obs []*models.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishPrices(ctx, obs)
	case "clickhouse":
		err = p.store.StorePrices(ctx, obs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_prices")
		return fmt.Errorf("process prices: %w", err)
	}

	for _, o := range obs {
		p.metrics.RecordMessageSent(p.backend, o.Ticker)
		p.metrics.RecordLastClose(o.Ticker, o.Close)
	}
	p.metrics.RecordLatency("process_prices", time.Since(start).Seconds())

	return nil
}

// StoreScoredPosts persists scored posts for the listing endpoint.
// Posts always go straight to storage; they never ride the bus.
func (p *ObservationProcessor) StoreScoredPosts(ctx context.Context, posts []models.ScoredPost) error {
	if len(posts) == 0 {
		return nil
	}
	if err := p.store.StoreScoredPosts(ctx, posts); err != nil {
		p.metrics.RecordError("store_posts")
		return fmt.Errorf("store scored posts: %w", err)
	}
	return nil
}

// Close closes underlying resources if available.
func (p *ObservationProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
