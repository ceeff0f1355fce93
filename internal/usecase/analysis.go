package usecase

import (
	"context"
	"fmt"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/services/correlation"
	"SentiPull/internal/services/features"
	"SentiPull/pkg/util"
)

// AnalysisUseCase answers the read-side questions: how does stored
// sentiment correlate with stored prices, what does the window look
// like on average, and which posts drove it.
type AnalysisUseCase struct {
	store      domrepo.ObservationStore
	corrCfg    correlation.Config
	summaryCfg features.SummaryConfig
	metrics    domrepo.Metrics
}

func NewAnalysisUseCase(
	store domrepo.ObservationStore,
	corrCfg correlation.Config,
	summaryCfg features.SummaryConfig,
	metrics domrepo.Metrics,
) *AnalysisUseCase {
	return &AnalysisUseCase{
		store:      store,
		corrCfg:    corrCfg,
		summaryCfg: summaryCfg,
		metrics:    metrics,
	}
}

type CorrelationParams struct {
	Ticker   string
	Days     int
	Interval domrepo.Interval
}

// CorrelationForTicker loads both series for the trailing window and
// runs the correlation core over them. Empty series surface as the
// core's invalid_input error; too few aligned buckets come back as a
// valid insufficient_data result.
func (uc *AnalysisUseCase) CorrelationForTicker(ctx context.Context, p CorrelationParams) (*models.CorrelationReport, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if p.Days <= 0 {
		p.Days = 30
	}
	interval := p.Interval.Duration()

	start := time.Now()
	now := time.Now().UTC()
	from := util.DaysBack(now, p.Days, interval)
	to := now

	sentiments, err := uc.store.GetSentiments(ctx, p.Ticker, from, to)
	if err != nil {
		uc.metrics.RecordError("analysis_sentiments")
		return nil, fmt.Errorf("load sentiments: %w", err)
	}
	prices, err := uc.store.GetPrices(ctx, p.Ticker, from, to)
	if err != nil {
		uc.metrics.RecordError("analysis_prices")
		return nil, fmt.Errorf("load prices: %w", err)
	}

	cfg := uc.corrCfg
	cfg.BucketInterval = interval

	result, pairs, err := correlation.Analyze(p.Ticker, sentiments, prices, cfg)
	if err != nil {
		return nil, err
	}
	uc.metrics.RecordLatency("analysis_correlation", time.Since(start).Seconds())
	return &models.CorrelationReport{Result: result, Pairs: pairs}, nil
}

type SummaryParams struct {
	Ticker string
	Days   int
}

// Summary aggregates the trailing sentiment window for a ticker.
func (uc *AnalysisUseCase) Summary(ctx context.Context, p SummaryParams) (*models.SentimentSummary, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if p.Days <= 0 {
		p.Days = 7
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -p.Days)

	sentiments, err := uc.store.GetSentiments(ctx, p.Ticker, from, now)
	if err != nil {
		uc.metrics.RecordError("analysis_summary")
		return nil, fmt.Errorf("load sentiments: %w", err)
	}

	s := features.Summarize(p.Ticker, sentiments, from, now, uc.summaryCfg)
	return &s, nil
}

// RecentPosts returns the most recent scored posts for display.
func (uc *AnalysisUseCase) RecentPosts(ctx context.Context, ticker string, limit int) ([]models.ScoredPost, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}
	posts, err := uc.store.GetRecentPosts(ctx, ticker, limit)
	if err != nil {
		uc.metrics.RecordError("analysis_posts")
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return posts, nil
}
