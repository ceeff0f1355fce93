package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
)

// OverviewUseCase assembles the per-ticker overview by fanning out to
// the three analysis sections. Sections fail independently; a partial
// overview with an Errors map is a valid answer.
type OverviewUseCase struct {
	analysis *AnalysisUseCase
	timeout  time.Duration
}

func NewOverviewUseCase(analysis *AnalysisUseCase) *OverviewUseCase {
	return &OverviewUseCase{analysis: analysis, timeout: 10 * time.Second}
}

type OverviewParams struct {
	Ticker   string
	Days     int
	Interval domrepo.Interval
	Posts    int
}

func (uc *OverviewUseCase) GetOverview(ctx context.Context, p OverviewParams) (*models.TickerOverview, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if p.Days <= 0 {
		p.Days = 30
	}
	if p.Posts <= 0 {
		p.Posts = 5
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.TickerOverview{
		Ticker:      p.Ticker,
		GeneratedAt: time.Now().UTC(),
		Errors:      map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analysis.CorrelationForTicker(ctx, CorrelationParams{
			Ticker: p.Ticker, Days: p.Days, Interval: p.Interval,
		})
		ch <- item{"correlation", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analysis.Summary(ctx, SummaryParams{Ticker: p.Ticker, Days: p.Days})
		ch <- item{"summary", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analysis.RecentPosts(ctx, p.Ticker, p.Posts)
		ch <- item{"posts", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "correlation":
			res.Correlation = it.val.(*models.CorrelationReport)
		case "summary":
			res.Summary = it.val.(*models.SentimentSummary)
		case "posts":
			res.Posts = it.val.([]models.ScoredPost)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
