package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	domrepo "SentiPull/internal/domain/repository"
	pkgcache "SentiPull/pkg/cache"
	applogger "SentiPull/pkg/logger"
	"SentiPull/pkg/queue"
)

// RefreshMessageType is the queue message type for analysis refreshes.
const RefreshMessageType = "analysis.refresh"

// OverviewCacheKey names the cached overview for a ticker. The API
// overview handler and the live feed read the same key the refresh
// worker writes.
func OverviewCacheKey(ticker string) string {
	return pkgcache.GenerateKey("overview", ticker)
}

// RefreshPayload is the queue payload for one refresh.
type RefreshPayload struct {
	Ticker   string `json:"ticker"`
	Days     int    `json:"days"`
	Interval string `json:"interval"`
}

// RefreshJob recomputes a ticker overview and warms the result cache.
type RefreshJob struct {
	overview *OverviewUseCase
	cache    pkgcache.Service
	ttl      time.Duration
	logger   *applogger.Logger
}

func NewRefreshJob(overview *OverviewUseCase, cache pkgcache.Service, ttl time.Duration, lgr *applogger.Logger) *RefreshJob {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RefreshJob{overview: overview, cache: cache, ttl: ttl, logger: lgr}
}

func (j *RefreshJob) Name() string { return "analysis_refresh" }
func (j *RefreshJob) Type() string { return RefreshMessageType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("refresh payload: %w", err)
	}
	if p.Ticker == "" {
		return fmt.Errorf("refresh payload: ticker empty")
	}

	ov, err := j.overview.GetOverview(ctx, OverviewParams{
		Ticker:   p.Ticker,
		Days:     p.Days,
		Interval: domrepo.NormalizeInterval(p.Interval),
	})
	if err != nil {
		return fmt.Errorf("refresh overview %s: %w", p.Ticker, err)
	}

	if err := j.cache.Set(ctx, OverviewCacheKey(p.Ticker), ov, j.ttl); err != nil {
		j.logger.Warn("overview cache set failed",
			applogger.String("ticker", p.Ticker),
			applogger.Error(err))
	}
	j.logger.Debug("overview refreshed",
		applogger.String("ticker", p.Ticker),
		applogger.Int("sections_failed", len(ov.Errors)))
	return nil
}

var _ queue.Job = (*RefreshJob)(nil)

// RefreshScheduler enqueues one refresh per configured ticker on an
// interval. The queue workers, not the scheduler, do the computing.
type RefreshScheduler struct {
	q        queue.QueueService
	tickers  []string
	days     int
	interval domrepo.Interval
	every    time.Duration
	logger   *applogger.Logger
	locker   pkgcache.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRefreshScheduler(q queue.QueueService, tickers []string, days int, interval domrepo.Interval, every time.Duration, lgr *applogger.Logger) *RefreshScheduler {
	if every <= 0 {
		every = 5 * time.Minute
	}
	if days <= 0 {
		days = 30
	}
	return &RefreshScheduler{
		q:        q,
		tickers:  tickers,
		days:     days,
		interval: interval,
		every:    every,
		logger:   lgr,
	}
}

// SetLocker enables the cross-replica cycle guard. With several
// instances running the same schedule, only the one holding the lock
// enqueues for a given cycle.
func (s *RefreshScheduler) SetLocker(c pkgcache.Service) { s.locker = c }

func (s *RefreshScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.enqueueAll(ctx)
		t := time.NewTicker(s.every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.enqueueAll(ctx)
			}
		}
	}()
}

func (s *RefreshScheduler) enqueueAll(ctx context.Context) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, "refresh:cycle", s.every/2)
		if err != nil {
			s.logger.Warn("refresh cycle lock error", applogger.Error(err))
		} else if !ok {
			return
		}
	}
	for _, ticker := range s.tickers {
		payload := RefreshPayload{
			Ticker:   ticker,
			Days:     s.days,
			Interval: string(s.interval),
		}
		if err := s.q.PublishMessage(ctx, RefreshMessageType, payload); err != nil {
			s.logger.Warn("refresh enqueue failed",
				applogger.String("ticker", ticker),
				applogger.Error(err))
		}
	}
}

func (s *RefreshScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
