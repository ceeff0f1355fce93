package usecase

import (
	"context"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	drepo "SentiPull/internal/domain/repository"
	domsvc "SentiPull/internal/domain/service"
	mid "SentiPull/internal/middleware"
	applogger "SentiPull/pkg/logger"
)

// CollectorConfig carries the polling policy.
type CollectorConfig struct {
	Tickers           []string
	PollInterval      time.Duration
	PricePollInterval time.Duration
	Concurrency       int
	RequestTimeout    time.Duration
	HistoryDays       int
}

// Collector polls the post supplies per ticker, scores the posts, and
// pushes the resulting sentiment observations through the ingest
// pipeline. Price history is fetched on a slower cadence and handed
// to the processor directly; daily bars arrive already clean.
type Collector struct {
	supplies []drepo.PostSupply
	prices   drepo.PriceSupply
	scorer   domsvc.SentimentScorer
	proc     *ObservationProcessor
	pipe     *mid.IngestPipeline
	metrics  drepo.Metrics
	logger   *applogger.Logger
	cfg      CollectorConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	// lastPolled marks the end of the last post window per ticker so
	// consecutive polls do not rescore the same posts.
	lastPolled map[string]time.Time
}

// NewCollector creates a poll-based collector.
func NewCollector(
	supplies []drepo.PostSupply,
	prices drepo.PriceSupply,
	scorer domsvc.SentimentScorer,
	proc *ObservationProcessor,
	pipe *mid.IngestPipeline,
	metrics drepo.Metrics,
	lgr *applogger.Logger,
	cfg CollectorConfig,
) *Collector {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Minute
	}
	if cfg.PricePollInterval <= 0 {
		cfg.PricePollInterval = time.Hour
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 30
	}
	return &Collector{
		supplies:   supplies,
		prices:     prices,
		scorer:     scorer,
		proc:       proc,
		pipe:       pipe,
		metrics:    metrics,
		logger:     lgr,
		cfg:        cfg,
		lastPolled: make(map[string]time.Time),
	}
}

// Start launches the poll loops. It returns immediately; polling runs
// until Shutdown or context cancellation.
func (c *Collector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}

	c.wg.Add(2)
	go c.pollPosts(ctx)
	go c.pollPrices(ctx)
	return nil
}

func (c *Collector) pollPosts(ctx context.Context) {
	defer c.wg.Done()

	// First round immediately, then on the tick.
	c.collectAllPosts(ctx)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectAllPosts(ctx)
		}
	}
}

func (c *Collector) pollPrices(ctx context.Context) {
	defer c.wg.Done()

	c.collectAllPrices(ctx)
	ticker := time.NewTicker(c.cfg.PricePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectAllPrices(ctx)
		}
	}
}

// collectAllPosts fans out per ticker with a bounded semaphore.
func (c *Collector) collectAllPosts(ctx context.Context) {
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, t := range c.cfg.Tickers {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()
			c.collectTickerPosts(ctx, ticker)
		}(t)
	}
	wg.Wait()
}

func (c *Collector) collectTickerPosts(ctx context.Context, ticker string) {
	now := time.Now().UTC()
	from := c.windowStart(ticker, now)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var all []models.Post
	for _, supply := range c.supplies {
		posts, err := supply.FetchPosts(ctx, ticker, from, now)
		if err != nil {
			c.metrics.RecordError("fetch_posts_" + supply.Name())
			c.logger.Warn("post fetch failed",
				applogger.String("supply", supply.Name()),
				applogger.String("ticker", ticker),
				applogger.Error(err))
			continue
		}
		all = append(all, posts...)
	}
	if len(all) == 0 {
		c.markPolled(ticker, now)
		return
	}

	scored := make([]models.ScoredPost, 0, len(all))
	for _, post := range all {
		score, err := c.scorer.Score(ctx, post.Title+"\n"+post.Body)
		if err != nil {
			c.metrics.RecordError("score")
			c.logger.Warn("scoring failed",
				applogger.String("ticker", ticker),
				applogger.String("post", post.ID),
				applogger.Error(err))
			continue
		}
		sp := models.ScoredPost{Post: post, Sentiment: score, ScoredAt: now}
		scored = append(scored, sp)

		obs := &models.SentimentObservation{
			Ticker:      ticker,
			Timestamp:   post.CreatedAt,
			Score:       score,
			SourceCount: 1,
		}
		if err := c.pipe.Process(ctx, obs); err != nil {
			c.logger.Warn("ingest failed",
				applogger.String("ticker", ticker),
				applogger.Error(err))
		}
	}

	if err := c.proc.StoreScoredPosts(ctx, scored); err != nil {
		c.logger.Warn("scored post store failed",
			applogger.String("ticker", ticker),
			applogger.Error(err))
	}

	c.markPolled(ticker, now)
	c.logger.Info("ticker posts collected",
		applogger.String("ticker", ticker),
		applogger.Int("posts", len(all)),
		applogger.Int("scored", len(scored)))
}

func (c *Collector) collectAllPrices(ctx context.Context) {
	for _, ticker := range c.cfg.Tickers {
		select {
		case <-ctx.Done():
			return
		default:
		}
		func() {
			ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
			defer cancel()

			bars, err := c.prices.FetchDailyHistory(ctx, ticker, c.cfg.HistoryDays)
			if err != nil {
				c.metrics.RecordError("fetch_prices")
				c.logger.Warn("price fetch failed",
					applogger.String("ticker", ticker),
					applogger.Error(err))
				return
			}
			obs := make([]*models.PriceObservation, len(bars))
			for i := range bars {
				obs[i] = &bars[i]
			}
			if err := c.proc.ProcessPrices(ctx, obs); err != nil {
				c.logger.Warn("price process failed",
					applogger.String("ticker", ticker),
					applogger.Error(err))
				return
			}
			for _, o := range bars {
				c.metrics.RecordObservation("price", o.Ticker)
			}
			c.logger.Info("ticker prices collected",
				applogger.String("ticker", ticker),
				applogger.Int("bars", len(bars)))
		}()
	}
}

// windowStart returns where the next post window begins: the end of
// the previous poll, or one poll interval back on the first round.
func (c *Collector) windowStart(ticker string, now time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.lastPolled[ticker]; ok {
		return last
	}
	return now.Add(-c.cfg.PollInterval)
}

func (c *Collector) markPolled(ticker string, t time.Time) {
	c.mu.Lock()
	c.lastPolled[ticker] = t
	c.mu.Unlock()
}

// Processor returns the underlying processor for lifecycle management.
func (c *Collector) Processor() *ObservationProcessor { return c.proc }

// Shutdown stops the poll loops and the pipeline and waits for
// in-flight rounds to finish.
func (c *Collector) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pipe != nil {
		c.pipe.Stop()
	}

	done := make(chan struct{})
	go func() { c.wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
