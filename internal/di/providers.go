package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "SentiPull/internal/domain/repository"
	domsvc "SentiPull/internal/domain/service"
	"SentiPull/internal/handler/api"
	mid "SentiPull/internal/middleware"
	internalrepo "SentiPull/internal/repository"
	icache "SentiPull/internal/service/cache"
	"SentiPull/internal/service/newswire"
	"SentiPull/internal/service/reddit"
	"SentiPull/internal/service/yahoo"
	"SentiPull/internal/services/correlation"
	"SentiPull/internal/services/features"
	"SentiPull/internal/services/sentiment"
	"SentiPull/internal/usecase"
	pkgcache "SentiPull/pkg/cache"
	pkgch "SentiPull/pkg/clickhouse"
	"SentiPull/pkg/config"
	xhttp "SentiPull/pkg/http"
	pkgkafka "SentiPull/pkg/kafka"
	applogger "SentiPull/pkg/logger"
	"SentiPull/pkg/metrics"
	"SentiPull/pkg/queue"
	"SentiPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.Username, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, schemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// schemaStatements is the startup DDL. Column order per table must
// match the repository column lists the queries are built from.
func schemaStatements(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sentiment_obs_raw (
			ts DateTime,
			ticker String,
			score Float64,
			source_count UInt32
		) ENGINE = MergeTree ORDER BY (ticker, ts)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.price_bars_1d (
			ts DateTime,
			ticker String,
			close Float64
		) ENGINE = ReplacingMergeTree ORDER BY (ticker, ts)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.scored_posts_raw (
			id String,
			ticker String,
			source String,
			title String,
			body String,
			author String,
			url String,
			upvotes Int32,
			num_comments Int32,
			created_at DateTime,
			sentiment Float64
		) ENGINE = MergeTree ORDER BY (ticker, created_at)`, db),
	}
}

// requiredAcks maps the yaml value onto kafka-go semantics.
func requiredAcks(s string) int {
	switch s {
	case "none":
		return 0
	case "all":
		return -1
	default:
		return 1
	}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the
// backend writes straight to ClickHouse.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(requiredAcks(cfg.Kafka.RequiredAcks)),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the observations consumer, or nil for
// the direct-to-ClickHouse backend.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.MaxRetries, cfg.Kafka.Consumer.RetryBackoff, 10*cfg.Kafka.Consumer.RetryBackoff),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideStorage creates the ClickHouse write repository.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) domrepo.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database)
}

// ProvidePublisher creates the Kafka publisher repository. Nil when
// there is no producer; the processor never touches it then.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideObservationStore creates the ClickHouse read repository.
func ProvideObservationStore(chClient *pkgch.Client, cfg *config.Config, lgr *applogger.Logger) domrepo.ObservationStore {
	store := internalrepo.NewCHObservationStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(lgr)
	return store
}

// ProvideScorer picks the scoring implementation: the remote service
// when configured, otherwise the built-in lexicon.
func ProvideScorer(cfg *config.Config) domsvc.SentimentScorer {
	if cfg.Analysis.ScoringServiceURL != "" {
		return sentiment.NewRemoteScorer(cfg.Analysis.ScoringServiceURL, cfg.Analysis.ScoringTimeout)
	}
	return sentiment.NewAnalyzer()
}

// ProvidePostSupplies assembles the post sources. Reddit is always on
// when the collector runs; the newswire scraper is opt-in.
func ProvidePostSupplies(cfg *config.Config, lgr *applogger.Logger) []domrepo.PostSupply {
	if !cfg.Collector.Enabled {
		return nil
	}

	rd := reddit.New(
		cfg.Reddit.ClientID,
		cfg.Reddit.ClientSecret,
		cfg.Reddit.UserAgent,
		lgr,
		reddit.WithBaseURL(cfg.Reddit.BaseURL),
		reddit.WithTokenURL(cfg.Reddit.TokenURL),
		reddit.WithSubreddits(cfg.Reddit.Subreddits),
		reddit.WithQueryTemplate(cfg.Reddit.QueryTemplate),
		reddit.WithPostLimit(cfg.Reddit.PostLimit),
		reddit.WithTimeout(cfg.Reddit.Timeout),
		reddit.WithRetries(cfg.Reddit.MaxRetries, cfg.Reddit.RetryBackoff),
	)
	supplies := []domrepo.PostSupply{rd}

	if cfg.Newswire.Enabled {
		supplies = append(supplies, newswire.NewScraper(lgr,
			newswire.WithTimeout(cfg.Newswire.Timeout),
			newswire.WithMaxHeadlines(cfg.Newswire.MaxHeadlines),
		))
	}
	return supplies
}

// ProvidePriceSupply creates the daily bars source.
func ProvidePriceSupply(cfg *config.Config, lgr *applogger.Logger) domrepo.PriceSupply {
	opts := []yahoo.Option{
		yahoo.WithTimeout(cfg.MarketData.Timeout),
		yahoo.WithRetries(cfg.MarketData.MaxRetries, cfg.MarketData.RetryBackoff),
	}
	if cfg.MarketData.BaseURL != "" {
		opts = append(opts, yahoo.WithBaseURL(cfg.MarketData.BaseURL))
	}
	return yahoo.New(lgr, opts...)
}

// ProvideProcessor creates the observation processor.
func ProvideProcessor(
	pub domrepo.Publisher,
	store domrepo.Storage,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideCollector creates the poll collector with its ingest
// pipeline, or nil when collection is disabled.
func ProvideCollector(
	supplies []domrepo.PostSupply,
	prices domrepo.PriceSupply,
	scorer domsvc.SentimentScorer,
	proc *usecase.ObservationProcessor,
	m domrepo.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.Collector {
	if !cfg.Collector.Enabled {
		return nil
	}
	pipe := mid.NewIngestPipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewCollector(supplies, prices, scorer, proc, pipe, m, lgr, usecase.CollectorConfig{
		Tickers:           cfg.Collector.Tickers,
		PollInterval:      cfg.Collector.PollInterval,
		PricePollInterval: cfg.Collector.PricePollInterval,
		Concurrency:       cfg.Collector.Concurrency,
		RequestTimeout:    cfg.Collector.RequestTimeout,
		HistoryDays:       cfg.MarketData.HistoryDays,
	})
}

// ProvideAnalysisUseCase creates the read-side analysis use case.
func ProvideAnalysisUseCase(store domrepo.ObservationStore, m domrepo.Metrics, cfg *config.Config) *usecase.AnalysisUseCase {
	corrCfg := correlation.Config{
		BucketInterval:   cfg.Analysis.BucketInterval,
		MinSampleSize:    cfg.Analysis.MinSampleSize,
		BullishThreshold: cfg.Analysis.BullishThreshold,
		BearishThreshold: cfg.Analysis.BearishThreshold,
	}
	summaryCfg := features.SummaryConfig{
		PositiveCutoff: cfg.Analysis.Summary.PositiveCutoff,
		NegativeCutoff: cfg.Analysis.Summary.NegativeCutoff,
		BullishAverage: cfg.Analysis.Summary.BullishAverage,
		BearishAverage: cfg.Analysis.Summary.BearishAverage,
	}
	if summaryCfg.PositiveCutoff == 0 && summaryCfg.NegativeCutoff == 0 {
		summaryCfg = features.DefaultSummaryConfig()
	}
	return usecase.NewAnalysisUseCase(store, corrCfg, summaryCfg, m)
}

// ProvideOverviewUseCase creates the overview fan-out.
func ProvideOverviewUseCase(analysis *usecase.AnalysisUseCase) *usecase.OverviewUseCase {
	return usecase.NewOverviewUseCase(analysis)
}

// ProvideObservationsHandler registers the handler for the observations topic.
func ProvideObservationsHandler(store domrepo.Storage, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideResultCache creates the refresh-warmed result cache. With
// Redis configured it layers memory over Redis, otherwise memory only.
func ProvideResultCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Redis.Addr == "" {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideQueue creates the Redis refresh queue with its job
// registered, or nil when the queue is disabled.
func ProvideQueue(
	cfg *config.Config,
	lgr *applogger.Logger,
	overview *usecase.OverviewUseCase,
	results pkgcache.Service,
) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	job := usecase.NewRefreshJob(overview, results, cfg.Cache.ResultTTL, lgr)
	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  1000,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client)
	q.RegisterJob(job)
	q.RegisterJob(usecase.NewLogDigestJob(lgr))

	// Warn/error entries aggregate onto the queue so repeated failures
	// show up as one counted digest instead of a flood.
	lgr.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          usecase.LogDigestMessageType,
		Publisher:      q,
	})
	return q
}

// ProvideScheduler creates the periodic refresh scheduler, or nil
// when there is no queue to feed.
func ProvideScheduler(cfg *config.Config, q *queue.RedisQueue, results pkgcache.Service, lgr *applogger.Logger) *usecase.RefreshScheduler {
	if q == nil {
		return nil
	}
	s := usecase.NewRefreshScheduler(
		q,
		cfg.Collector.Tickers,
		cfg.Analysis.WindowDays,
		domrepo.DefaultInterval(),
		cfg.Queue.RefreshInterval,
		lgr,
	)
	s.SetLocker(results)
	return s
}

// ProvideHTTPHandler wires the API handlers into a single route registrar.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	analysis *usecase.AnalysisUseCase,
	overview *usecase.OverviewUseCase,
	results pkgcache.Service,
	cfg *config.Config,
) xhttp.Handler {
	ah := api.NewAnalysisHandler(lgr, analysis, overview)
	if cfg.Redis.Addr != "" {
		ah.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		ah.SetCache(icache.NewTTLCache())
	}
	ah.SetResultCache(results)
	if cfg.Cache.PostsTTL > 0 {
		ah.SetCacheTTL(cfg.Cache.PostsTTL)
	}

	lh := api.NewLiveHandler(lgr, results)
	return api.NewRouter(ah, lh)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.Collector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	chClient *pkgch.Client,
	q *queue.RedisQueue,
	scheduler *usecase.RefreshScheduler,
	handler xhttp.Handler,
	proc *usecase.ObservationProcessor,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, lgr, collector, consumer, kh, chClient, q, scheduler, proc)
	app.SetHTTPHandler(handler)
	return app
}
