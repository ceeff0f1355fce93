package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SentiPull/internal/domain/models"
	"SentiPull/internal/domain/repository"
	pkgkafka "SentiPull/pkg/kafka"
)

// Write-side tables. The database prefix comes from configuration;
// schema DDL is owned by the DI provider.
const (
	tableSentiments  = "sentiment_obs_raw"
	tablePrices      = "price_bars_1d"
	tableScoredPosts = "scored_posts_raw"
)

// Column orders shared by the writers, the readers, and the schema
// DDL. A drift between the three only surfaces at runtime, so every
// query builds its column list from these.
var (
	SentimentColumns   = []string{"ts", "ticker", "score", "source_count"}
	PriceColumns       = []string{"ts", "ticker", "close"}
	ScoredPostsColumns = []string{"id", "ticker", "source", "title", "body", "author", "url", "upvotes", "num_comments", "created_at", "sentiment"}
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db       *sql.DB
	database string
}

// NewClickHouseStorage creates ClickHouse storage writing into database.
func NewClickHouseStorage(db *sql.DB, database string) repository.Storage {
	return &ClickHouseStorage{db: db, database: database}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// StoreSentiments inserts sentiment observations using multi-row
// VALUES to reduce round-trips. Chunk size tuned to 2000 rows.
func (s *ClickHouseStorage) StoreSentiments(ctx context.Context, obs []*models.SentimentObservation) error {
	if len(obs) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, o := range obs[start:end] {
			if o == nil || o.Ticker == "" || o.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, o.Timestamp.UTC(), o.Ticker, o.Score, uint32(o.SourceCount))
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s",
			s.database, tableSentiments, strings.Join(SentimentColumns, ", "), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store sentiments: %w", err)
		}
	}
	return nil
}

// StorePrices inserts daily close bars. ReplacingMergeTree keyed on
// (ticker, ts) collapses the re-fetches of the same trading day.
func (s *ClickHouseStorage) StorePrices(ctx context.Context, obs []*models.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, o := range obs[start:end] {
			if o == nil || o.Ticker == "" || o.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, o.Timestamp.UTC(), o.Ticker, o.Close)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s",
			s.database, tablePrices, strings.Join(PriceColumns, ", "), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store prices: %w", err)
		}
	}
	return nil
}

// StoreScoredPosts keeps the raw scored posts for the /api/posts view.
func (s *ClickHouseStorage) StoreScoredPosts(ctx context.Context, posts []models.ScoredPost) error {
	if len(posts) == 0 {
		return nil
	}
	const chunkSize = 500
	for start := 0; start < len(posts); start += chunkSize {
		end := start + chunkSize
		if end > len(posts) {
			end = len(posts)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*11)
		for _, p := range posts[start:end] {
			if p.ID == "" || p.Ticker == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				p.ID,
				p.Ticker,
				p.Source,
				p.Title,
				p.Body,
				p.Author,
				p.URL,
				int32(p.Upvotes),
				int32(p.NumComments),
				p.CreatedAt.UTC(),
				p.Sentiment,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s",
			s.database, tableScoredPosts, strings.Join(ScoredPostsColumns, ", "), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store scored posts: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // pool managed by pkg/clickhouse
}

// KafkaPublisher implements Publisher for Kafka. Observations travel
// as a typed envelope; the consumer side decodes by kind.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher on topic.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// ObservationEnvelope is the wire shape on the observations topic.
// Kind is "sentiment" or "price"; price envelopes leave Score and
// SourceCount zero, sentiment envelopes leave Close zero.
type ObservationEnvelope struct {
	Kind        string  `json:"kind"`
	Ticker      string  `json:"ticker"`
	TS          int64   `json:"ts"` // unix seconds, UTC
	Score       float64 `json:"score,omitempty"`
	SourceCount int     `json:"source_count,omitempty"`
	Close       float64 `json:"close,omitempty"`
}

const (
	EnvelopeKindSentiment = "sentiment"
	EnvelopeKindPrice     = "price"
)

func (p *KafkaPublisher) PublishSentiments(ctx context.Context, obs []*models.SentimentObservation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(obs))
	for _, o := range obs {
		if o == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(o.Ticker),
			Value: ObservationEnvelope{
				Kind:        EnvelopeKindSentiment,
				Ticker:      o.Ticker,
				TS:          o.Timestamp.UTC().Unix(),
				Score:       o.Score,
				SourceCount: o.SourceCount,
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) PublishPrices(ctx context.Context, obs []*models.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(obs))
	for _, o := range obs {
		if o == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(o.Ticker),
			Value: ObservationEnvelope{
				Kind:   EnvelopeKindPrice,
				Ticker: o.Ticker,
				TS:     o.Timestamp.UTC().Unix(),
				Close:  o.Close,
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
