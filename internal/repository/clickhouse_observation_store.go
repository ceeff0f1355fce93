package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	pkgch "SentiPull/pkg/clickhouse"
	applogger "SentiPull/pkg/logger"
)

// CHObservationStore implements ObservationStore backed by ClickHouse.
type CHObservationStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHObservationStore(ch *pkgch.Client, database string) *CHObservationStore {
	return &CHObservationStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHObservationStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHObservationStore) GetSentiments(ctx context.Context, ticker string, from, to time.Time) ([]models.SentimentObservation, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s.%s
        WHERE ticker = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, strings.Join(SentimentColumns, ", "), s.database, tableSentiments)
	rows, err := s.db.QueryContext(ctx, q, ticker, from.UTC(), to.UTC())
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_sentiments query error",
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get sentiments: %w", err)
	}
	defer rows.Close()

	out := make([]models.SentimentObservation, 0, 256)
	for rows.Next() {
		var o models.SentimentObservation
		var ts time.Time
		var count uint32
		if err := rows.Scan(&ts, &o.Ticker, &o.Score, &count); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_sentiments scan error",
					applogger.String("ticker", ticker),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		o.Timestamp = ts.UTC()
		o.SourceCount = int(count)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_sentiments ok",
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHObservationStore) GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	start := time.Now()
	// FINAL collapses the re-fetched duplicates of the same trading day.
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s.%s FINAL
        WHERE ticker = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, strings.Join(PriceColumns, ", "), s.database, tablePrices)
	rows, err := s.db.QueryContext(ctx, q, ticker, from.UTC(), to.UTC())
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_prices query error",
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, 64)
	for rows.Next() {
		var o models.PriceObservation
		var ts time.Time
		if err := rows.Scan(&ts, &o.Ticker, &o.Close); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_prices scan error",
					applogger.String("ticker", ticker),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan price: %w", err)
		}
		o.Timestamp = ts.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_prices ok",
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHObservationStore) GetRecentPosts(ctx context.Context, ticker string, limit int) ([]models.ScoredPost, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s.%s
        WHERE ticker = ?
        ORDER BY created_at DESC
        LIMIT ?
    `, strings.Join(ScoredPostsColumns, ", "), s.database, tableScoredPosts)
	rows, err := s.db.QueryContext(ctx, q, ticker, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_posts query error",
				applogger.String("ticker", ticker),
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	defer rows.Close()

	out := make([]models.ScoredPost, 0, limit)
	for rows.Next() {
		var p models.ScoredPost
		var created time.Time
		var upvotes, comments int32
		if err := rows.Scan(&p.ID, &p.Ticker, &p.Source, &p.Title, &p.Body, &p.Author, &p.URL, &upvotes, &comments, &created, &p.Sentiment); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse recent_posts scan error",
					applogger.String("ticker", ticker),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan scored post: %w", err)
		}
		p.Upvotes = int(upvotes)
		p.NumComments = int(comments)
		p.CreatedAt = created.UTC()
		p.ScoredAt = p.CreatedAt
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse recent_posts ok",
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.ObservationStore = (*CHObservationStore)(nil)
