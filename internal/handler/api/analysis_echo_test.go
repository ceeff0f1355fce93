package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"SentiPull/internal/domain/models"
	icache "SentiPull/internal/service/cache"
	"SentiPull/internal/services/correlation"
	"SentiPull/internal/services/features"
	"SentiPull/internal/usecase"
	pkgcache "SentiPull/pkg/cache"
	applogger "SentiPull/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordObservation(kind, ticker string)        {}
func (nopMetrics) RecordMessageSent(backend, ticker string)     {}
func (nopMetrics) RecordError(kind string)                      {}
func (nopMetrics) RecordLastScore(ticker string, score float64) {}
func (nopMetrics) RecordLastClose(ticker string, price float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}

type fakeStore struct {
	sentiments []models.SentimentObservation
	prices     []models.PriceObservation
	posts      []models.ScoredPost
}

func (f *fakeStore) GetSentiments(ctx context.Context, ticker string, from, to time.Time) ([]models.SentimentObservation, error) {
	return f.sentiments, nil
}

func (f *fakeStore) GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	return f.prices, nil
}

func (f *fakeStore) GetRecentPosts(ctx context.Context, ticker string, limit int) ([]models.ScoredPost, error) {
	return f.posts, nil
}

func seededStore(ticker string, days int) *fakeStore {
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)
	f := &fakeStore{}
	closePrice := 100.0
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		f.sentiments = append(f.sentiments, models.SentimentObservation{
			Ticker: ticker, Timestamp: day.Add(12 * time.Hour),
			Score: 0.1 * float64(i+1), SourceCount: 2,
		})
		f.prices = append(f.prices, models.PriceObservation{
			Ticker: ticker, Timestamp: day, Close: closePrice,
		})
		closePrice *= 1 + 0.01*float64(i+1)
	}
	return f
}

func newTestHandler(t *testing.T, store *fakeStore) (*echo.Echo, *AnalysisHandler) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	analysis := usecase.NewAnalysisUseCase(store, correlation.DefaultConfig(), features.DefaultSummaryConfig(), nopMetrics{})
	overview := usecase.NewOverviewUseCase(analysis)
	h := NewAnalysisHandler(l, analysis, overview)
	h.SetCache(icache.NewTTLCache())

	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func doGET(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestHandler(t, &fakeStore{})
	rec := doGET(e, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCorrelationEndpoint(t *testing.T) {
	e, _ := newTestHandler(t, seededStore("AAPL", 8))

	rec := doGET(e, "/api/correlation?ticker=aapl&days=10&interval=1d")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status int `json:"status"`
		Data   struct {
			Result models.CorrelationResult `json:"result"`
			Pairs  []models.AlignedPair     `json:"pairs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Result.Ticker != "AAPL" {
		t.Fatalf("ticker = %q, want AAPL (normalized)", envelope.Data.Result.Ticker)
	}
	if envelope.Data.Result.Trend != models.TrendBullish {
		t.Fatalf("trend = %q, want bullish", envelope.Data.Result.Trend)
	}
	if len(envelope.Data.Pairs) == 0 {
		t.Fatal("pairs missing from report")
	}
}

func TestCorrelationEndpointCachesResponse(t *testing.T) {
	store := seededStore("AAPL", 8)
	e, _ := newTestHandler(t, store)

	first := doGET(e, "/api/correlation?ticker=AAPL&days=10")
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	// A second identical request must not recompute: drop the backing
	// data and expect the cached payload.
	store.sentiments = nil
	store.prices = nil

	second := doGET(e, "/api/correlation?ticker=AAPL&days=10")
	if second.Code != http.StatusOK {
		t.Fatalf("second status = %d, body %s", second.Code, second.Body.String())
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("cached response differs from original")
	}
}

func TestCorrelationEndpointEmptySeriesIs400(t *testing.T) {
	e, _ := newTestHandler(t, &fakeStore{})

	rec := doGET(e, "/api/correlation?ticker=AAPL")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ERR_INVALID_INPUT") {
		t.Fatalf("body = %s, want ERR_INVALID_INPUT code", rec.Body.String())
	}
}

func TestCorrelationEndpointRequiresTicker(t *testing.T) {
	e, _ := newTestHandler(t, &fakeStore{})

	rec := doGET(e, "/api/correlation")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCorrelationEndpointRejectsBadInterval(t *testing.T) {
	e, _ := newTestHandler(t, seededStore("AAPL", 8))

	rec := doGET(e, "/api/correlation?ticker=AAPL&interval=7m")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	e, _ := newTestHandler(t, seededStore("TSLA", 5))

	rec := doGET(e, "/api/summary?ticker=TSLA&days=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.SentimentSummary `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Observations != 5 {
		t.Fatalf("observations = %d, want 5", envelope.Data.Observations)
	}
}

func TestPostsEndpoint(t *testing.T) {
	store := &fakeStore{posts: []models.ScoredPost{
		{Post: models.Post{ID: "t3_a", Ticker: "AAPL"}, Sentiment: 0.4},
		{Post: models.Post{ID: "t3_b", Ticker: "AAPL"}, Sentiment: -0.1},
	}}
	e, _ := newTestHandler(t, store)

	rec := doGET(e, "/api/posts?ticker=AAPL&limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Rows  []models.ScoredPost `json:"rows"`
			Total int64               `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Total != 2 || len(envelope.Data.Rows) != 2 {
		t.Fatalf("total = %d rows = %d, want 2/2", envelope.Data.Total, len(envelope.Data.Rows))
	}
}

func TestOverviewEndpointServesWarmedCopy(t *testing.T) {
	e, h := newTestHandler(t, &fakeStore{})

	results := pkgcache.NewMemoryCache()
	warmed := &models.TickerOverview{
		Ticker:      "AAPL",
		GeneratedAt: time.Now().UTC(),
		Summary:     &models.SentimentSummary{Ticker: "AAPL", Trend: models.TrendBullish},
	}
	if err := results.Set(context.Background(), usecase.OverviewCacheKey("AAPL"), warmed, time.Minute); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	h.SetResultCache(results)

	// The store is empty, so a recompute would 400; the warmed copy
	// must answer instead.
	rec := doGET(e, "/api/overview?ticker=AAPL")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"bullish"`) {
		t.Fatalf("body = %s, want warmed summary", rec.Body.String())
	}
}

func TestOverviewEndpointComputesOnCacheMiss(t *testing.T) {
	e, h := newTestHandler(t, seededStore("NVDA", 8))
	h.SetResultCache(pkgcache.NewMemoryCache())

	rec := doGET(e, "/api/overview?ticker=NVDA&days=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.TickerOverview `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Correlation == nil || envelope.Data.Summary == nil {
		t.Fatalf("overview sections missing: %+v", envelope.Data)
	}
}
