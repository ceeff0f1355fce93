package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	applogger "SentiPull/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func chartBody(ticker string, ts []int64, closes []string) string {
	tsJSON := ""
	for i, v := range ts {
		if i > 0 {
			tsJSON += ","
		}
		tsJSON += fmt.Sprintf("%d", v)
	}
	clJSON := ""
	for i, v := range closes {
		if i > 0 {
			clJSON += ","
		}
		clJSON += v
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":%q},"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`, ticker, tsJSON, clJSON)
}

func TestFetchDailyHistory(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path = %q, want /v8/finance/chart/AAPL", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %q, want 1d", got)
		}
		if got := r.URL.Query().Get("range"); got != "5d" {
			t.Errorf("range = %q, want 5d", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chartBody("AAPL",
			[]int64{base, base + day, base + 2*day},
			[]string{"185.1", "187.4", "186.0"}))
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	bars, err := c.FetchDailyHistory(context.Background(), "AAPL", 5)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(bars))
	}
	if bars[0].Close != 185.1 || bars[2].Close != 186.0 {
		t.Fatalf("closes = %v, %v, want 185.1, 186.0", bars[0].Close, bars[2].Close)
	}
	if !bars[1].Timestamp.Equal(time.Unix(base+day, 0).UTC()) {
		t.Fatalf("timestamp = %v, want %v", bars[1].Timestamp, time.Unix(base+day, 0).UTC())
	}
	if bars[0].Ticker != "AAPL" {
		t.Fatalf("ticker = %q, want AAPL", bars[0].Ticker)
	}
}

func TestFetchDailyHistorySkipsNullCloses(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody("TSLA",
			[]int64{base, base + 86400, base + 2*86400},
			[]string{"200.5", "null", "204.2"}))
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	bars, err := c.FetchDailyHistory(context.Background(), "TSLA", 3)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2 (null close dropped)", len(bars))
	}
	if bars[1].Close != 204.2 {
		t.Fatalf("second close = %v, want 204.2", bars[1].Close)
	}
}

func TestFetchDailyHistoryChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL))
	if _, err := c.FetchDailyHistory(context.Background(), "NOPE", 5); err == nil {
		t.Fatal("expected error for chart-level error payload")
	}
}

func TestFetchDailyHistoryRetriesServerError(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chartBody("NVDA", []int64{base}, []string{"890.0"}))
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL), WithRetries(2, 5*time.Millisecond))
	bars, err := c.FetchDailyHistory(context.Background(), "NVDA", 1)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1", len(bars))
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestFetchDailyHistoryDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testLogger(t), WithBaseURL(srv.URL), WithRetries(3, 5*time.Millisecond))
	if _, err := c.FetchDailyHistory(context.Background(), "AAPL", 5); err == nil {
		t.Fatal("expected error for 404")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1 (404 is not retryable)", n)
	}
}

func TestFetchDailyHistoryRequiresTicker(t *testing.T) {
	c := New(testLogger(t))
	if _, err := c.FetchDailyHistory(context.Background(), "", 5); err == nil {
		t.Fatal("expected error for empty ticker")
	}
}
