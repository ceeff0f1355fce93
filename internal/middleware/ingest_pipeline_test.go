package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
	"SentiPull/internal/services/correlation"
)

type nopMetrics struct{}

func (nopMetrics) RecordObservation(kind, ticker string)        {}
func (nopMetrics) RecordMessageSent(backend, ticker string)     {}
func (nopMetrics) RecordError(kind string)                      {}
func (nopMetrics) RecordLastScore(ticker string, score float64) {}
func (nopMetrics) RecordLastClose(ticker string, price float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}

type fakeProc struct {
	mu   sync.Mutex
	got  []*models.SentimentObservation
	fail error
}

func (f *fakeProc) Process(ctx context.Context, o *models.SentimentObservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.got = append(f.got, o)
	return nil
}

func (f *fakeProc) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func validObs(ticker string) *models.SentimentObservation {
	return &models.SentimentObservation{
		Ticker:      ticker,
		Timestamp:   time.Now().UTC(),
		Score:       0.5,
		SourceCount: 2,
	}
}

func TestPipelineForwardsValidObservation(t *testing.T) {
	proc := &fakeProc{}
	p := NewIngestPipeline(proc, nopMetrics{})

	if err := p.Process(context.Background(), validObs("AAPL")); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream calls = %d, want 1", proc.count())
	}
}

func TestPipelineRejectsMalformedObservation(t *testing.T) {
	proc := &fakeProc{}
	p := NewIngestPipeline(proc, nopMetrics{})

	o := validObs("AAPL")
	o.Score = 1.5
	err := p.Process(context.Background(), o)
	if err == nil {
		t.Fatal("expected error for out-of-range score")
	}
	if !correlation.IsKind(err, correlation.KindMalformedObservation) {
		t.Fatalf("error = %v, want malformed_observation", err)
	}
	if proc.count() != 0 {
		t.Fatalf("downstream calls = %d, want 0", proc.count())
	}
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	proc := &fakeProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	// First observation per ticker passes; an immediate second is dropped.
	if err := p.Process(context.Background(), validObs("AAPL")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := p.Process(context.Background(), validObs("AAPL")); err != nil {
		t.Fatalf("throttled observation should drop silently, got %v", err)
	}
	// A different ticker throttles independently.
	if err := p.Process(context.Background(), validObs("TSLA")); err != nil {
		t.Fatalf("other ticker: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream calls = %d, want 2", proc.count())
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &fakeProc{fail: errors.New("clickhouse unavailable")}
	p := NewIngestPipeline(proc, nopMetrics{}, WithBufferSize(4))

	err := p.Process(context.Background(), validObs("AAPL"))
	if err == nil {
		t.Fatal("expected downstream error to surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffered = %d, want 1", len(p.bufCh))
	}
}

func TestPipelineFlushRetriesBuffered(t *testing.T) {
	proc := &fakeProc{fail: errors.New("transient")}
	p := NewIngestPipeline(proc, nopMetrics{}, WithBufferSize(4))

	_ = p.Process(context.Background(), validObs("AAPL"))

	// Downstream recovers before the flusher drains the buffer.
	proc.mu.Lock()
	proc.fail = nil
	proc.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered observation never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
