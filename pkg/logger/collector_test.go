package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
	fail    error
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	batch, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return errors.New("unexpected payload type")
	}
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, batch)
	return nil
}

func (p *capturePublisher) snapshot() [][]AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]AggregatedLogEntry, len(p.batches))
	copy(out, p.batches)
	return out
}

func TestCollectorDeduplicatesAndFlushesOnThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs.aggregated",
		Publisher:      pub,
	})
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.AddLog("error", "fetch failed", map[string]interface{}{"ticker": "AAPL"}, "collector.go:10")
	}
	if got := pub.snapshot(); len(got) != 0 {
		t.Fatalf("flushed %d batches before reaching threshold", len(got))
	}

	// A second distinct entry reaches the threshold and flushes.
	c.AddLog("warn", "slow response", nil, "client.go:42")

	deadline := time.Now().Add(2 * time.Second)
	var batches [][]AggregatedLogEntry
	for time.Now().Before(deadline) {
		if batches = pub.snapshot(); len(batches) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	if len(batches[0]) != 2 {
		t.Fatalf("batch has %d entries, want 2", len(batches[0]))
	}
	for _, e := range batches[0] {
		if e.Message == "fetch failed" && e.Count != 3 {
			t.Errorf("repeated entry Count = %d, want 3", e.Count)
		}
		if e.Message == "slow response" && e.Count != 1 {
			t.Errorf("distinct entry Count = %d, want 1", e.Count)
		}
	}
}

func TestCollectorCloseFlushesPendingEntries(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs.aggregated",
		Publisher:      pub,
	})

	c.AddLog("error", "write failed", nil, "store.go:77")
	c.Close()

	// Close waits for the in-flight publish, so no polling needed.
	batches := pub.snapshot()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("batches after Close = %v, want one batch with one entry", batches)
	}
	if batches[0][0].Message != "write failed" {
		t.Errorf("Message = %q", batches[0][0].Message)
	}
}

func TestCollectorPublisherFailureIsNonFatal(t *testing.T) {
	pub := &capturePublisher{fail: errors.New("queue down")}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 1,
		Topic:          "logs.aggregated",
		Publisher:      pub,
	})

	c.AddLog("error", "anything", nil, "x.go:1")
	c.Close()
}

func TestEntryKeyDistinguishesFields(t *testing.T) {
	a := entryKey("error", "fetch failed", map[string]interface{}{"ticker": "AAPL"}, "c.go:1")
	b := entryKey("error", "fetch failed", map[string]interface{}{"ticker": "TSLA"}, "c.go:1")
	if a == b {
		t.Fatal("entries with different fields share a key")
	}
	if a != entryKey("error", "fetch failed", map[string]interface{}{"ticker": "AAPL"}, "c.go:1") {
		t.Fatal("identical entries hash differently")
	}
}
