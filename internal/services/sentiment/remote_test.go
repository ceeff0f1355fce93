package sentiment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRemoteScorerScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want %q", r.Method, http.MethodPost)
		}
		if r.URL.Path != "/score" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/score")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"score": 0.42}`))
	}))
	defer srv.Close()

	s := NewRemoteScorer(srv.URL, 2*time.Second)
	got, err := s.Score(context.Background(), "solid quarter")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != 0.42 {
		t.Fatalf("score = %v, want 0.42", got)
	}
}

func TestRemoteScorerRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"score": -0.3}`))
	}))
	defer srv.Close()

	s := NewRemoteScorer(srv.URL, 2*time.Second)
	got, err := s.Score(context.Background(), "bad quarter")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != -0.3 {
		t.Fatalf("score = %v, want -0.3", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestRemoteScorerRejectsOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score": 3.5}`))
	}))
	defer srv.Close()

	s := NewRemoteScorer(srv.URL, 2*time.Second)
	if _, err := s.Score(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for out-of-range score")
	}
}

func TestRemoteScorerRequiresURL(t *testing.T) {
	s := NewRemoteScorer("", time.Second)
	if _, err := s.Score(context.Background(), "text"); err == nil {
		t.Fatalf("expected error without base url")
	}
}
