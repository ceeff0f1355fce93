package reddit

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

func tokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Method != http.MethodPost {
			t.Errorf("token method = %q, want POST", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`)
	}))
}

func listingBody(created ...int64) string {
	children := ""
	for i, ts := range created {
		if i > 0 {
			children += ","
		}
		children += fmt.Sprintf(`{"data":{"name":"t3_%d","title":"AAPL beats estimates","selftext":"solid numbers","author":"u%d","subreddit":"stocks","permalink":"/r/stocks/%d","score":42,"num_comments":7,"created_utc":%d}}`, i, i, i, ts)
	}
	return fmt.Sprintf(`{"data":{"children":[%s]}}`, children)
}

func TestFetchPosts(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	from := now.Add(-24 * time.Hour)
	inside := now.Add(-2 * time.Hour).Unix()
	outside := now.Add(-48 * time.Hour).Unix()

	var tokenCalls int32
	tok := tokenServer(t, &tokenCalls)
	defer tok.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/stocks+investing/search" {
			t.Errorf("path = %q, want /r/stocks+investing/search", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "bearer tok-1" {
			t.Errorf("authorization = %q, want bearer tok-1", got)
		}
		if got := r.Header.Get("User-Agent"); got != "test/1.0" {
			t.Errorf("user-agent = %q, want test/1.0", got)
		}
		if got := r.URL.Query().Get("q"); got != "AAPL stock" {
			t.Errorf("q = %q, want %q", got, "AAPL stock")
		}
		if got := r.URL.Query().Get("t"); got != "day" {
			t.Errorf("t = %q, want day", got)
		}
		fmt.Fprint(w, listingBody(inside, outside))
	}))
	defer api.Close()

	c := New("id", "secret", "test/1.0", testLogger(t),
		WithBaseURL(api.URL),
		WithTokenURL(tok.URL),
		WithSubreddits([]string{"stocks", "investing"}),
	)

	posts, err := c.FetchPosts(context.Background(), "AAPL", from, now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1 (out-of-window post dropped)", len(posts))
	}
	p := posts[0]
	if p.Ticker != "AAPL" || p.Source != "reddit/stocks" || p.Author != "u0" {
		t.Fatalf("post = %+v", p)
	}
	if p.Upvotes != 42 || p.NumComments != 7 {
		t.Fatalf("upvotes = %d comments = %d, want 42 and 7", p.Upvotes, p.NumComments)
	}
}

func TestFetchPostsCachesToken(t *testing.T) {
	var tokenCalls int32
	tok := tokenServer(t, &tokenCalls)
	defer tok.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingBody())
	}))
	defer api.Close()

	c := New("id", "secret", "test/1.0", testLogger(t),
		WithBaseURL(api.URL), WithTokenURL(tok.URL))

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if _, err := c.FetchPosts(context.Background(), "TSLA", now.Add(-time.Hour), now); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&tokenCalls); n != 1 {
		t.Fatalf("token calls = %d, want 1 (token cached)", n)
	}
}

func TestFetchPostsRefreshesTokenOn401(t *testing.T) {
	var tokenCalls int32
	tok := tokenServer(t, &tokenCalls)
	defer tok.Close()

	var apiCalls int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&apiCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, listingBody())
	}))
	defer api.Close()

	c := New("id", "secret", "test/1.0", testLogger(t),
		WithBaseURL(api.URL), WithTokenURL(tok.URL),
		WithRetries(2, 5*time.Millisecond))

	now := time.Now().UTC()
	if _, err := c.FetchPosts(context.Background(), "NVDA", now.Add(-time.Hour), now); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if n := atomic.LoadInt32(&apiCalls); n != 2 {
		t.Fatalf("api calls = %d, want 2", n)
	}
	if n := atomic.LoadInt32(&tokenCalls); n != 2 {
		t.Fatalf("token calls = %d, want 2 (401 clears the cache)", n)
	}
}

func TestFetchPostsDoesNotRetryForbidden(t *testing.T) {
	var tokenCalls int32
	tok := tokenServer(t, &tokenCalls)
	defer tok.Close()

	var apiCalls int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer api.Close()

	c := New("id", "secret", "test/1.0", testLogger(t),
		WithBaseURL(api.URL), WithTokenURL(tok.URL),
		WithRetries(3, 5*time.Millisecond))

	now := time.Now().UTC()
	if _, err := c.FetchPosts(context.Background(), "AAPL", now.Add(-time.Hour), now); err == nil {
		t.Fatal("expected error for 403")
	}
	if n := atomic.LoadInt32(&apiCalls); n != 1 {
		t.Fatalf("api calls = %d, want 1 (403 is not retryable)", n)
	}
}

func TestSearchWindow(t *testing.T) {
	now := time.Now()
	cases := []struct {
		age  time.Duration
		want string
	}{
		{2 * time.Hour, "day"},
		// A span of exactly 24h must stay "day" no matter how long
		// after the bounds were computed the request is built.
		{24 * time.Hour, "day"},
		{3 * 24 * time.Hour, "week"},
		{20 * 24 * time.Hour, "month"},
		{90 * 24 * time.Hour, "year"},
	}
	for _, tc := range cases {
		if got := searchWindow(now.Add(-tc.age), now); got != tc.want {
			t.Errorf("searchWindow(-%v) = %q, want %q", tc.age, got, tc.want)
		}
	}
}
