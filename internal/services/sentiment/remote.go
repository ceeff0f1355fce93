package sentiment

import (
	"context"
	"fmt"
	"time"

	"SentiPull/internal/domain/service"
	xhttp "SentiPull/pkg/http"
)

// RemoteScorer delegates scoring to an external model service over
// HTTP. Wired in when scoring_service_url is configured; the lexicon
// analyzer stays the default.
type RemoteScorer struct {
	baseURL string
	client  *xhttp.Client
}

// NewRemoteScorer builds the HTTP scorer against baseURL.
func NewRemoteScorer(baseURL string, timeout time.Duration) *RemoteScorer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RemoteScorer{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (s *RemoteScorer) Name() string { return "remote" }

type scoreReq struct {
	Text string `json:"text"`
}

type scoreResp struct {
	Score float64 `json:"score"`
}

// Score posts the text to the scoring service, retrying transient
// failures a few times before giving up.
func (s *RemoteScorer) Score(ctx context.Context, text string) (float64, error) {
	if s.baseURL == "" {
		return 0, fmt.Errorf("scoring service url not configured")
	}

	var out scoreResp
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = s.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     s.baseURL + "/score",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    scoreReq{Text: text},
		}, &out)
		if err == nil {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("post score: %w", err)
	}
	if out.Score < -1 || out.Score > 1 {
		return 0, fmt.Errorf("remote score %v outside [-1, 1]", out.Score)
	}
	return out.Score, nil
}

var _ service.SentimentScorer = (*RemoteScorer)(nil)
