package features

import (
	"math"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
)

func obsAt(score float64) models.SentimentObservation {
	return models.SentimentObservation{
		Ticker:      "AAPL",
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Score:       score,
		SourceCount: 1,
	}
}

func TestSummarizeCountsAndAverage(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	obs := []models.SentimentObservation{
		obsAt(0.8), obsAt(0.3), obsAt(0.01), obsAt(-0.02), obsAt(-0.4),
	}

	s := Summarize("AAPL", obs, from, to, DefaultSummaryConfig())

	if s.Observations != 5 {
		t.Fatalf("observations = %d, want 5", s.Observations)
	}
	if s.PositiveCount != 2 || s.NegativeCount != 1 || s.NeutralCount != 2 {
		t.Fatalf("counts = +%d/-%d/=%d, want +2/-1/=2",
			s.PositiveCount, s.NegativeCount, s.NeutralCount)
	}
	wantAvg := (0.8 + 0.3 + 0.01 - 0.02 - 0.4) / 5
	if math.Abs(s.AverageScore-wantAvg) > 1e-12 {
		t.Fatalf("average = %v, want %v", s.AverageScore, wantAvg)
	}
	if !s.WindowStart.Equal(from) || !s.WindowEnd.Equal(to) {
		t.Fatalf("window = [%v, %v], want [%v, %v]", s.WindowStart, s.WindowEnd, from, to)
	}
}

func TestSummarizeEmptySeries(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize("TSLA", nil, from, from.Add(time.Hour), DefaultSummaryConfig())

	if s.Trend != models.TrendInsufficientData {
		t.Fatalf("trend = %q, want %q", s.Trend, models.TrendInsufficientData)
	}
	if s.Observations != 0 || s.AverageScore != 0 {
		t.Fatalf("observations = %d average = %v, want zeros", s.Observations, s.AverageScore)
	}
}

func TestSummarizeCutoffBoundaries(t *testing.T) {
	cfg := DefaultSummaryConfig()
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Exactly at the cutoffs classifies as positive/negative, not neutral.
	s := Summarize("AAPL", []models.SentimentObservation{
		obsAt(cfg.PositiveCutoff), obsAt(cfg.NegativeCutoff),
	}, from, from.Add(time.Hour), cfg)

	if s.PositiveCount != 1 || s.NegativeCount != 1 || s.NeutralCount != 0 {
		t.Fatalf("counts = +%d/-%d/=%d, want +1/-1/=0",
			s.PositiveCount, s.NegativeCount, s.NeutralCount)
	}
}

func TestClassifyAverage(t *testing.T) {
	cfg := DefaultSummaryConfig()
	cases := []struct {
		avg  float64
		want models.TrendLabel
	}{
		{0.5, models.TrendBullish},
		{0.2, models.TrendBullish},
		{0.19, models.TrendNeutral},
		{0.0, models.TrendNeutral},
		{-0.19, models.TrendNeutral},
		{-0.2, models.TrendBearish},
		{-0.7, models.TrendBearish},
	}
	for _, tc := range cases {
		if got := ClassifyAverage(tc.avg, cfg); got != tc.want {
			t.Errorf("ClassifyAverage(%v) = %q, want %q", tc.avg, got, tc.want)
		}
	}
}
