package correlation

import (
	"math"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
)

var day1 = time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)

func senti(ticker string, ts time.Time, score float64) models.SentimentObservation {
	return models.SentimentObservation{Ticker: ticker, Timestamp: ts, Score: score, SourceCount: 1}
}

func price(ticker string, ts time.Time, close float64) models.PriceObservation {
	return models.PriceObservation{Ticker: ticker, Timestamp: ts, Close: close}
}

func TestAlignSingleDailyPair(t *testing.T) {
	sentiments := []models.SentimentObservation{
		senti("GME", day1.Add(2*time.Hour), 0.8),
		senti("GME", day1.Add(5*time.Hour), 0.6),
	}
	prices := []models.PriceObservation{
		price("GME", day1, 100),
		price("GME", day1.Add(24*time.Hour), 110),
	}

	pairs, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	p := pairs[0]
	if !p.Bucket.Equal(day1) {
		t.Fatalf("unexpected bucket %v", p.Bucket)
	}
	if math.Abs(p.Sentiment-0.7) > 1e-12 {
		t.Fatalf("unexpected sentiment %v", p.Sentiment)
	}
	if math.Abs(p.Return-0.10) > 1e-12 {
		t.Fatalf("unexpected return %v", p.Return)
	}
	if p.SourceCount != 2 {
		t.Fatalf("unexpected source count %d", p.SourceCount)
	}
}

func TestAlignEmptyInputs(t *testing.T) {
	pairs, err := Align(nil, nil, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}

func TestAlignUnorderedInputs(t *testing.T) {
	sentiments := []models.SentimentObservation{
		senti("GME", day1.Add(30*time.Hour), -0.2),
		senti("GME", day1.Add(2*time.Hour), 0.4),
	}
	prices := []models.PriceObservation{
		price("GME", day1.Add(48*time.Hour), 90),
		price("GME", day1, 100),
		price("GME", day1.Add(24*time.Hour), 110),
	}

	pairs, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if !pairs[0].Bucket.Before(pairs[1].Bucket) {
		t.Fatalf("pairs not ordered: %v then %v", pairs[0].Bucket, pairs[1].Bucket)
	}
}

func TestAlignLastCloseWinsWithinBucket(t *testing.T) {
	sentiments := []models.SentimentObservation{senti("GME", day1.Add(time.Hour), 0.5)}
	prices := []models.PriceObservation{
		price("GME", day1.Add(10*time.Hour), 95),
		price("GME", day1.Add(20*time.Hour), 100),
		price("GME", day1.Add(25*time.Hour), 120),
	}

	pairs, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if math.Abs(pairs[0].Return-0.20) > 1e-12 {
		t.Fatalf("unexpected return %v", pairs[0].Return)
	}
}

func TestAlignDropsBucketWithoutSentiment(t *testing.T) {
	sentiments := []models.SentimentObservation{senti("GME", day1.Add(time.Hour), 0.5)}
	prices := []models.PriceObservation{
		price("GME", day1, 100),
		price("GME", day1.Add(24*time.Hour), 110),
		price("GME", day1.Add(48*time.Hour), 120),
	}

	pairs, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	// Day2 has prices on both boundaries but no sentiment.
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
}

func TestAlignDropsBucketMissingBoundaryClose(t *testing.T) {
	sentiments := []models.SentimentObservation{
		senti("GME", day1.Add(time.Hour), 0.5),
		senti("GME", day1.Add(26*time.Hour), 0.1),
	}
	prices := []models.PriceObservation{
		price("GME", day1.Add(24*time.Hour), 110),
		price("GME", day1.Add(48*time.Hour), 120),
	}

	pairs, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	// Day1 misses its starting close, Day2 has both.
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if !pairs[0].Bucket.Equal(day1.Add(24 * time.Hour)) {
		t.Fatalf("unexpected bucket %v", pairs[0].Bucket)
	}
}

func TestAlignDropsZeroStartClose(t *testing.T) {
	sentiments := []models.SentimentObservation{senti("GME", day1.Add(time.Hour), 0.5)}
	prices := []models.PriceObservation{
		price("GME", day1, 0),
		price("GME", day1.Add(24*time.Hour), 110),
	}

	pairs, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}

func TestAlignIdempotentBuckets(t *testing.T) {
	sentiments := []models.SentimentObservation{
		senti("GME", day1.Add(3*time.Hour), 0.8),
		senti("GME", day1.Add(9*time.Hour), 0.6),
		senti("GME", day1.Add(27*time.Hour), -0.4),
	}
	prices := []models.PriceObservation{
		price("GME", day1, 100),
		price("GME", day1.Add(24*time.Hour), 110),
		price("GME", day1.Add(48*time.Hour), 99),
	}

	first, err := Align(sentiments, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// Feed the aligned output back in as one observation per bucket.
	var ss []models.SentimentObservation
	for _, p := range first {
		ss = append(ss, senti("GME", p.Bucket, p.Sentiment))
	}
	second, err := Align(ss, prices, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("expected %d pairs, got %d", len(first), len(second))
	}
	for i := range first {
		if !second[i].Bucket.Equal(first[i].Bucket) {
			t.Fatalf("bucket %d moved: %v -> %v", i, first[i].Bucket, second[i].Bucket)
		}
		if math.Abs(second[i].Sentiment-first[i].Sentiment) > 1e-12 {
			t.Fatalf("sentiment %d changed: %v -> %v", i, first[i].Sentiment, second[i].Sentiment)
		}
		if math.Abs(second[i].Return-first[i].Return) > 1e-12 {
			t.Fatalf("return %d changed: %v -> %v", i, first[i].Return, second[i].Return)
		}
	}
}

func TestAlignTickerMismatch(t *testing.T) {
	sentiments := []models.SentimentObservation{senti("GME", day1, 0.5)}
	prices := []models.PriceObservation{price("AMC", day1, 100)}

	_, err := Align(sentiments, prices, 24*time.Hour)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestAlignMalformedScore(t *testing.T) {
	sentiments := []models.SentimentObservation{senti("GME", day1, 1.5)}
	prices := []models.PriceObservation{price("GME", day1, 100)}

	_, err := Align(sentiments, prices, 24*time.Hour)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, KindMalformedObservation) {
		t.Fatalf("expected malformed_observation, got %v", err)
	}
}

func TestAlignMalformedValues(t *testing.T) {
	cases := []struct {
		name       string
		sentiments []models.SentimentObservation
		prices     []models.PriceObservation
	}{
		{"nan score", []models.SentimentObservation{senti("GME", day1, math.NaN())}, nil},
		{"inf score", []models.SentimentObservation{senti("GME", day1, math.Inf(1))}, nil},
		{"score below range", []models.SentimentObservation{senti("GME", day1, -1.01)}, nil},
		{"zero sentiment timestamp", []models.SentimentObservation{senti("GME", time.Time{}, 0.1)}, nil},
		{"negative close", nil, []models.PriceObservation{price("GME", day1, -5)}},
		{"nan close", nil, []models.PriceObservation{price("GME", day1, math.NaN())}},
		{"zero price timestamp", nil, []models.PriceObservation{price("GME", time.Time{}, 10)}},
	}
	for _, tc := range cases {
		if _, err := Align(tc.sentiments, tc.prices, 24*time.Hour); !IsKind(err, KindMalformedObservation) {
			t.Fatalf("%s: expected malformed_observation, got %v", tc.name, err)
		}
	}
}

func TestAlignDoesNotReorderCallerSlices(t *testing.T) {
	sentiments := []models.SentimentObservation{
		senti("GME", day1.Add(30*time.Hour), -0.2),
		senti("GME", day1.Add(2*time.Hour), 0.4),
	}
	prices := []models.PriceObservation{
		price("GME", day1.Add(24*time.Hour), 110),
		price("GME", day1, 100),
	}

	if _, err := Align(sentiments, prices, 24*time.Hour); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !sentiments[0].Timestamp.After(sentiments[1].Timestamp) {
		t.Fatalf("caller sentiment slice was reordered")
	}
	if !prices[0].Timestamp.After(prices[1].Timestamp) {
		t.Fatalf("caller price slice was reordered")
	}
}

func TestAlignHourlyBuckets(t *testing.T) {
	base := time.Date(2024, 10, 10, 14, 0, 0, 0, time.UTC)
	sentiments := []models.SentimentObservation{
		senti("GME", base.Add(10*time.Minute), 0.2),
		senti("GME", base.Add(50*time.Minute), 0.4),
	}
	prices := []models.PriceObservation{
		price("GME", base.Add(59*time.Minute), 200),
		price("GME", base.Add(61*time.Minute), 202),
	}

	pairs, err := Align(sentiments, prices, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if !pairs[0].Bucket.Equal(base) {
		t.Fatalf("unexpected bucket %v", pairs[0].Bucket)
	}
	if math.Abs(pairs[0].Return-0.01) > 1e-12 {
		t.Fatalf("unexpected return %v", pairs[0].Return)
	}
}
