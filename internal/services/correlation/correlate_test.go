package correlation

import (
	"math"
	"testing"
	"time"

	"SentiPull/internal/domain/models"
)

func mkPairs(vals ...[2]float64) []models.AlignedPair {
	pairs := make([]models.AlignedPair, len(vals))
	for i, v := range vals {
		pairs[i] = models.AlignedPair{
			Bucket:      day1.Add(time.Duration(i) * 24 * time.Hour),
			Sentiment:   v[0],
			Return:      v[1],
			SourceCount: 1,
		}
	}
	return pairs
}

func TestCorrelatePerfectPositive(t *testing.T) {
	pairs := mkPairs([2]float64{0.1, 0.01}, [2]float64{0.2, 0.02}, [2]float64{0.3, 0.03}, [2]float64{0.4, 0.04}, [2]float64{0.5, 0.05})

	res, err := Correlate("GME", pairs, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Coefficient == nil {
		t.Fatalf("expected coefficient")
	}
	r := *res.Coefficient
	if r < -1 || r > 1 {
		t.Fatalf("coefficient %v outside [-1, 1]", r)
	}
	if r < 0.999999 {
		t.Fatalf("expected r near 1, got %v", r)
	}
	if res.Trend != models.TrendBullish {
		t.Fatalf("expected bullish, got %s", res.Trend)
	}
	if res.SampleSize != 5 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
}

func TestCorrelatePerfectNegative(t *testing.T) {
	pairs := mkPairs([2]float64{0.1, -0.01}, [2]float64{0.2, -0.02}, [2]float64{0.3, -0.03}, [2]float64{0.4, -0.04}, [2]float64{0.5, -0.05})

	res, err := Correlate("GME", pairs, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Coefficient == nil || *res.Coefficient > -0.999999 {
		t.Fatalf("expected r near -1, got %v", res.Coefficient)
	}
	if res.Trend != models.TrendBearish {
		t.Fatalf("expected bearish, got %s", res.Trend)
	}
}

func TestCorrelateCoefficientStaysClamped(t *testing.T) {
	// Two identical points repeated: numerically r should be exactly
	// +-1; any drift must be clamped, never escape the interval.
	pairs := mkPairs([2]float64{-0.9, -0.09}, [2]float64{0.9, 0.09}, [2]float64{-0.9, -0.09}, [2]float64{0.9, 0.09}, [2]float64{0.9, 0.09})

	res, err := Correlate("GME", pairs, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Coefficient == nil {
		t.Fatalf("expected coefficient")
	}
	if *res.Coefficient < -1 || *res.Coefficient > 1 {
		t.Fatalf("coefficient %v escaped [-1, 1]", *res.Coefficient)
	}
}

func TestCorrelateInsufficientSample(t *testing.T) {
	res, err := Correlate("GME", nil, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Trend != models.TrendInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", res.Trend)
	}
	if res.Coefficient != nil {
		t.Fatalf("expected nil coefficient")
	}
	if res.SampleSize != 0 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
}

func TestCorrelateBelowMinSample(t *testing.T) {
	pairs := mkPairs([2]float64{0.7, 0.10})

	res, err := Correlate("GME", pairs, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Trend != models.TrendInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", res.Trend)
	}
	if res.Coefficient != nil {
		t.Fatalf("expected nil coefficient")
	}
	if res.SampleSize != 1 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
	if !res.WindowStart.Equal(day1) {
		t.Fatalf("unexpected window start %v", res.WindowStart)
	}
	if !res.WindowEnd.Equal(day1.Add(24 * time.Hour)) {
		t.Fatalf("unexpected window end %v", res.WindowEnd)
	}
}

func TestCorrelateZeroVariance(t *testing.T) {
	// Constant sentiment column: coefficient undefined.
	pairs := mkPairs([2]float64{0.5, 0.01}, [2]float64{0.5, -0.02}, [2]float64{0.5, 0.03}, [2]float64{0.5, 0.04}, [2]float64{0.5, -0.05})

	res, err := Correlate("GME", pairs, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Trend != models.TrendInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", res.Trend)
	}
	if res.Coefficient != nil {
		t.Fatalf("expected nil coefficient")
	}
	if res.SampleSize != 5 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
}

func TestCorrelateBadConfig(t *testing.T) {
	cfgs := []Config{
		{BucketInterval: 0, MinSampleSize: 5, BullishThreshold: 0.3, BearishThreshold: -0.3},
		{BucketInterval: time.Hour, MinSampleSize: 0, BullishThreshold: 0.3, BearishThreshold: -0.3},
		{BucketInterval: time.Hour, MinSampleSize: 5, BullishThreshold: 0, BearishThreshold: -0.3},
		{BucketInterval: time.Hour, MinSampleSize: 5, BullishThreshold: 1.5, BearishThreshold: -0.3},
		{BucketInterval: time.Hour, MinSampleSize: 5, BullishThreshold: 0.3, BearishThreshold: 0},
		{BucketInterval: time.Hour, MinSampleSize: 5, BullishThreshold: 0.3, BearishThreshold: -1.5},
		{BucketInterval: time.Hour, MinSampleSize: 5, BullishThreshold: math.NaN(), BearishThreshold: -0.3},
	}
	for i, cfg := range cfgs {
		if _, err := Correlate("GME", nil, cfg); !IsKind(err, KindInvalidInput) {
			t.Fatalf("config %d: expected invalid_input, got %v", i, err)
		}
	}
}

func TestClassifyExactBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	if got := classify(0.3, cfg); got != models.TrendBullish {
		t.Fatalf("at +0.3 expected bullish, got %s", got)
	}
	if got := classify(-0.3, cfg); got != models.TrendBearish {
		t.Fatalf("at -0.3 expected bearish, got %s", got)
	}
	if got := classify(0.2999999, cfg); got != models.TrendNeutral {
		t.Fatalf("just below +0.3 expected neutral, got %s", got)
	}
	if got := classify(-0.2999999, cfg); got != models.TrendNeutral {
		t.Fatalf("just above -0.3 expected neutral, got %s", got)
	}
	if got := classify(1, cfg); got != models.TrendBullish {
		t.Fatalf("at 1 expected bullish, got %s", got)
	}
	if got := classify(-1, cfg); got != models.TrendBearish {
		t.Fatalf("at -1 expected bearish, got %s", got)
	}
	if got := classify(0, cfg); got != models.TrendNeutral {
		t.Fatalf("at 0 expected neutral, got %s", got)
	}
}

func TestAnalyzeWorkedExample(t *testing.T) {
	sentiments := []models.SentimentObservation{
		senti("GME", day1, 0.8),
		senti("GME", day1, 0.6),
	}
	prices := []models.PriceObservation{
		price("GME", day1, 100),
		price("GME", day1.Add(24*time.Hour), 110),
	}

	res, pairs, err := Analyze("GME", sentiments, prices, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if math.Abs(pairs[0].Sentiment-0.7) > 1e-12 {
		t.Fatalf("unexpected sentiment %v", pairs[0].Sentiment)
	}
	if math.Abs(pairs[0].Return-0.10) > 1e-12 {
		t.Fatalf("unexpected return %v", pairs[0].Return)
	}
	if res.Trend != models.TrendInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", res.Trend)
	}
	if res.Coefficient != nil {
		t.Fatalf("expected nil coefficient")
	}
	if res.SampleSize != 1 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
}

func TestAnalyzeStrictInput(t *testing.T) {
	ok := []models.SentimentObservation{senti("GME", day1, 0.5)}
	okPrices := []models.PriceObservation{price("GME", day1, 100)}

	if _, _, err := Analyze("", ok, okPrices, DefaultConfig()); !IsKind(err, KindInvalidInput) {
		t.Fatalf("empty ticker: expected invalid_input, got %v", err)
	}
	if _, _, err := Analyze("GME", nil, okPrices, DefaultConfig()); !IsKind(err, KindInvalidInput) {
		t.Fatalf("empty sentiments: expected invalid_input, got %v", err)
	}
	if _, _, err := Analyze("GME", ok, nil, DefaultConfig()); !IsKind(err, KindInvalidInput) {
		t.Fatalf("empty prices: expected invalid_input, got %v", err)
	}
	amc := []models.SentimentObservation{senti("AMC", day1, 0.5)}
	if _, _, err := Analyze("GME", amc, okPrices, DefaultConfig()); !IsKind(err, KindInvalidInput) {
		t.Fatalf("mismatched ticker: expected invalid_input, got %v", err)
	}
}

func TestAnalyzeFullWindow(t *testing.T) {
	var sentiments []models.SentimentObservation
	var prices []models.PriceObservation
	scores := []float64{0.8, 0.5, 0.1, -0.2, -0.6, -0.9}
	closes := []float64{100, 108, 112, 113, 111, 105, 95}
	for i, s := range scores {
		sentiments = append(sentiments, senti("GME", day1.Add(time.Duration(i)*24*time.Hour+3*time.Hour), s))
	}
	for i, c := range closes {
		prices = append(prices, price("GME", day1.Add(time.Duration(i)*24*time.Hour), c))
	}

	cfg := DefaultConfig()
	res, pairs, err := Analyze("GME", sentiments, prices, cfg)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(pairs))
	}
	if res.Coefficient == nil {
		t.Fatalf("expected coefficient")
	}
	if *res.Coefficient < -1 || *res.Coefficient > 1 {
		t.Fatalf("coefficient %v outside [-1, 1]", *res.Coefficient)
	}
	if res.SampleSize != 6 {
		t.Fatalf("unexpected sample size %d", res.SampleSize)
	}
	if !res.WindowStart.Equal(day1) {
		t.Fatalf("unexpected window start %v", res.WindowStart)
	}
	if !res.WindowEnd.Equal(day1.Add(6 * 24 * time.Hour)) {
		t.Fatalf("unexpected window end %v", res.WindowEnd)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
