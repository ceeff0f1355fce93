package correlation

import (
	"math"

	"SentiPull/internal/domain/models"
)

// Correlate computes the Pearson coefficient over the (Sentiment,
// Return) columns of pairs and labels the relationship per cfg.
// Fewer than cfg.MinSampleSize pairs, or zero variance in either
// column, yields a nil coefficient with the insufficient_data label.
// Both are valid results, not errors; the only error is bad config.
func Correlate(ticker string, pairs []models.AlignedPair, cfg Config) (models.CorrelationResult, error) {
	if err := cfg.Validate(); err != nil {
		return models.CorrelationResult{}, err
	}

	res := models.CorrelationResult{
		Ticker:     ticker,
		Trend:      models.TrendInsufficientData,
		SampleSize: len(pairs),
	}
	if len(pairs) > 0 {
		res.WindowStart = pairs[0].Bucket
		res.WindowEnd = pairs[len(pairs)-1].Bucket.Add(cfg.BucketInterval)
	}
	if len(pairs) < cfg.MinSampleSize {
		return res, nil
	}

	r, ok := pearson(pairs)
	if !ok {
		return res, nil
	}
	res.Coefficient = &r
	res.Trend = classify(r, cfg)
	return res, nil
}

// pearson returns the product-moment coefficient, clamped into [-1, 1]
// against floating-point drift. ok is false when either column has
// zero variance and the coefficient is undefined.
func pearson(pairs []models.AlignedPair) (r float64, ok bool) {
	n := float64(len(pairs))
	var sumX, sumY float64
	for _, p := range pairs {
		sumX += p.Sentiment
		sumY += p.Return
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for _, p := range pairs {
		dx := p.Sentiment - meanX
		dy := p.Return - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	r = cov / math.Sqrt(varX*varY)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// classify maps a coefficient to a trend label. Threshold boundaries
// classify as bullish/bearish exactly (>= and <=).
func classify(r float64, cfg Config) models.TrendLabel {
	switch {
	case r >= cfg.BullishThreshold:
		return models.TrendBullish
	case r <= cfg.BearishThreshold:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}
