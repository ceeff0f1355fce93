package features

import (
	"time"

	"SentiPull/internal/domain/models"
)

// SummaryConfig carries the classification policy for window
// summaries. The score cutoffs split observations into the
// positive/negative/neutral counters; the average thresholds label
// the window as a whole.
type SummaryConfig struct {
	PositiveCutoff float64
	NegativeCutoff float64
	BullishAverage float64
	BearishAverage float64
}

// DefaultSummaryConfig returns the stock policy: a +/-0.05 neutrality
// band per observation and +/-0.2 trend thresholds on the average.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		PositiveCutoff: 0.05,
		NegativeCutoff: -0.05,
		BullishAverage: 0.2,
		BearishAverage: -0.2,
	}
}

// Summarize aggregates a sentiment series into a window summary.
// An empty series yields zero counts and the insufficient_data label.
func Summarize(ticker string, obs []models.SentimentObservation, from, to time.Time, cfg SummaryConfig) models.SentimentSummary {
	s := models.SentimentSummary{
		Ticker:      ticker,
		WindowStart: from,
		WindowEnd:   to,
		Trend:       models.TrendInsufficientData,
	}
	if len(obs) == 0 {
		return s
	}

	var sum float64
	for _, o := range obs {
		sum += o.Score
		switch {
		case o.Score >= cfg.PositiveCutoff:
			s.PositiveCount++
		case o.Score <= cfg.NegativeCutoff:
			s.NegativeCount++
		default:
			s.NeutralCount++
		}
	}
	s.Observations = len(obs)
	s.AverageScore = sum / float64(len(obs))
	s.Trend = ClassifyAverage(s.AverageScore, cfg)
	return s
}

// ClassifyAverage maps a window-average score to a trend label.
// Boundaries classify as bullish/bearish exactly.
func ClassifyAverage(avg float64, cfg SummaryConfig) models.TrendLabel {
	switch {
	case avg >= cfg.BullishAverage:
		return models.TrendBullish
	case avg <= cfg.BearishAverage:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}
