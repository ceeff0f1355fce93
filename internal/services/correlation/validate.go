package correlation

import (
	"math"

	"SentiPull/internal/domain/models"
)

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateSentiment checks one sentiment observation against its
// declared domain. The ingest pipeline applies the same rules, so a
// value that would poison a correlation never reaches storage either.
func ValidateSentiment(o *models.SentimentObservation) error {
	if o == nil {
		return malformed("sentiment", "nil observation")
	}
	if o.Timestamp.IsZero() {
		return malformed("sentiment.timestamp", "zero timestamp for %q", o.Ticker)
	}
	if !isFinite(o.Score) {
		return malformed("sentiment.score", "non-finite score for %q", o.Ticker)
	}
	if o.Score < -1 || o.Score > 1 {
		return malformed("sentiment.score", "score %v outside [-1, 1] for %q", o.Score, o.Ticker)
	}
	if o.SourceCount < 0 {
		return malformed("sentiment.source_count", "negative source count for %q", o.Ticker)
	}
	return nil
}

// ValidatePrice checks one price observation against its declared domain.
func ValidatePrice(o *models.PriceObservation) error {
	if o == nil {
		return malformed("price", "nil observation")
	}
	if o.Timestamp.IsZero() {
		return malformed("price.timestamp", "zero timestamp for %q", o.Ticker)
	}
	if !isFinite(o.Close) {
		return malformed("price.close", "non-finite close for %q", o.Ticker)
	}
	if o.Close < 0 {
		return malformed("price.close", "negative close %v for %q", o.Close, o.Ticker)
	}
	return nil
}

// checkSeries validates every observation and insists both series
// carry one single ticker. The empty string counts as a ticker of its
// own here; the strict Analyze path rejects it outright.
func checkSeries(sentiments []models.SentimentObservation, prices []models.PriceObservation) error {
	var ticker string
	var seen bool
	for i := range sentiments {
		if err := ValidateSentiment(&sentiments[i]); err != nil {
			return err
		}
		if !seen {
			ticker, seen = sentiments[i].Ticker, true
		} else if sentiments[i].Ticker != ticker {
			return invalidInput("ticker", "mixed tickers %q and %q in sentiment series", ticker, sentiments[i].Ticker)
		}
	}
	for i := range prices {
		if err := ValidatePrice(&prices[i]); err != nil {
			return err
		}
		if !seen {
			ticker, seen = prices[i].Ticker, true
		} else if prices[i].Ticker != ticker {
			return invalidInput("ticker", "price ticker %q does not match %q", prices[i].Ticker, ticker)
		}
	}
	return nil
}
