package correlation

import (
	"SentiPull/internal/domain/models"
)

// Analyze is the strict entry point used by the service layer: the
// ticker must be non-empty, both series must be non-empty, and every
// observation must carry that ticker. It then runs Align and
// Correlate and returns the result together with the aligned pairs.
func Analyze(ticker string, sentiments []models.SentimentObservation, prices []models.PriceObservation, cfg Config) (models.CorrelationResult, []models.AlignedPair, error) {
	if err := cfg.Validate(); err != nil {
		return models.CorrelationResult{}, nil, err
	}
	if ticker == "" {
		return models.CorrelationResult{}, nil, invalidInput("ticker", "ticker is required")
	}
	if len(sentiments) == 0 {
		return models.CorrelationResult{}, nil, invalidInput("sentiments", "empty sentiment series for %q", ticker)
	}
	if len(prices) == 0 {
		return models.CorrelationResult{}, nil, invalidInput("prices", "empty price series for %q", ticker)
	}
	for i := range sentiments {
		if sentiments[i].Ticker != ticker {
			return models.CorrelationResult{}, nil, invalidInput("sentiments.ticker", "observation ticker %q does not match %q", sentiments[i].Ticker, ticker)
		}
	}
	for i := range prices {
		if prices[i].Ticker != ticker {
			return models.CorrelationResult{}, nil, invalidInput("prices.ticker", "observation ticker %q does not match %q", prices[i].Ticker, ticker)
		}
	}

	pairs, err := Align(sentiments, prices, cfg.BucketInterval)
	if err != nil {
		return models.CorrelationResult{}, nil, err
	}
	res, err := Correlate(ticker, pairs, cfg)
	if err != nil {
		return models.CorrelationResult{}, nil, err
	}
	return res, pairs, nil
}
