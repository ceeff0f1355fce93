package sentiment

// Word lists adapted from financial sentiment dictionaries
// (Loughran-McDonald style) plus the vocabulary retail investors
// actually post with.

func loadPositiveWords() map[string]bool {
	words := []string{
		"achieve", "beat", "beats", "benefit", "better", "breakout", "bull",
		"bullish", "buy", "buying", "calls", "gain", "gains", "good", "great",
		"grew", "growth", "hold", "hodl", "improve", "improved", "improvement",
		"long", "moon", "mooning", "opportunity", "optimistic", "outperform",
		"positive", "profit", "profitable", "profits", "progress", "rally",
		"record", "rip", "ripping", "robust", "rocket", "solid", "squeeze",
		"strength", "strong", "succeed", "success", "successful", "surge",
		"tendies", "undervalued", "upbeat", "upgrade", "upside", "valuable",
		"win", "winning", "yolo",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func loadNegativeWords() map[string]bool {
	words := []string{
		"adverse", "avoid", "bag", "bagholder", "bear", "bearish", "bleed",
		"bleeding", "collapse", "concern", "concerns", "crash", "crashing",
		"crisis", "debt", "decline", "decrease", "deficit", "dilution",
		"disappoint", "disappointing", "downgrade", "downturn", "drill",
		"drilling", "drop", "dump", "dumping", "fail", "failure", "falling",
		"fear", "fraud", "loss", "losses", "lost", "miss", "missed", "negative",
		"overvalued", "plummet", "plunge", "poor", "problem", "puts",
		"recession", "red", "risk", "risks", "rug", "rugpull", "scam", "sell",
		"selling", "selloff", "short", "slow", "slowdown", "tank", "tanking",
		"uncertain", "uncertainty", "underperform", "unprofitable", "volatile",
		"volatility", "weak", "weakness", "worse", "worst",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func loadUncertaintyWords() map[string]bool {
	words := []string{
		"almost", "anticipate", "appear", "appears", "approximately", "assume",
		"believe", "could", "depend", "depending", "estimate", "expect",
		"forecast", "gamble", "guess", "if", "likely", "may", "maybe", "might",
		"perhaps", "possible", "possibly", "potential", "predict", "probably",
		"rumor", "rumour", "should", "somewhat", "speculation", "suggest",
		"unclear", "unlikely", "would",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Negation tokens flip the polarity of the sentiment word that
// follows. Contractions lose their apostrophe in tokenization, so
// "don't" arrives as "don"; the unambiguous stems are listed here.
func loadNegationWords() map[string]bool {
	words := []string{
		"no", "not", "never", "without", "barely", "hardly",
		"dont", "don", "didnt", "didn", "doesnt", "doesn", "isnt", "isn",
		"wasnt", "wasn", "arent", "aren", "couldnt", "couldn", "shouldnt",
		"shouldn", "wouldnt", "wouldn", "aint", "ain",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
