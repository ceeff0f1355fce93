package sentiment

import (
	"context"
	"strings"
	"unicode"

	"SentiPull/internal/domain/service"
)

// Analyzer scores free text against financial word lists. It is pure,
// allocation-light, and safe for concurrent use; the word maps are
// built once and never mutated.
type Analyzer struct {
	positive    map[string]bool
	negative    map[string]bool
	uncertainty map[string]bool
	negations   map[string]bool
}

// NewAnalyzer creates a lexicon sentiment analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		positive:    loadPositiveWords(),
		negative:    loadNegativeWords(),
		uncertainty: loadUncertaintyWords(),
		negations:   loadNegationWords(),
	}
}

func (a *Analyzer) Name() string { return "lexicon" }

// Score returns a compound sentiment in [-1, 1] for the text.
// Empty or lexicon-free text scores 0. The error is always nil; the
// signature satisfies service.SentimentScorer.
func (a *Analyzer) Score(_ context.Context, text string) (float64, error) {
	return a.score(text), nil
}

func (a *Analyzer) score(text string) float64 {
	words := tokenize(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var pos, neg, unc int
	for i, w := range words {
		hit := 0
		switch {
		case a.positive[w]:
			hit = 1
		case a.negative[w]:
			hit = -1
		}
		if hit != 0 && a.negatedAt(words, i) {
			hit = -hit
		}
		switch hit {
		case 1:
			pos++
		case -1:
			neg++
		}
		if a.uncertainty[w] {
			unc++
		}
	}

	// Lexicon hits are a small share of tokens; x10 brings a typical
	// charged post into the middle of the scale.
	net := (float64(pos) - float64(neg)) / float64(len(words)) * 10

	// Hedging language halves the signal at full saturation.
	uncRatio := float64(unc) / float64(len(words)) * 20
	if uncRatio > 1 {
		uncRatio = 1
	}
	net *= 1 - uncRatio*0.5

	if net > 1 {
		return 1
	}
	if net < -1 {
		return -1
	}
	return net
}

// negatedAt reports whether either of the two tokens before position i
// is a negation word.
func (a *Analyzer) negatedAt(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if a.negations[words[j]] {
			return true
		}
	}
	return false
}

// tokenize splits text into letter/digit runs.
func tokenize(text string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			cur.WriteRune(r)
		} else if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

var _ service.SentimentScorer = (*Analyzer)(nil)
