// Package sentiment scores crypto news text with a keyword lexicon.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Label is the coarse sentiment class attached to news articles
type Label string

const (
	Bullish Label = "bullish"
	Bearish Label = "bearish"
	Neutral Label = "neutral"
)

// normalization constant for the summed lexicon score
const alpha = 15.0

// negated terms contribute this share of their weight, with opposite sign
const negationScalar = -0.74

// how many tokens after a negator are affected by it
const negationWindow = 3

// Tagger classifies text. The zero value uses the default lexicon.
type Tagger struct {
	lexicon      map[string]float64
	intensifiers map[string]float64
}

// NewTagger creates a tagger over the built-in crypto lexicon
func NewTagger() *Tagger {
	return &Tagger{
		lexicon:      defaultLexicon,
		intensifiers: defaultIntensifiers,
	}
}

var defaultTagger = NewTagger()

// Classify returns the label for text using the default tagger
func Classify(text string) Label {
	return defaultTagger.Classify(text)
}

// Polarity returns the score for text using the default tagger
func Polarity(text string) float64 {
	return defaultTagger.Polarity(text)
}

// Classify maps the polarity of text to a label: positive is bullish,
// negative is bearish and zero is neutral.
func (t *Tagger) Classify(text string) Label {
	score := t.Polarity(text)
	switch {
	case score > 0:
		return Bullish
	case score < 0:
		return Bearish
	default:
		return Neutral
	}
}

// Polarity scores text in [-1, 1]. Empty or unmatched text scores 0.
func (t *Tagger) Polarity(text string) float64 {
	lexicon := t.lexicon
	intensifiers := t.intensifiers
	if lexicon == nil {
		lexicon = defaultLexicon
		intensifiers = defaultIntensifiers
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	negatedUntil := -1
	boost := 1.0

	for i, tok := range tokens {
		if isNegator(tok) {
			negatedUntil = i + negationWindow
			continue
		}
		if m, ok := intensifiers[tok]; ok {
			boost *= m
			continue
		}

		weight, ok := lookup(lexicon, tok)
		if !ok {
			continue
		}

		weight *= boost
		boost = 1.0
		if i <= negatedUntil {
			weight *= negationScalar
		}
		sum += weight
	}

	// Trailing intensifiers ("crashing hard") strengthen the running total
	if boost != 1.0 {
		sum *= boost
	}

	if sum == 0 {
		return 0
	}

	score := sum / math.Sqrt(sum*sum+alpha)
	score = math.Max(-1, math.Min(1, score))

	log.Debug().
		Float64("score", score).
		Int("tokens", len(tokens)).
		Msg("Scored text polarity")

	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
}

func isNegator(tok string) bool {
	switch tok {
	case "not", "no", "never", "without", "nor", "neither", "hardly":
		return true
	}
	return strings.HasSuffix(tok, "n't")
}

// lookup matches tok or its simple inflections against the lexicon
func lookup(lexicon map[string]float64, tok string) (float64, bool) {
	if w, ok := lexicon[tok]; ok {
		return w, true
	}
	for _, suffix := range []string{"ing", "ed", "es", "s", "ly"} {
		stem, ok := strings.CutSuffix(tok, suffix)
		if !ok || len(stem) < 3 {
			continue
		}
		if w, ok := lexicon[stem]; ok {
			return w, true
		}
		// "pumping" -> "pump", "dropped" -> "drop"
		if n := len(stem); n > 3 && stem[n-1] == stem[n-2] {
			if w, ok := lexicon[stem[:n-1]]; ok {
				return w, true
			}
		}
		// "surged" -> "surge"
		if w, ok := lexicon[stem+"e"]; ok {
			return w, true
		}
	}
	return 0, false
}
