// ABOUTME: Pluggable classifier turning screening text into adverse signals.
// ABOUTME: The default implementation maps keywords to named risk factors.

package risk

import (
	"sort"
	"strings"
)

// Classifier turns free-text screening output into a set of named risk
// factors. Keeping this behind an interface makes the detection rule
// testable and swappable independently of the network call.
type Classifier interface {
	Classify(text string) []string
}

// KeywordClassifier flags adverse signals by case-insensitive keyword match.
type KeywordClassifier struct {
	// signals maps a lowercase keyword to the risk factor it raises.
	signals map[string]string
}

// NewKeywordClassifier creates a classifier with the default signal set.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		signals: map[string]string{
			"sanction":            "adverse media: sanctions",
			"fraud":               "adverse media: fraud",
			"money laundering":    "adverse media: money laundering",
			"terrorist financing": "adverse media: terrorist financing",
			"bribery":             "adverse media: bribery",
			"corruption":          "adverse media: corruption",
			"embezzlement":        "adverse media: embezzlement",
			"enforcement action":  "adverse media: enforcement action",
			"criminal":            "adverse media: criminal proceedings",
		},
	}
}

// Classify returns the distinct risk factors raised by the text.
func (c *KeywordClassifier) Classify(text string) []string {
	lower := strings.ToLower(text)

	var factors []string
	seen := make(map[string]struct{})
	for keyword, factor := range c.signals {
		if !strings.Contains(lower, keyword) {
			continue
		}
		if _, dup := seen[factor]; dup {
			continue
		}
		seen[factor] = struct{}{}
		factors = append(factors, factor)
	}

	// Map iteration order is random; keep output stable for callers.
	sort.Strings(factors)
	return factors
}
