// ABOUTME: The three fixed verification checks: registry existence, LEI
// ABOUTME: identifier validation, and adverse-signal screening.

package risk

import (
	"context"
	"fmt"
	"strings"
)

// Directory is the narrow view of a public entity registry used by the
// existence check.
type Directory interface {
	SearchByName(ctx context.Context, name string) ([]Record, error)
}

// Record is a registry entry as seen by the existence check.
type Record struct {
	LEI    string
	Name   string
	Status string
}

// Screener is the narrow view of the natural-language screening provider.
type Screener interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// RegistryCheck verifies the subject exists in a public entity registry
// with an active registration.
type RegistryCheck struct {
	directory Directory
}

// NewRegistryCheck creates the existence check. A nil directory makes the
// check report Skipped.
func NewRegistryCheck(directory Directory) *RegistryCheck {
	return &RegistryCheck{directory: directory}
}

func (c *RegistryCheck) Name() string { return "registry_existence" }

func (c *RegistryCheck) Run(ctx context.Context, subject Subject) CheckResult {
	result := CheckResult{Name: c.Name()}

	if c.directory == nil {
		result.Status = StatusSkipped
		result.Detail = "registry provider not configured"
		return result
	}

	records, err := c.directory.SearchByName(ctx, subject.Name)
	if err != nil {
		result.Status = StatusErrored
		result.Detail = err.Error()
		return result
	}

	result.Status = StatusCompleted
	switch {
	case len(records) == 0:
		result.Factors = append(result.Factors, "not found in registry")
	case !anyActive(records):
		result.Factors = append(result.Factors, "registration not active")
		result.Detail = fmt.Sprintf("%d record(s), none active", len(records))
	default:
		result.Detail = fmt.Sprintf("%d record(s) found", len(records))
	}
	return result
}

func anyActive(records []Record) bool {
	for _, r := range records {
		if strings.EqualFold(r.Status, "ACTIVE") {
			return true
		}
	}
	return false
}

// IdentifierCheck validates the subject's LEI code: 20 characters per
// ISO 17442 with a valid ISO 7064 mod 97-10 checksum.
type IdentifierCheck struct{}

// NewIdentifierCheck creates the identifier validation check.
func NewIdentifierCheck() *IdentifierCheck { return &IdentifierCheck{} }

func (c *IdentifierCheck) Name() string { return "identifier_validation" }

func (c *IdentifierCheck) Run(ctx context.Context, subject Subject) CheckResult {
	result := CheckResult{Name: c.Name(), Status: StatusCompleted}

	if subject.LEI == "" {
		result.Status = StatusSkipped
		result.Detail = "no LEI provided"
		return result
	}

	if err := ValidateLEI(subject.LEI); err != nil {
		result.Factors = append(result.Factors, "invalid LEI")
		result.Detail = err.Error()
	}
	return result
}

// ValidateLEI checks LEI structure and checksum. The code must be 20
// characters: 18 uppercase alphanumerics followed by 2 check digits, and the
// whole string must satisfy mod 97-10 == 1 with letters mapped A=10..Z=35.
func ValidateLEI(lei string) error {
	if len(lei) != 20 {
		return fmt.Errorf("LEI must be 20 characters, got %d", len(lei))
	}
	for i := 0; i < 18; i++ {
		c := lei[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("LEI contains invalid character %q at position %d", c, i)
		}
	}
	for i := 18; i < 20; i++ {
		if lei[i] < '0' || lei[i] > '9' {
			return fmt.Errorf("LEI check digits must be numeric")
		}
	}

	// ISO 7064 mod 97-10 computed digit by digit to avoid big integers.
	remainder := 0
	for i := 0; i < 20; i++ {
		c := lei[i]
		if c >= '0' && c <= '9' {
			remainder = (remainder*10 + int(c-'0')) % 97
		} else {
			v := int(c-'A') + 10
			remainder = (remainder*100 + v) % 97
		}
	}
	if remainder != 1 {
		return fmt.Errorf("LEI checksum is invalid")
	}
	return nil
}

// AdverseSignalCheck screens the subject for adverse signals via the
// natural-language screening provider and a pluggable classifier.
type AdverseSignalCheck struct {
	screener   Screener
	classifier Classifier
}

// NewAdverseSignalCheck creates the screening check. A nil screener makes
// the check report Skipped; a nil classifier falls back to the default
// keyword classifier.
func NewAdverseSignalCheck(screener Screener, classifier Classifier) *AdverseSignalCheck {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &AdverseSignalCheck{screener: screener, classifier: classifier}
}

func (c *AdverseSignalCheck) Name() string { return "adverse_signal_screening" }

func (c *AdverseSignalCheck) Run(ctx context.Context, subject Subject) CheckResult {
	result := CheckResult{Name: c.Name()}

	if c.screener == nil {
		result.Status = StatusSkipped
		result.Detail = "screening provider not configured"
		return result
	}

	prompt := fmt.Sprintf(
		"Summarize any sanctions, enforcement actions, fraud allegations, or other adverse findings about the legal entity %q. Answer 'no adverse findings' if there are none.",
		subject.Name,
	)
	text, err := c.screener.Ask(ctx, prompt)
	if err != nil {
		result.Status = StatusErrored
		result.Detail = err.Error()
		return result
	}

	result.Status = StatusCompleted
	result.Factors = c.classifier.Classify(text)
	return result
}
