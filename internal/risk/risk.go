// ABOUTME: Multi-check risk aggregation for legal entity verification.
// ABOUTME: Runs independent checks in fixed order and derives an overall level.

package risk

import (
	"context"
	"log/slog"
)

// CheckStatus describes how a single check concluded.
type CheckStatus string

const (
	StatusCompleted CheckStatus = "completed"
	StatusSkipped   CheckStatus = "skipped"
	StatusErrored   CheckStatus = "errored"
)

// CheckResult is the outcome of one check. An Errored check contributes no
// risk factors; Detail carries the skip reason or error description.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Factors []string    `json:"risk_factors,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// Level is the overall risk classification.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// LevelFor maps a distinct risk-factor count to an overall level:
// 0 → LOW, 1–2 → MEDIUM, 3+ → HIGH. This thresholding is the sole
// aggregation rule; checks are not weighted.
func LevelFor(count int) Level {
	switch {
	case count == 0:
		return LevelLow
	case count <= 2:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Subject identifies the entity under assessment.
type Subject struct {
	Name string
	LEI  string
}

// Assessment is the combined result of all checks for one subject.
// Incomplete is set when any check errored: the level then reflects only
// the checks that ran, and the caller is told the assessment is partial.
type Assessment struct {
	Subject    string        `json:"subject"`
	Checks     []CheckResult `json:"checks"`
	Factors    []string      `json:"risk_factors"`
	Level      Level         `json:"risk_level"`
	Incomplete bool          `json:"incomplete,omitempty"`
}

// Check is one independent verification step.
type Check interface {
	Name() string
	Run(ctx context.Context, subject Subject) CheckResult
}

// Aggregator runs a fixed sequence of checks. A failure in one check never
// prevents later checks from running.
type Aggregator struct {
	checks []Check
	logger *slog.Logger
}

// NewAggregator creates an Aggregator running the given checks in order.
func NewAggregator(logger *slog.Logger, checks ...Check) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		checks: checks,
		logger: logger.With("component", "risk"),
	}
}

// Assess runs every check and aggregates the distinct risk factors into an
// overall level. Partial results are always returned.
func (a *Aggregator) Assess(ctx context.Context, subject Subject) Assessment {
	assessment := Assessment{
		Subject: subject.Name,
		Checks:  make([]CheckResult, 0, len(a.checks)),
		Factors: []string{},
	}

	seen := make(map[string]struct{})
	for _, check := range a.checks {
		result := check.Run(ctx, subject)
		assessment.Checks = append(assessment.Checks, result)

		switch result.Status {
		case StatusErrored:
			assessment.Incomplete = true
			a.logger.Warn("check errored",
				"check", result.Name,
				"subject", subject.Name,
				"detail", result.Detail,
			)
		case StatusSkipped:
			a.logger.Debug("check skipped", "check", result.Name, "reason", result.Detail)
		}

		for _, factor := range result.Factors {
			if _, dup := seen[factor]; dup {
				continue
			}
			seen[factor] = struct{}{}
			assessment.Factors = append(assessment.Factors, factor)
		}
	}

	assessment.Level = LevelFor(len(assessment.Factors))

	a.logger.Info("assessment complete",
		"subject", subject.Name,
		"factors", len(assessment.Factors),
		"level", assessment.Level,
		"incomplete", assessment.Incomplete,
	)
	return assessment
}
