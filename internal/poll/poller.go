// ABOUTME: Bounded submit-then-poll driver for long-running provider operations.
// ABOUTME: Fixed interval, fixed attempt budget, cancellable between polls.

package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// State is the provider-reported state of a long-running operation.
// Transitions are forward-only: Queued → Running → Succeeded/Failed.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status is one poll observation of an operation.
type Status struct {
	State  State
	Result json.RawMessage // present only when Succeeded
	Detail string          // provider-supplied failure detail
}

// SubmitFunc starts the operation and returns its provider-issued handle.
type SubmitFunc func(ctx context.Context) (string, error)

// StatusFunc reports the current status of the operation behind a handle.
type StatusFunc func(ctx context.Context, handle string) (Status, error)

// ErrTimeout indicates the attempt budget was exhausted while the operation
// was still Queued or Running.
var ErrTimeout = errors.New("operation timed out")

// OperationError reports an operation the provider marked Failed.
type OperationError struct {
	Handle string
	Detail string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %s", e.Handle, e.Detail)
}

// Default polling parameters. The interval is deliberately fixed rather
// than exponential: the attempt budget already bounds total wait.
const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 30
)

// Poller drives a submit-then-poll operation to completion or timeout.
// The zero value is not usable; construct with New.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	logger      *slog.Logger
}

// New creates a Poller with the default interval and attempt budget.
func New(logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
		logger:      logger.With("component", "poll"),
	}
}

// Run submits the operation and polls it at a fixed interval.
//
// Succeeded returns the result immediately with no further polling. Failed
// returns *OperationError immediately without consuming remaining attempts.
// Exhausting the budget while Queued/Running returns ErrTimeout. Waits block
// only the calling goroutine and respect ctx cancellation.
func (p *Poller) Run(ctx context.Context, submit SubmitFunc, status StatusFunc) (json.RawMessage, error) {
	handle, err := submit(ctx)
	if err != nil {
		return nil, fmt.Errorf("submitting operation: %w", err)
	}

	p.logger.Debug("operation submitted", "handle", handle)

	running := false
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		st, err := status(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("polling operation %s: %w", handle, err)
		}

		switch st.State {
		case StateSucceeded:
			p.logger.Debug("operation succeeded", "handle", handle, "attempts", attempt)
			return st.Result, nil
		case StateFailed:
			return nil, &OperationError{Handle: handle, Detail: st.Detail}
		case StateRunning:
			running = true
		case StateQueued:
			// A provider reporting Queued after Running is treated as still
			// Running; the state machine never moves backward.
			if running {
				p.logger.Debug("provider reported queued after running", "handle", handle)
			}
		default:
			return nil, fmt.Errorf("operation %s reported unknown state %q", handle, st.State)
		}

		if attempt < p.MaxAttempts {
			if err := p.wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	p.logger.Warn("operation exhausted polling budget", "handle", handle, "attempts", p.MaxAttempts)
	return nil, fmt.Errorf("operation %s after %d attempts: %w", handle, p.MaxAttempts, ErrTimeout)
}

// wait sleeps one interval or returns early on cancellation.
func (p *Poller) wait(ctx context.Context) error {
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
