// ABOUTME: Tests for the bounded submit-then-poll driver.
// ABOUTME: Covers early success, immediate failure, budget exhaustion, cancellation.

package poll

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPoller returns a poller with a near-zero interval for tests.
func fastPoller() *Poller {
	p := New(nil)
	p.Interval = time.Millisecond
	return p
}

func submitOK(ctx context.Context) (string, error) { return "op-123", nil }

func TestRun_SucceededReturnsResultWithoutFurtherPolling(t *testing.T) {
	polls := 0
	status := func(ctx context.Context, handle string) (Status, error) {
		polls++
		if polls < 5 {
			return Status{State: StateRunning}, nil
		}
		return Status{State: StateSucceeded, Result: json.RawMessage(`{"pages":3}`)}, nil
	}

	result, err := fastPoller().Run(context.Background(), submitOK, status)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages":3}`, string(result))
	assert.Equal(t, 5, polls, "polling must stop at the successful attempt")
}

func TestRun_FailedRaisesOperationErrorImmediately(t *testing.T) {
	polls := 0
	status := func(ctx context.Context, handle string) (Status, error) {
		polls++
		return Status{State: StateFailed, Detail: "unsupported media type"}, nil
	}

	_, err := fastPoller().Run(context.Background(), submitOK, status)
	require.Error(t, err)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "op-123", opErr.Handle)
	assert.Equal(t, "unsupported media type", opErr.Detail)
	assert.Equal(t, 1, polls, "failure must not consume remaining attempts")
}

func TestRun_ExhaustedBudgetRaisesTimeout(t *testing.T) {
	polls := 0
	status := func(ctx context.Context, handle string) (Status, error) {
		polls++
		return Status{State: StateRunning}, nil
	}

	_, err := fastPoller().Run(context.Background(), submitOK, status)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, DefaultMaxAttempts, polls)
}

func TestRun_QueuedKeepsPolling(t *testing.T) {
	polls := 0
	status := func(ctx context.Context, handle string) (Status, error) {
		polls++
		switch {
		case polls < 3:
			return Status{State: StateQueued}, nil
		case polls < 4:
			return Status{State: StateRunning}, nil
		default:
			return Status{State: StateSucceeded, Result: json.RawMessage(`{}`)}, nil
		}
	}

	_, err := fastPoller().Run(context.Background(), submitOK, status)
	require.NoError(t, err)
	assert.Equal(t, 4, polls)
}

func TestRun_SubmitFailurePropagates(t *testing.T) {
	submit := func(ctx context.Context) (string, error) {
		return "", errors.New("document too large")
	}
	status := func(ctx context.Context, handle string) (Status, error) {
		t.Fatal("status must not be called when submit fails")
		return Status{}, nil
	}

	_, err := fastPoller().Run(context.Background(), submit, status)
	require.ErrorContains(t, err, "document too large")
}

func TestRun_CancellationStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := New(nil)
	p.Interval = time.Minute // would block without cancellation

	status := func(ctx context.Context, handle string) (Status, error) {
		cancel()
		return Status{State: StateRunning}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx, submitOK, status)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_UnknownStateRejected(t *testing.T) {
	status := func(ctx context.Context, handle string) (Status, error) {
		return Status{State: State("paused")}, nil
	}

	_, err := fastPoller().Run(context.Background(), submitOK, status)
	require.ErrorContains(t, err, "unknown state")
}
