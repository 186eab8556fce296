// ABOUTME: Tests for the SQLite invocation audit store.
// ABOUTME: Covers append, filtered listing, and the tools.Recorder adapter.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/kyc-gateway/internal/tools"
)

func newTestStore(t *testing.T) *AuditStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &AuditEntry{
		SessionID: "sess-1", Tool: "get_case", Outcome: OutcomeOK, DurationMS: 12,
	}))
	require.NoError(t, s.Append(ctx, &AuditEntry{
		SessionID: "sess-2", Tool: "run_legal_entity_kyc", Outcome: OutcomeError,
		DurationMS: 450, Detail: "screening provider unavailable",
	}))

	entries, err := s.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.NotEmpty(t, e.ID, "ids are generated on append")
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestList_FilterBySessionAndTool(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, e := range []*AuditEntry{
		{SessionID: "sess-1", Tool: "get_case", Outcome: OutcomeOK},
		{SessionID: "sess-1", Tool: "list_pending_cases", Outcome: OutcomeOK},
		{SessionID: "sess-2", Tool: "get_case", Outcome: OutcomeRejected},
	} {
		require.NoError(t, s.Append(ctx, e))
	}

	sess := "sess-1"
	entries, err := s.List(ctx, AuditFilter{SessionID: &sess})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	tool := "get_case"
	entries, err = s.List(ctx, AuditFilter{SessionID: &sess, Tool: &tool})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, OutcomeOK, entries[0].Outcome)
}

func TestList_SinceFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.Append(ctx, &AuditEntry{
		SessionID: "sess-1", Tool: "get_case", Outcome: OutcomeOK, Timestamp: old,
	}))
	require.NoError(t, s.Append(ctx, &AuditEntry{
		SessionID: "sess-1", Tool: "get_case", Outcome: OutcomeOK,
	}))

	since := time.Now().UTC().Add(-time.Minute)
	entries, err := s.List(ctx, AuditFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordInvocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.RecordInvocation(ctx, tools.InvocationRecord{
		ID:        "inv-1",
		SessionID: "sess-1",
		Tool:      "analyze_document",
		Outcome:   "ok",
		Duration:  2300 * time.Millisecond,
	})

	entries, err := s.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inv-1", entries[0].ID)
	assert.Equal(t, int64(2300), entries[0].DurationMS)
}
