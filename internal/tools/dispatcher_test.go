// ABOUTME: Tests for the tool dispatcher's routing and failure containment.
// ABOUTME: Covers unknown tools, validation rejections, error envelopes, panics.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRecorder collects invocation records for assertions.
type memoryRecorder struct {
	mu      sync.Mutex
	records []InvocationRecord
}

func (r *memoryRecorder) RecordInvocation(ctx context.Context, inv InvocationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, inv)
}

func (r *memoryRecorder) last(t *testing.T) InvocationRecord {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.records)
	return r.records[len(r.records)-1]
}

func newTestDispatcher(t *testing.T, rec Recorder, handlerTools ...*Tool) *Dispatcher {
	t.Helper()
	registry := NewRegistry(nil)
	for _, tool := range handlerTools {
		require.NoError(t, registry.Register(tool))
	}
	return NewDispatcher(DispatcherConfig{Registry: registry, Recorder: rec})
}

func echoTool() *Tool {
	return &Tool{
		Name:        "echo",
		Description: "Echo the message back",
		InputSchema: Object(map[string]*Property{
			"message": {Type: "string"},
		}, "message"),
		Handler: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{"echo": in.Message})
		},
	}
}

func TestInvoke_UnknownToolIsProtocolError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Invoke(context.Background(), "sess-1", "nope", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestInvoke_ValidationRejectionListsFields(t *testing.T) {
	d := newTestDispatcher(t, nil, echoTool())

	_, err := d.Invoke(context.Background(), "sess-1", "echo", json.RawMessage(`{"message":42}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Fields[0].Field)
}

func TestInvoke_NonObjectArgumentsRejected(t *testing.T) {
	rec := &memoryRecorder{}
	d := newTestDispatcher(t, rec, echoTool())

	_, err := d.Invoke(context.Background(), "sess-1", "echo", json.RawMessage(`[1,2]`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	inv := rec.last(t)
	assert.Equal(t, "rejected", inv.Outcome)
	assert.Contains(t, inv.Detail, "JSON object")
}

func TestInvoke_SuccessEnvelopesOutput(t *testing.T) {
	rec := &memoryRecorder{}
	d := newTestDispatcher(t, rec, echoTool())

	result, err := d.Invoke(context.Background(), "sess-1", "echo", json.RawMessage(`{"message":"hi"}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"echo":"hi"}`, result.Content[0].Text)

	inv := rec.last(t)
	assert.Equal(t, "ok", inv.Outcome)
	assert.Equal(t, "echo", inv.Tool)
	assert.Equal(t, "sess-1", inv.SessionID)
}

func TestInvoke_HandlerErrorBecomesEnvelope(t *testing.T) {
	rec := &memoryRecorder{}
	failing := &Tool{
		Name:        "broken",
		InputSchema: Object(nil),
		Handler: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			return nil, errors.New("record store returned 502")
		},
	}
	d := newTestDispatcher(t, rec, failing)

	result, err := d.Invoke(context.Background(), "sess-1", "broken", nil)
	require.NoError(t, err, "handler failures must not surface as transport errors")
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "502")
	assert.Equal(t, "error", rec.last(t).Outcome)
}

func TestInvoke_HandlerPanicBecomesEnvelope(t *testing.T) {
	panicking := &Tool{
		Name:        "panics",
		InputSchema: Object(nil),
		Handler: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			panic("nil map write")
		},
	}
	d := newTestDispatcher(t, nil, panicking)

	result, err := d.Invoke(context.Background(), "sess-1", "panics", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "nil map write")
}

func TestRegistry_CollisionRejected(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(echoTool()))
	assert.ErrorIs(t, registry.Register(echoTool()), ErrToolCollision)
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := NewRegistry(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, registry.Register(&Tool{Name: name, InputSchema: Object(nil)}))
	}

	var names []string
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}
