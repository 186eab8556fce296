// ABOUTME: Validates arguments and routes named invocations to tool handlers.
// ABOUTME: Converts handler failures and panics into error-describing results.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownTool indicates the invoked tool name is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Content is one block of an invocation result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Result is the envelope returned for every dispatched invocation. Handler
// failures set IsError and describe the failure in the content text; they
// are not protocol-level errors.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// InvocationRecord describes one completed invocation for auditing.
type InvocationRecord struct {
	ID        string
	SessionID string
	Tool      string
	Outcome   string // "ok", "error", or "rejected"
	Duration  time.Duration
	Detail    string
}

// Recorder receives a record of each invocation. Implementations must not
// block the dispatch path for long.
type Recorder interface {
	RecordInvocation(ctx context.Context, inv InvocationRecord)
}

// Dispatcher validates and routes tool invocations. It owns no tool state;
// side effects happen only inside handlers.
type Dispatcher struct {
	registry *Registry
	recorder Recorder // optional
	logger   *slog.Logger
}

// DispatcherConfig contains configuration options for the Dispatcher.
type DispatcherConfig struct {
	Registry *Registry
	Recorder Recorder
	Logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: cfg.Registry,
		recorder: cfg.Recorder,
		logger:   logger,
	}
}

// Registry returns the dispatcher's tool registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Invoke runs the named tool with the given arguments.
//
// Unknown names return ErrUnknownTool and schema mismatches return
// *ValidationError; both are protocol-level rejections. Any error or panic
// inside the handler is converted into a Result with IsError set — a tool
// invocation never propagates a failure to the transport layer.
func (d *Dispatcher) Invoke(ctx context.Context, sessionID, name string, args json.RawMessage) (*Result, error) {
	tool := d.registry.Get(name)
	if tool == nil {
		d.record(ctx, InvocationRecord{
			ID: uuid.New().String(), SessionID: sessionID, Tool: name,
			Outcome: "rejected", Detail: "unknown tool",
		})
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	argObj, err := decodeArgs(args)
	if err != nil {
		d.record(ctx, InvocationRecord{
			ID: uuid.New().String(), SessionID: sessionID, Tool: name,
			Outcome: "rejected", Detail: err.Error(),
		})
		return nil, err
	}
	if tool.InputSchema != nil {
		if err := tool.InputSchema.Validate(argObj); err != nil {
			d.record(ctx, InvocationRecord{
				ID: uuid.New().String(), SessionID: sessionID, Tool: name,
				Outcome: "rejected", Detail: err.Error(),
			})
			return nil, err
		}
	}

	requestID := uuid.New().String()
	started := time.Now()

	d.logger.Debug("tool invocation",
		"tool_name", name,
		"request_id", requestID,
		"session_id", sessionID,
	)

	output, err := d.call(ctx, tool, args)
	elapsed := time.Since(started)

	if err != nil {
		d.logger.Warn("tool handler failed",
			"tool_name", name,
			"request_id", requestID,
			"error", err,
		)
		d.record(ctx, InvocationRecord{
			ID: requestID, SessionID: sessionID, Tool: name,
			Outcome: "error", Duration: elapsed, Detail: err.Error(),
		})
		return &Result{
			Content: []Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}

	d.logger.Debug("tool invocation complete",
		"tool_name", name,
		"request_id", requestID,
		"duration", elapsed,
	)
	d.record(ctx, InvocationRecord{
		ID: requestID, SessionID: sessionID, Tool: name,
		Outcome: "ok", Duration: elapsed,
	})
	return &Result{
		Content: []Content{{Type: "text", Text: string(output)}},
	}, nil
}

// call runs the handler with panic containment. A panicking handler is
// reported like any other handler failure.
func (d *Dispatcher) call(ctx context.Context, tool *Tool, args json.RawMessage) (output json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool handler panicked: %v", r)
		}
	}()
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return tool.Handler(ctx, args)
}

func (d *Dispatcher) record(ctx context.Context, inv InvocationRecord) {
	if d.recorder == nil {
		return
	}
	d.recorder.RecordInvocation(ctx, inv)
}

// decodeArgs parses the raw argument JSON into an object for validation.
// Empty or null arguments validate as an empty object.
func decodeArgs(args json.RawMessage) (map[string]any, error) {
	if len(args) == 0 || string(args) == "null" {
		return map[string]any{}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(args, &obj); err != nil {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "arguments", Message: "must be a JSON object"},
		}}
	}
	return obj, nil
}
