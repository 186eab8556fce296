// ABOUTME: Thread-safe registry mapping tool names to schemas and handlers.
// ABOUTME: Lookup and listing for the dispatcher and the tools/list method.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// Handler executes a tool. Input is the schema-validated argument object as
// JSON; the returned JSON becomes the invocation's payload.
type Handler func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

// Tool pairs a definition with its in-process handler.
type Tool struct {
	Name        string
	Description string
	InputSchema *Schema
	Handler     Handler
}

// Registry maintains the set of invokable tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool. Returns ErrToolCollision if the name is taken.
func (r *Registry) Register(tool *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolCollision, tool.Name)
	}
	r.tools[tool.Name] = tool

	r.logger.Debug("tool registered", "tool_name", tool.Name)
	return nil
}

// Get returns a tool by name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns all tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		list = append(list, tool)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
