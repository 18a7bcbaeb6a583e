package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

// HandlerFunc executes a tool. Tool-level failures are reported inside the
// result; a non-nil error means the call itself could not be served.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error)

// Entry binds a tool definition to its handler.
type Entry struct {
	Tool   mcp.Tool
	Handle HandlerFunc
}

// Registry holds the tools exposed over MCP, in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a tool. Names must be unique and the input schema must compile.
func (r *Registry) Register(e Entry) error {
	name := strings.TrimSpace(e.Tool.Name)
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if e.Handle == nil {
		return fmt.Errorf("tool %s: handler is required", name)
	}
	if len(e.Tool.InputSchema) > 0 {
		if _, err := compileSchema(name, e.Tool.InputSchema); err != nil {
			return fmt.Errorf("tool %s: invalid inputSchema: %w", name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.entries[name] = e
	r.order = append(r.order, name)
	return nil
}

// GetTool returns a tool by name
func (r *Registry) GetTool(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.Tool, ok
}

// List returns every tool in registration order.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].Tool)
	}
	return out
}

// ToolCount returns total number of registered tools
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Suggest returns up to limit registered names that resemble name.
func (r *Registry) Suggest(name string, limit int) []string {
	if limit <= 0 {
		limit = 3
	}
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	r.mu.RLock()
	names := append([]string(nil), r.order...)
	r.mu.RUnlock()

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok || len(out) >= limit {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, rk := range ranks {
		add(rk.Target)
	}
	// Also catch prefixed or decorated names, e.g. "sonar_list_projects".
	for _, n := range names {
		if fuzzy.MatchNormalizedFold(n, query) {
			add(n)
		}
	}
	return out
}

// UnknownToolError is returned by Call for names that were never registered.
type UnknownToolError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownToolError) Error() string {
	msg := fmt.Sprintf("Tool '%s' not found.", e.Name)
	if len(e.Suggestions) > 0 {
		msg += " Did you mean: " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

// ArgumentError is returned by Call when arguments fail schema validation.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string { return e.Err.Error() }
func (e *ArgumentError) Unwrap() error { return e.Err }

// Call validates args against the tool's schema and runs its handler.
// Missing or null arguments are treated as an empty object.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (*mcp.CallToolResult, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownToolError{Name: name, Suggestions: r.Suggest(name, 3)}
	}

	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = json.RawMessage(`{}`)
	}

	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return nil, &ArgumentError{Tool: name, Err: fmt.Errorf("invalid arguments for %s: %v", name, err)}
	}
	if err := validateArgs(name, e.Tool.InputSchema, decoded); err != nil {
		return nil, &ArgumentError{Tool: name, Err: err}
	}
	return e.Handle(ctx, args)
}
