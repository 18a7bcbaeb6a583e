package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

const projectKeySchema = `{
	"type": "object",
	"properties": {"project_key": {"type": "string"}},
	"additionalProperties": false
}`

func echoEntry(name string, schema string, got *json.RawMessage) Entry {
	return Entry{
		Tool: mcp.Tool{Name: name, Description: name, InputSchema: json.RawMessage(schema)},
		Handle: func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
			if got != nil {
				*got = args
			}
			return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: name}}}, nil
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, n := range []string{"sonar_health_check", "get_token_info", "get_project_issues", "list_projects", "get_project_metrics"} {
		require.NoError(t, r.Register(echoEntry(n, projectKeySchema, nil)))
	}
	return r
}

func TestRegisterRejectsDuplicatesAndBadSchemas(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoEntry("list_projects", `{"type":"object"}`, nil)))

	err := r.Register(echoEntry("list_projects", `{"type":"object"}`, nil))
	assert.ErrorContains(t, err, "already registered")

	err = r.Register(echoEntry("broken", `{"type": 12}`, nil))
	assert.ErrorContains(t, err, "invalid inputSchema")

	err = r.Register(Entry{Tool: mcp.Tool{Name: "nohandler"}})
	assert.ErrorContains(t, err, "handler is required")

	assert.Equal(t, 1, r.ToolCount())
}

func TestListKeepsRegistrationOrder(t *testing.T) {
	r := newTestRegistry(t)
	var names []string
	for _, tl := range r.List() {
		names = append(names, tl.Name)
	}
	assert.Equal(t, []string{"sonar_health_check", "get_token_info", "get_project_issues", "list_projects", "get_project_metrics"}, names)
}

func TestCallNullArgumentsBecomeEmptyObject(t *testing.T) {
	r := NewRegistry()
	var got json.RawMessage
	require.NoError(t, r.Register(echoEntry("list_projects", projectKeySchema, &got)))

	for _, in := range []json.RawMessage{nil, json.RawMessage("null"), json.RawMessage("  ")} {
		res, err := r.Call(context.Background(), "list_projects", in)
		require.NoError(t, err)
		assert.Equal(t, "list_projects", res.Text())
		assert.JSONEq(t, `{}`, string(got))
	}
}

func TestCallValidatesArguments(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Call(context.Background(), "get_project_issues", json.RawMessage(`{"project_key": 42}`))
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "get_project_issues", ae.Tool)
	assert.Contains(t, err.Error(), "invalid arguments for get_project_issues: project_key: expected string")

	_, err = r.Call(context.Background(), "get_project_issues", json.RawMessage(`[1,2]`))
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "get_project_issues: arguments: expected object")

	_, err = r.Call(context.Background(), "get_project_issues", json.RawMessage(`{"projectKey": "demo"}`))
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "arguments: ")
	assert.Contains(t, err.Error(), "projectKey")

	_, err = r.Call(context.Background(), "get_project_issues", json.RawMessage(`{not json`))
	require.ErrorAs(t, err, &ae)

	res, err := r.Call(context.Background(), "get_project_issues", json.RawMessage(`{"project_key": "demo"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestCallUnknownToolSuggests(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Call(context.Background(), "get_issues", nil)
	var ue *UnknownToolError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Suggestions, "get_project_issues")
	assert.Contains(t, err.Error(), "Did you mean")

	assert.Contains(t, r.Suggest("sonar_list_projects", 3), "list_projects")
	assert.Empty(t, r.Suggest("zzzz", 3))
	assert.Empty(t, r.Suggest("", 3))
}

func TestArgumentName(t *testing.T) {
	assert.Equal(t, "arguments", argumentName(""))
	assert.Equal(t, "project_key", argumentName("/project_key"))
	assert.Equal(t, "filter.0", argumentName("/filter/0"))
	assert.Equal(t, "a/b", argumentName("/a~1b"))
}
