package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/sonarqube-mcp/internal/logging"
	"github.com/golovatskygroup/sonarqube-mcp/internal/registry"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(registry.Entry{
		Tool: mcp.Tool{
			Name:        "list_projects",
			Description: "List all accessible SonarQube projects.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		},
		Handle: func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: `{"total": 0, "projects": []}`}}}, nil
		},
	}))
	require.NoError(t, reg.Register(registry.Entry{
		Tool: mcp.Tool{
			Name:        "get_project_metrics",
			Description: "Fetch metrics.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"project_key":{"type":"string"}}}`),
		},
		Handle: func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: string(args)}}}, nil
		},
	}))
	return reg
}

// runLines feeds input to a server and returns every response it wrote.
func runLines(t *testing.T, input string) []mcp.Response {
	t.Helper()
	var out strings.Builder
	srv := New(Options{
		In:       strings.NewReader(input),
		Out:      &out,
		Registry: testRegistry(t),
		Logger:   logging.Discard(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Run(ctx))

	var resps []mcp.Response
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	for sc.Scan() {
		var r mcp.Response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		resps = append(resps, r)
	}
	return resps
}

func TestInitializeAndListTools(t *testing.T) {
	resps := runLines(t, strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n"))
	require.Len(t, resps, 3)

	var init mcp.InitializeResult
	require.NoError(t, json.Unmarshal(resps[0].Result, &init))
	assert.Equal(t, mcp.ProtocolVersion, init.ProtocolVersion)
	assert.Equal(t, Name, init.ServerInfo.Name)
	require.NotNil(t, init.Capabilities.Tools)
	assert.Contains(t, init.Instructions, "- list_projects: List all accessible SonarQube projects.")

	var list mcp.ListToolsResult
	require.NoError(t, json.Unmarshal(resps[1].Result, &list))
	require.Len(t, list.Tools, 2)
	assert.Equal(t, "list_projects", list.Tools[0].Name)
	assert.Equal(t, "get_project_metrics", list.Tools[1].Name)

	assert.JSONEq(t, `{}`, string(resps[2].Result))
	assert.EqualValues(t, 3, resps[2].ID)
}

func TestCallTool(t *testing.T) {
	resps := runLines(t, `{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"get_project_metrics","arguments":{"project_key":"demo"}}}`+"\n")
	require.Len(t, resps, 1)
	assert.Equal(t, "a", resps[0].ID)
	require.Nil(t, resps[0].Error)

	var res mcp.CallToolResult
	require.NoError(t, json.Unmarshal(resps[0].Result, &res))
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"project_key":"demo"}`, res.Text())
}

func TestCallToolFailuresAreResults(t *testing.T) {
	resps := runLines(t, strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_project"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_project_metrics","arguments":{"project_key":7}}}`,
	}, "\n"))
	require.Len(t, resps, 2)

	for _, r := range resps {
		require.Nil(t, r.Error)
		var res mcp.CallToolResult
		require.NoError(t, json.Unmarshal(r.Result, &res))
		assert.True(t, res.IsError)
	}

	var unknown mcp.CallToolResult
	require.NoError(t, json.Unmarshal(resps[0].Result, &unknown))
	assert.Contains(t, unknown.Text(), "Tool 'list_project' not found.")
	assert.Contains(t, unknown.Text(), "list_projects")
}

func TestProtocolErrors(t *testing.T) {
	resps := runLines(t, strings.Join([]string{
		`{not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":"nope"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n"))
	require.Len(t, resps, 4)

	require.NotNil(t, resps[0].Error)
	assert.Equal(t, mcp.ParseError, resps[0].Error.Code)
	assert.Nil(t, resps[0].ID)

	require.NotNil(t, resps[1].Error)
	assert.Equal(t, mcp.MethodNotFound, resps[1].Error.Code)

	require.NotNil(t, resps[2].Error)
	assert.Equal(t, mcp.InvalidParams, resps[2].Error.Code)

	assert.Nil(t, resps[3].Error, "server keeps serving after bad input")
}

func TestRunStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	srv := New(Options{In: pr, Out: io.Discard, Registry: testRegistry(t), Logger: logging.Discard()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestInvalidRequest(t *testing.T) {
	resps := runLines(t, strings.Join([]string{
		`{"jsonrpc":"1.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n"))
	require.Len(t, resps, 3)

	for _, r := range resps[:2] {
		require.NotNil(t, r.Error)
		assert.Equal(t, mcp.InvalidRequest, r.Error.Code)
	}
	assert.EqualValues(t, 2, resps[1].ID)
	assert.Nil(t, resps[2].Error)
}
