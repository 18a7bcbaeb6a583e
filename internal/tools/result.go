package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

type errorOutput struct {
	Error string `json:"error"`
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(msg string) *mcp.CallToolResult {
	return jsonErrorResult(errorOutput{Error: msg})
}

// jsonResult renders v as indented JSON. Non-ASCII and HTML characters are
// left unescaped so messages read the same as they were written.
func jsonResult(v any) *mcp.CallToolResult {
	b, err := marshal(v)
	if err != nil {
		res := textResult(fmt.Sprintf(`{"error": %q}`, err.Error()))
		res.IsError = true
		return res
	}
	return textResult(b)
}

func jsonErrorResult(v any) *mcp.CallToolResult {
	res := jsonResult(v)
	res.IsError = true
	return res
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
