package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

const (
	pathIssuesSearch   = "/api/issues/search"
	pathProjectsSearch = "/api/projects/search"

	issuesPageSize = 100
	issuesShown    = 10
)

// issue is the reduced view of a SonarQube issue. Fields missing upstream
// are rendered as null.
type issue struct {
	Key       any `json:"key"`
	Severity  any `json:"severity"`
	Type      any `json:"type"`
	Message   any `json:"message"`
	Component any `json:"component"`
	Line      any `json:"line"`
	Status    any `json:"status"`
}

type issuesResult struct {
	Project     string  `json:"project"`
	TotalIssues int     `json:"total_issues"`
	Issues      []issue `json:"issues"`
	HasMore     bool    `json:"has_more"`
}

type projectNotFound struct {
	Project string `json:"project"`
	Error   string `json:"error"`
}

func normalizeIssue(m map[string]any) issue {
	return issue{
		Key:       m["key"],
		Severity:  m["severity"],
		Type:      m["type"],
		Message:   m["message"],
		Component: m["component"],
		Line:      m["line"],
		Status:    m["status"],
	}
}

// summarizeIssues counts every issue but keeps only the first issuesShown.
func summarizeIssues(project string, raw []map[string]any) issuesResult {
	out := issuesResult{
		Project:     project,
		TotalIssues: len(raw),
		Issues:      make([]issue, 0, min(len(raw), issuesShown)),
		HasMore:     len(raw) > issuesShown,
	}
	for _, m := range raw[:min(len(raw), issuesShown)] {
		out.Issues = append(out.Issues, normalizeIssue(m))
	}
	return out
}

func (h *Handler) getProjectIssues(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	key, err := h.projectKey(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	res, err := h.fetchIssues(ctx, key)
	if err != nil {
		f := classify(err)
		h.logFailure("get_project_issues", f)
		return errorResult(issuesWording.render(f)), nil
	}
	return res, nil
}

func (h *Handler) fetchIssues(ctx context.Context, key string) (*mcp.CallToolResult, error) {
	q := url.Values{}
	q.Set("componentKeys", key)
	q.Set("resolved", "false")
	q.Set("ps", fmt.Sprint(issuesPageSize))

	v, err := h.remote.Get(ctx, pathIssuesSearch, q, searchTimeout)
	if err != nil {
		return nil, err
	}
	data := sonar.Object(v)
	if data == nil {
		return nil, errNotObject
	}
	raw := sonar.Objects(data, "issues")

	// An empty result is ambiguous: the project may be clean or may not exist.
	if len(raw) == 0 {
		keys, err := h.projectKeys(ctx)
		if err != nil {
			return nil, err
		}
		if !contains(keys, key) {
			h.log.WithField("project", key).Info("project not found")
			return jsonErrorResult(projectNotFound{
				Project: key,
				Error:   fmt.Sprintf("Project '%s' not found. Try one of these: %s", key, formatKeyList(keys)),
			}), nil
		}
	}
	return jsonResult(summarizeIssues(key, raw)), nil
}

// projectKeys lists the keys of every project visible to the token.
func (h *Handler) projectKeys(ctx context.Context) ([]string, error) {
	v, err := h.remote.Get(ctx, pathProjectsSearch, nil, callTimeout)
	if err != nil {
		return nil, err
	}
	data := sonar.Object(v)
	if data == nil {
		return nil, errNotObject
	}
	var keys []string
	for _, c := range sonar.Objects(data, "components") {
		if k, ok := c["key"].(string); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// formatKeyList renders keys as a bracketed, single-quoted list:
// ['alpha', 'beta'].
func formatKeyList(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = quoteKey(k)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func quoteKey(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
