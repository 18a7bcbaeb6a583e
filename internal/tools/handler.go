// Package tools implements the SonarQube tools exposed over MCP. Each tool
// performs one GET against the SonarQube Web API, reshapes the payload and
// converts every failure into a tool result.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/golovatskygroup/sonarqube-mcp/internal/logging"
	"github.com/golovatskygroup/sonarqube-mcp/internal/registry"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

// Remote is the subset of *sonar.Client the tools need.
type Remote interface {
	Get(ctx context.Context, path string, query url.Values, timeout time.Duration) (any, error)
	BaseURL() string
}

// Handler processes SonarQube tool calls.
type Handler struct {
	remote         Remote
	defaultProject string
	log            *logrus.Entry
}

// NewHandler creates a new tool handler. defaultProject is used whenever a
// call omits project_key.
func NewHandler(remote Remote, defaultProject string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		remote:         remote,
		defaultProject: defaultProject,
		log:            logging.Component(logger, "tools"),
	}
}

const noArgsSchema = `{"type": "object", "properties": {}}`

func (h *Handler) projectKeySchema() json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_key": map[string]any{
				"type":        "string",
				"description": "SonarQube project key (default: " + h.defaultProject + ")",
				"default":     h.defaultProject,
			},
		},
	})
	return b
}

// Entries returns the tool definitions bound to this handler.
func (h *Handler) Entries() []registry.Entry {
	return []registry.Entry{
		{
			Tool: mcp.Tool{
				Name:        "sonar_health_check",
				Description: "Check the health status of the SonarQube server.",
				InputSchema: json.RawMessage(noArgsSchema),
			},
			Handle: h.sonarHealthCheck,
		},
		{
			Tool: mcp.Tool{
				Name:        "get_token_info",
				Description: "Validate the current token and get user info.",
				InputSchema: json.RawMessage(noArgsSchema),
			},
			Handle: h.getTokenInfo,
		},
		{
			Tool: mcp.Tool{
				Name:        "get_project_issues",
				Description: "Fetch unresolved issues (bugs, code smells, vulnerabilities) for a given project. Returns the first 10 issues and whether more exist.",
				InputSchema: h.projectKeySchema(),
			},
			Handle: h.getProjectIssues,
		},
		{
			Tool: mcp.Tool{
				Name:        "list_projects",
				Description: "List all accessible SonarQube projects.",
				InputSchema: json.RawMessage(noArgsSchema),
			},
			Handle: h.listProjects,
		},
		{
			Tool: mcp.Tool{
				Name:        "get_project_metrics",
				Description: "Fetch SonarQube metrics like bugs, vulnerabilities, code smells, coverage, duplication and ratings for a given project.",
				InputSchema: h.projectKeySchema(),
			},
			Handle: h.getProjectMetrics,
		},
	}
}

// Register adds every tool to reg.
func (h *Handler) Register(reg *registry.Registry) error {
	for _, e := range h.Entries() {
		if err := reg.Register(e); err != nil {
			return fmt.Errorf("register %s: %w", e.Tool.Name, err)
		}
	}
	return nil
}

type projectKeyInput struct {
	ProjectKey string `json:"project_key,omitempty"`
}

func (h *Handler) projectKey(args json.RawMessage) (string, error) {
	var in projectKeyInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", err
		}
	}
	key := strings.TrimSpace(in.ProjectKey)
	if key == "" {
		key = h.defaultProject
	}
	return key, nil
}

func (h *Handler) logFailure(tool string, f failure) {
	fields := logrus.Fields{"tool": tool, "category": f.category.String()}
	if f.code != 0 {
		fields["status"] = f.code
	}
	h.log.WithFields(fields).Warn(f.message)
}
