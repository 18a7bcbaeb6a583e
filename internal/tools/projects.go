package tools

import (
	"context"
	"encoding/json"

	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

type project struct {
	Key        any `json:"key"`
	Name       any `json:"name"`
	Visibility any `json:"visibility"`
}

type projectsResult struct {
	Total    int       `json:"total"`
	Projects []project `json:"projects"`
}

func (h *Handler) listProjects(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	v, err := h.remote.Get(ctx, pathProjectsSearch, nil, callTimeout)
	if err == nil && sonar.Object(v) == nil {
		err = errNotObject
	}
	if err != nil {
		f := classify(err)
		h.logFailure("list_projects", f)
		return errorResult(projectsWording.render(f)), nil
	}

	components := sonar.Objects(sonar.Object(v), "components")
	out := projectsResult{Total: len(components), Projects: make([]project, 0, len(components))}
	for _, c := range components {
		out.Projects = append(out.Projects, project{
			Key:        c["key"],
			Name:       c["name"],
			Visibility: c["visibility"],
		})
	}
	return jsonResult(out), nil
}
