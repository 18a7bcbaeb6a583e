package tools

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

const pathMeasuresComponent = "/api/measures/component"

var metricKeys = []string{
	"bugs",
	"vulnerabilities",
	"code_smells",
	"coverage",
	"duplicated_lines_density",
	"reliability_rating",
	"security_rating",
	"sqale_rating",
}

type metricsResult struct {
	Project string         `json:"project"`
	Metrics map[string]any `json:"metrics"`
}

// collectMetrics maps metric name to value for every measure that names its
// metric. Metrics the server did not return stay absent.
func collectMetrics(component map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range sonar.Objects(component, "measures") {
		name, ok := m["metric"].(string)
		if !ok {
			continue
		}
		out[name] = m["value"]
	}
	return out
}

func (h *Handler) getProjectMetrics(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
	key, err := h.projectKey(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	q := url.Values{}
	q.Set("component", key)
	q.Set("metricKeys", strings.Join(metricKeys, ","))

	v, err := h.remote.Get(ctx, pathMeasuresComponent, q, callTimeout)
	if err == nil && sonar.Object(v) == nil {
		err = errNotObject
	}
	if err != nil {
		f := classify(err)
		h.logFailure("get_project_metrics", f)
		return errorResult(metricsWording.render(f)), nil
	}

	component := sonar.Object(sonar.Object(v)["component"])
	return jsonResult(metricsResult{Project: key, Metrics: collectMetrics(component)}), nil
}
