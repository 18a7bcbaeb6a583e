package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

const (
	pathSystemStatus = "/api/system/status"
	healthUnknown    = "Unknown"
)

// sonarHealthCheck reports the server status as a plain sentence. Unlike the
// other tools it renders failures as text rather than an error object.
func (h *Handler) sonarHealthCheck(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	v, err := h.remote.Get(ctx, pathSystemStatus, nil, callTimeout)
	if err == nil && sonar.Object(v) == nil {
		err = errNotObject
	}
	if err != nil {
		f := classify(err)
		h.logFailure("sonar_health_check", f)
		res := textResult(healthText(f, h.remote.BaseURL()))
		res.IsError = true
		return res, nil
	}

	status := valueOr(sonar.Object(v), "status", healthUnknown)
	return textResult(fmt.Sprintf("🩺 SonarQube server is up! Status: %v", status)), nil
}
