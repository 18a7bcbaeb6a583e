package tools

import (
	"context"
	"encoding/json"

	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

const pathAuthValidate = "/api/authentication/validate"

type tokenInfo struct {
	Authenticated any `json:"authenticated"`
	Login         any `json:"login"`
}

func (h *Handler) getTokenInfo(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	v, err := h.remote.Get(ctx, pathAuthValidate, nil, callTimeout)
	if err == nil && sonar.Object(v) == nil {
		err = errNotObject
	}
	if err != nil {
		f := classify(err)
		h.logFailure("get_token_info", f)
		return errorResult("Token validation failed: " + f.message), nil
	}

	data := sonar.Object(v)
	return jsonResult(tokenInfo{
		Authenticated: valueOr(data, "valid", false),
		Login:         valueOr(data, "login", "N/A"),
	}), nil
}
