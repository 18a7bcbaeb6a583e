package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/golovatskygroup/sonarqube-mcp/internal/logging"
	"github.com/golovatskygroup/sonarqube-mcp/internal/registry"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

const (
	Name    = "SonarQube MCP"
	Version = "1.0.0"
)

// Options configures a Server.
type Options struct {
	In       io.Reader
	Out      io.Writer
	Registry *registry.Registry
	Logger   logrus.FieldLogger
}

// Server is the MCP stdio server exposing the registered tools.
type Server struct {
	transport *mcp.Transport
	registry  *registry.Registry
	log       *logrus.Entry
}

// New creates a new MCP server
func New(opts Options) *Server {
	return &Server{
		transport: mcp.NewTransport(opts.In, opts.Out),
		registry:  opts.Registry,
		log:       logging.Component(opts.Logger, "server"),
	}
}

type inbound struct {
	req *mcp.Request
	err error
}

// Run serves requests until the input is exhausted or ctx is cancelled.
// Requests are handled one at a time, in arrival order.
//
// A read blocked on the input cannot be interrupted, so on cancellation Run
// returns without waiting for the reader.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	msgs := make(chan inbound)

	g.Go(func() error {
		defer close(msgs)
		for {
			req, err := s.transport.ReadMessage()
			if errors.Is(err, io.EOF) {
				return nil
			}
			select {
			case msgs <- inbound{req: req, err: err}:
			case <-gctx.Done():
				return nil
			}
			if err != nil && !errors.Is(err, mcp.ErrMalformedMessage) {
				return nil
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case m, ok := <-msgs:
				if !ok {
					return nil
				}
				if err := s.dispatch(gctx, m); err != nil {
					return err
				}
			}
		}
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	s.log.WithField("tools", s.registry.ToolCount()).Info("serving on stdio")
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		return nil
	}
}

func (s *Server) dispatch(ctx context.Context, m inbound) error {
	if m.err != nil {
		if errors.Is(m.err, mcp.ErrMalformedMessage) {
			s.log.WithError(m.err).Warn("discarding malformed message")
			return s.write(mcp.NewErrorResponse(nil, mcp.ParseError, "Parse error: "+m.err.Error()))
		}
		return fmt.Errorf("read message: %w", m.err)
	}

	resp := s.handleRequest(ctx, m.req)
	if resp == nil {
		return nil
	}
	return s.write(resp)
}

func (s *Server) write(resp *mcp.Response) error {
	if err := s.transport.WriteResponse(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) handleRequest(ctx context.Context, req *mcp.Request) *mcp.Response {
	if strings.HasPrefix(req.Method, "notifications/") {
		s.log.WithField("method", req.Method).Debug("notification")
		return nil
	}
	if req.IsNotification() {
		// JSON-RPC forbids replying to a request without an id.
		s.log.WithField("method", req.Method).Debug("ignoring request without id")
		return nil
	}

	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return mcp.NewErrorResponse(req.ID, mcp.InvalidRequest, `Invalid request: expected jsonrpc "2.0" and a method`)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleListTools(req)
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "ping":
		return s.handlePing(req)
	default:
		return mcp.NewErrorResponse(req.ID, mcp.MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *mcp.Request) *mcp.Response {
	var params mcp.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return mcp.NewErrorResponse(req.ID, mcp.InvalidParams, "Invalid params: "+err.Error())
		}
	}
	s.log.WithFields(logrus.Fields{
		"client":           params.ClientInfo.Name,
		"client_version":   params.ClientInfo.Version,
		"protocol_version": params.ProtocolVersion,
	}).Info("initialize")

	result := mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools: &mcp.ToolsCapability{},
		},
		ServerInfo: mcp.ServerInfo{
			Name:    Name,
			Version: Version,
		},
		Instructions: s.buildInstructions(),
	}

	resp, err := mcp.NewResponse(req.ID, result)
	if err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InternalError, err.Error())
	}
	return resp
}

func (s *Server) handleListTools(req *mcp.Request) *mcp.Response {
	resp, err := mcp.NewResponse(req.ID, mcp.ListToolsResult{Tools: s.registry.List()})
	if err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InternalError, err.Error())
	}
	return resp
}

func (s *Server) handleCallTool(ctx context.Context, req *mcp.Request) *mcp.Response {
	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InvalidParams, "Invalid params: "+err.Error())
	}
	if strings.TrimSpace(params.Name) == "" {
		return mcp.NewErrorResponse(req.ID, mcp.InvalidParams, "Invalid params: tool name is required")
	}

	log := s.log.WithFields(logrus.Fields{
		"call_id": uuid.NewString(),
		"tool":    params.Name,
	})
	start := time.Now()

	result, err := s.registry.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		var unknown *registry.UnknownToolError
		var badArgs *registry.ArgumentError
		switch {
		case errors.As(err, &unknown), errors.As(err, &badArgs):
			result = errorText(err.Error())
		default:
			log.WithError(err).Error("tool call failed")
			return mcp.NewErrorResponse(req.ID, mcp.InternalError, err.Error())
		}
	}

	if result == nil {
		result = errorText(fmt.Sprintf("tool %s returned no result", params.Name))
	}

	log.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"is_error":    result.IsError,
	}).Info("tool call")

	resp, err := mcp.NewResponse(req.ID, result)
	if err != nil {
		return mcp.NewErrorResponse(req.ID, mcp.InternalError, err.Error())
	}
	return resp
}

func (s *Server) handlePing(req *mcp.Request) *mcp.Response {
	resp, _ := mcp.NewResponse(req.ID, map[string]any{})
	return resp
}

func (s *Server) buildInstructions() string {
	var sb strings.Builder
	sb.WriteString("SonarQube MCP server. Read-only access to a SonarQube instance.\n\n")
	sb.WriteString("Available tools:\n")
	for _, t := range s.registry.List() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
	}
	sb.WriteString("\nget_project_issues and get_project_metrics take an optional project_key; the configured default project is used when it is omitted.\n")
	return sb.String()
}

func errorText(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: "text", Text: msg}},
		IsError: true,
	}
}
