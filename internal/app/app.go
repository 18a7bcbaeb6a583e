// Package app wires configuration, the SonarQube client and the tool
// registry together.
package app

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/golovatskygroup/sonarqube-mcp/internal/config"
	"github.com/golovatskygroup/sonarqube-mcp/internal/registry"
	"github.com/golovatskygroup/sonarqube-mcp/internal/server"
	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
	"github.com/golovatskygroup/sonarqube-mcp/internal/tools"
)

// NewRegistry builds the tool registry backed by a client for cfg.
func NewRegistry(cfg config.Config, logger logrus.FieldLogger) (*registry.Registry, error) {
	client := sonar.NewClient(sonar.Options{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.Token,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})
	reg := registry.NewRegistry()
	if err := tools.NewHandler(client, cfg.DefaultProjectKey, logger).Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewServer builds a stdio MCP server for cfg.
func NewServer(cfg config.Config, in io.Reader, out io.Writer, logger logrus.FieldLogger) (*server.Server, error) {
	reg, err := NewRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	return server.New(server.Options{In: in, Out: out, Registry: reg, Logger: logger}), nil
}
