package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/golovatskygroup/sonarqube-mcp/internal/app"
	"github.com/golovatskygroup/sonarqube-mcp/internal/config"
	"github.com/golovatskygroup/sonarqube-mcp/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sonarqube-mcp",
		Short: "MCP server exposing SonarQube over stdio",
		Long: `sonarqube-mcp serves SonarQube tools to MCP clients over stdio.

Environment:
  SONARQUBE_URL     SonarQube base URL (default http://localhost:9000)
  SONARQUBE_TOKEN   user token, sent as the basic-auth username
  PROJECT_KEY       project used when a tool call omits project_key

A .env file in the working directory is loaded first.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(newToolsCmd())
	root.AddCommand(newCallCmd())
	return root
}

// setup resolves configuration and builds the logger. Flags win over the
// config file and the environment.
func setup() (config.Config, *logrus.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"sonarqube_url": cfg.BaseURL,
		"project_key":   cfg.DefaultProjectKey,
		"token":         cfg.Redacted().Token,
	}).Info("starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := app.NewServer(cfg, os.Stdin, os.Stdout, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
