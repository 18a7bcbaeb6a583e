package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golovatskygroup/sonarqube-mcp/internal/app"
)

var errToolFailed = errors.New("tool returned an error")

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Invoke one tool and print its result",
		Example: `  sonarqube-mcp call sonar_health_check
  sonarqube-mcp call get_project_issues '{"project_key": "my-app"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			reg, err := app.NewRegistry(cfg, logger)
			if err != nil {
				return err
			}

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}
			res, err := reg.Call(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text())
			if res.IsError {
				return errToolFailed
			}
			return nil
		},
	}
}
