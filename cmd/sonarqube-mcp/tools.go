package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/golovatskygroup/sonarqube-mcp/internal/app"
	"github.com/golovatskygroup/sonarqube-mcp/pkg/mcp"
)

func newToolsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools this server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			reg, err := app.NewRegistry(cfg, logger)
			if err != nil {
				return err
			}
			return printTools(cmd.OutOrStdout(), reg.List(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml)")
	return cmd
}

// toolDoc is the YAML view of a tool; the schema is decoded so it renders
// as nested YAML rather than a JSON string.
type toolDoc struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	InputSchema any    `yaml:"input_schema,omitempty"`
}

func printTools(w io.Writer, tools []mcp.Tool, output string) error {
	switch output {
	case "yaml":
		docs := make([]toolDoc, 0, len(tools))
		for _, t := range tools {
			d := toolDoc{Name: t.Name, Description: t.Description}
			if len(t.InputSchema) > 0 {
				if err := json.Unmarshal(t.InputSchema, &d.InputSchema); err != nil {
					return fmt.Errorf("tool %s: decode schema: %w", t.Name, err)
				}
			}
			docs = append(docs, d)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDESCRIPTION")
		for _, t := range tools {
			fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Description)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table or yaml)", output)
	}
}
