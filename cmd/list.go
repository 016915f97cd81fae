package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/cmdhub/internal/cmdtree"
	"github.com/conneroisu/cmdhub/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered entries",
	Long: `List the entries registered in a dimension, in registration order.

Examples:
  cmdhub list                     # List commands in table format
  cmdhub list -f json             # Output as JSON
  cmdhub list --dimension processor
  cmdhub list -f yaml --dimension error-handler`,
	RunE: runList,
}

var (
	listFormat    string
	listDimension string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "", "Output format (table, json, yaml)")
	listCmd.Flags().StringVarP(&listDimension, "dimension", "d", string(registry.DefaultDimension), "Registry dimension to list")
}

// entryRow is the flattened, output-friendly view of a registry entry.
type entryRow struct {
	Name    string   `json:"name" yaml:"name"`
	Kind    string   `json:"kind" yaml:"kind"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Help    string   `json:"help,omitempty" yaml:"help,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}

	dim, err := dimensionFromFlag(listDimension)
	if err != nil {
		return err
	}

	entries, err := app.hub.List(dim)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No entries registered.")
		return nil
	}

	rows := make([]entryRow, len(entries))
	for i, entry := range entries {
		rows[i] = entryRow{
			Name:    entry.Name,
			Kind:    entry.Target.Kind().String(),
			Aliases: entry.Aliases,
			Help:    entryHelp(entry),
		}
	}

	format := listFormat
	if format == "" {
		format = app.cfg.Output.Format
	}

	switch strings.ToLower(format) {
	case "json":
		return outputJSON(rows)
	case "yaml":
		return outputYAML(rows)
	case "table":
		return outputTable(rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func entryHelp(entry *registry.Entry) string {
	if help, ok := entry.Metadata[cmdtree.MetadataHelp].(string); ok {
		return help
	}
	return ""
}

func outputJSON(rows []entryRow) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func outputYAML(rows []entryRow) error {
	return yaml.NewEncoder(os.Stdout).Encode(rows)
}

func outputTable(rows []entryRow) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tALIASES\tHELP")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			row.Name, row.Kind, strings.Join(row.Aliases, ","), row.Help)
	}
	return w.Flush()
}
