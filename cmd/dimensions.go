package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dimensionsCmd = &cobra.Command{
	Use:   "dimensions",
	Short: "Show populated registry dimensions",
	Long:  `List every dimension with at least one registered entry, with entry counts.`,
	RunE:  runDimensions,
}

func init() {
	rootCmd.AddCommand(dimensionsCmd)
}

func runDimensions(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}

	dims, err := app.hub.PopulatedDimensions()
	if err != nil {
		return err
	}

	if len(dims) == 0 {
		fmt.Println("No dimensions populated.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DIMENSION\tENTRIES")
	for _, dim := range dims {
		entries, err := app.hub.List(dim)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", dim, len(entries))
	}
	return w.Flush()
}
