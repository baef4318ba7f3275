package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/eadimport/pkg/core"
)

var (
	listJSON bool
	listType string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the resources of the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openReadOnly()
		if err != nil {
			return err
		}
		resources, err := store.List(cmd.Context(), listType)
		if err != nil {
			return fmt.Errorf("failed to list resources: %w", err)
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resources)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REF\tCLASS\tIDENTIFIER\tTITLE")
		for _, res := range resources {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Ref, res.Data.Class, identifier(res), res.Title())
		}
		return w.Flush()
	},
}

func identifier(res core.Resource) string {
	for _, v := range res.Data.Values.Get("dcterms:identifier") {
		if v.Type == core.ValueLiteral {
			return v.Value
		}
	}
	return ""
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listType, "type", "", "Resource type (items, item_sets, media)")
	rootCmd.AddCommand(listCmd)
}
