package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/eadimport/pkg/fetch"
	"github.com/aretw0/eadimport/pkg/xmldoc"
)

var validateMaxDepth int

var validateCmd = &cobra.Command{
	Use:   "validate <file or url>...",
	Short: "Check that documents are well-formed EAD",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cacheDir, err := tempCache()
		if err != nil {
			return err
		}
		f := fetch.New(cacheDir, nil, nil)

		invalid := 0
		for _, in := range args {
			path, err := f.Local(cmd.Context(), in)
			if err == nil {
				err = checkDocument(path, validateMaxDepth)
			}
			if err != nil {
				invalid++
				fmt.Fprintf(cmd.OutOrStdout(), "invalid %s: %v\n", in, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok      %s\n", in)
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d documents are invalid", invalid, len(args))
		}
		return nil
	},
}

func checkDocument(path string, maxDepth int) error {
	doc, err := xmldoc.LoadFile(path, xmldoc.LoadOptions{MaxDepth: maxDepth})
	if err != nil {
		return err
	}
	return xmldoc.CheckEAD(doc)
}

func init() {
	validateCmd.Flags().IntVar(&validateMaxDepth, "max-depth", 0, "Maximum element nesting")
	rootCmd.AddCommand(validateCmd)
}
