package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/eadimport"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of eadimport",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "eadimport version %s\n", eadimport.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
