package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose     bool
	logFormat   string
	vaultPath   string
	profilePath string
	gitless     bool
)

var rootCmd = &cobra.Command{
	Use:   "eadimport",
	Short: "Import EAD finding aids as linked resources",
	Long: `eadimport decomposes EAD (Encoded Archival Description) documents into
flat resources and links them back into their hierarchy.

Resources are stored in a vault directory, one file per resource, with each
import recorded as a single git commit.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(newLogger(level, logFormat, os.Stderr))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", ".", "Vault directory")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Run profile (YAML); defaults to eadimport.yaml at the vault root")
	rootCmd.PersistentFlags().BoolVar(&gitless, "gitless", false, "Do not version the vault with git")
}
