package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/eadimport/internal/platform"
	"github.com/aretw0/eadimport/pkg/baseid"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/pipeline"
)

var (
	importGlob      string
	importDryRun    bool
	importJSON      bool
	importBaseID    string
	importCustomIDs string
	importMaxDepth  int
	importSeparated bool
	importConfig    string
	importFolder    string
	importXSLT      string
	importCacheDir  string
)

var importCmd = &cobra.Command{
	Use:   "import [file or url...]",
	Short: "Import EAD documents into the vault",
	Long: `Import runs the whole pipeline for every document: normalization, record
extraction, original markup reattachment, resource creation and linking.

Each document is one run. A failed run does not stop the next one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := expandInputs(args, importGlob)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no input document")
		}

		profile, err := loadProfile(profilePath, vaultPath)
		if err != nil {
			return err
		}
		if err := applyImportFlags(cmd, profile); err != nil {
			return err
		}

		opts := append(profile.options(), platform.WithAutoInit(true))
		if importDryRun {
			opts = append(opts, platform.WithAdapter(platform.AdapterMemory))
		}
		if cmd.Flags().Changed("gitless") {
			opts = append(opts, platform.WithVersioning(!gitless))
		}

		p, err := platform.New(vaultPath, opts...)
		if err != nil {
			return fmt.Errorf("failed to open vault: %w", err)
		}

		failed := 0
		summaries := make([]runSummary, 0, len(inputs))
		for _, in := range inputs {
			res, err := p.Run(cmd.Context(), pipeline.Input{Path: in})
			summaries = append(summaries, summarize(in, res, err))
			if err != nil {
				failed++
			}
		}

		if err := printSummaries(cmd, summaries); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d imports failed", failed, len(inputs))
		}
		return nil
	},
}

type runSummary struct {
	Source string        `json:"source"`
	RunID  string        `json:"run_id"`
	Status core.JobStatus `json:"status"`
	Stats  core.RunStats `json:"stats"`
	Error  string        `json:"error,omitempty"`
}

func summarize(source string, res *pipeline.Result, err error) runSummary {
	s := runSummary{Source: source, Status: core.JobFailed}
	if res != nil && res.Run != nil {
		s.RunID = res.Run.ID
		s.Status = res.Run.Status()
		s.Stats = res.Run.Stats()
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func printSummaries(cmd *cobra.Command, summaries []runSummary) error {
	out := cmd.OutOrStdout()
	if importJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	for _, s := range summaries {
		fmt.Fprintf(out, "%-9s %s: %d records, %d created, %d linked, %d failed, %d warnings\n",
			s.Status, s.Source, s.Stats.Records, s.Stats.Created, s.Stats.Linked, s.Stats.Failed, s.Stats.Warnings)
		if s.Error != "" {
			fmt.Fprintf(out, "          %s\n", s.Error)
		}
	}
	return nil
}

// expandInputs appends the files matching pattern, relative to the working
// directory, to the explicit arguments.
func expandInputs(args []string, pattern string) ([]string, error) {
	inputs := append([]string(nil), args...)
	if pattern == "" {
		return inputs, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return append(inputs, matches...), nil
}

func applyImportFlags(cmd *cobra.Command, p *Profile) error {
	flags := cmd.Flags()
	if flags.Changed("base-id") {
		p.BaseID = baseid.Strategy(importBaseID)
	}
	if flags.Changed("custom-base-ids") {
		data, err := os.ReadFile(importCustomIDs)
		if err != nil {
			return fmt.Errorf("failed to read custom base ids: %w", err)
		}
		p.CustomBaseIDs = string(data)
		if p.BaseID == "" {
			p.BaseID = baseid.Custom
		}
	}
	if flags.Changed("max-depth") {
		p.MaxDepth = importMaxDepth
	}
	if flags.Changed("records-for-files") {
		p.RecordsForFiles = importSeparated
	}
	if flags.Changed("config") {
		p.Configuration = importConfig
	}
	if flags.Changed("base-folder") {
		abs, err := filepath.Abs(importFolder)
		if err != nil {
			return err
		}
		p.BaseFolder = abs
	}
	if flags.Changed("xsltproc") {
		p.XSLTProc = importXSLT
	}
	if flags.Changed("cache-dir") {
		p.CacheDir = importCacheDir
	}
	return nil
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importGlob, "glob", "", "Also import the files matching this pattern (e.g. 'inbox/**/*.xml')")
	f.BoolVar(&importDryRun, "dry-run", false, "Run against an in-memory store; the vault is not touched")
	f.BoolVar(&importJSON, "json", false, "Print the run summaries as JSON")
	f.StringVar(&importBaseID, "base-id", "", "Base id strategy (documentUri, basename, filename, eadid, publicid, identifier, url, custom)")
	f.StringVar(&importCustomIDs, "custom-base-ids", "", "File of 'key = value' lines for the custom base id strategy")
	f.IntVar(&importMaxDepth, "max-depth", 0, "Maximum element nesting of the input")
	f.BoolVar(&importSeparated, "records-for-files", false, "Import digital objects as separate records")
	f.StringVar(&importConfig, "config", "", "Transform configuration file")
	f.StringVar(&importFolder, "base-folder", "", "Folder of the local files referenced by the documents")
	f.StringVar(&importXSLT, "xsltproc", "", "XSLT processor used for stylesheet files")
	f.StringVar(&importCacheDir, "cache-dir", "", "Keep fetched remote documents in this folder")
	rootCmd.AddCommand(importCmd)
}
