package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"

	"github.com/aretw0/eadimport/internal/platform"
	jobsource "github.com/aretw0/eadimport/pkg/adapters/lifecycle"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/inbox"
	"github.com/aretw0/eadimport/pkg/pipeline"
)

var (
	watchPattern  string
	watchDebounce time.Duration
	watchScan     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import the EAD documents dropped into a directory",
	Long: `Watch imports every document written into dir, one run at a time, until
interrupted. The inbox worker is restarted on failure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("inbox is not a directory: %s", dir)
		}

		profile, err := loadProfile(profilePath, vaultPath)
		if err != nil {
			return err
		}
		opts := append(profile.options(), platform.WithAutoInit(true))
		if cmd.Flags().Changed("gitless") {
			opts = append(opts, platform.WithVersioning(!gitless))
		}
		p, err := platform.New(vaultPath, opts...)
		if err != nil {
			return fmt.Errorf("failed to open vault: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events := make(chan core.JobEvent, 16)
		handle := func(ctx context.Context, path string) (*core.Run, error) {
			res, err := p.Run(ctx, pipeline.Input{Path: path})
			if res == nil {
				return nil, err
			}
			return res.Run, err
		}

		spec := supervisor.Spec{
			Name: "ead-inbox",
			Type: string(worker.TypeGoroutine),
			Factory: func() (worker.Worker, error) {
				return inbox.New(inbox.Config{
					Dir:      dir,
					Pattern:  watchPattern,
					Debounce: watchDebounce,
					Scan:     watchScan,
					Logger:   slog.Default(),
					Events:   events,
				}, handle), nil
			},
			Backoff: supervisor.Backoff{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     10 * time.Second,
				Multiplier:      2,
				ResetDuration:   time.Minute,
				MaxRestarts:     5,
				MaxDuration:     5 * time.Minute,
			},
			RestartPolicy: supervisor.RestartOnFailure,
		}
		sup := supervisor.New("eadimport-watch", supervisor.StrategyOneForOne, spec)
		if err := sup.Start(ctx); err != nil {
			return fmt.Errorf("failed to start inbox: %w", err)
		}
		slog.Info("watching inbox", "dir", dir, "pattern", watchPattern)

		src := jobsource.NewSource(events)
		if err := src.Start(ctx); err != nil {
			return err
		}
		for e := range src.Events() {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			return fmt.Errorf("failed to stop inbox: %w", err)
		}
		state := p.State().(pipeline.PipelineState)
		slog.Info("inbox stopped", "runs", state.Runs, "failed", state.Failed)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", inbox.DefaultPattern, "Files to import, relative to the inbox")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet time before a changed file is imported")
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "Also import the documents already in the inbox")
	rootCmd.AddCommand(watchCmd)
}
