package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/movekit/transcheck/internal/engine"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/query"
	"github.com/movekit/transcheck/internal/runerr"
	"github.com/movekit/transcheck/internal/sim"
	"github.com/movekit/transcheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update   bool
	Database string

	config *Config // loaded from --config, nil when absent
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>...",
		Short: "Run scripts and diff their transcripts against golden files",
		Long: `Run each script against a fresh simulator and compare its transcript
against the sibling <script>.exp golden file.

Exit codes:
  0 - every script matched its golden file
  1 - transcript mismatch or aborted run
  2 - command error (missing script, bad config)

Examples:
  transcheck run tests/split.move
  transcheck run tests/*.move --update
  transcheck run tests/persist.move --db state.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files instead of comparing")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist simulator state to this SQLite database")

	return cmd
}

func runScripts(ctx context.Context, opts *RunOptions, paths []string, cmd *cobra.Command) error {
	if opts.ConfigPath != "" {
		cfg, err := LoadConfig(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad configuration", err)
		}
		opts.config = cfg
		if opts.Database == "" {
			opts.Database = cfg.Database
		}
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("script not found: %s", path), err)
		}
		if err := runOne(ctx, opts, path); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s\n", filepath.Base(path))
			fmt.Fprintf(w, "  %v\n", err)
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", filepath.Base(path))
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d script(s) failed", failed))
	}
	return nil
}

// runOne runs a single script against its own simulator instance.
// Scripts never share state: determinism is per-file.
func runOne(ctx context.Context, opts *RunOptions, path string) error {
	var rec sim.Recorder
	var qs *query.Service
	if opts.Database != "" {
		st, err := store.Open(opts.Database, filepath.Base(path))
		if err != nil {
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer st.Close()
		rec = st
		qs = query.NewService(st)
		slog.Debug("persisting run", "db", opts.Database, "run_id", st.RunID())
	}

	// Assign through a concrete nil check: a typed nil in the interface
	// field would defeat the engine's "no query service" detection.
	var qsvc ledger.QueryService
	if qs != nil {
		qsvc = qs
	}

	backend := sim.New(slog.Default(), rec)
	eng := engine.New(slog.Default(), backend, qsvc)
	if cfg := opts.config; cfg != nil {
		eng.SetDefaults(ledger.InitConfig{
			Accounts:        cfg.Accounts,
			MaxGas:          cfg.MaxGas,
			DefaultGasPrice: cfg.DefaultGasPrice,
			Simulator:       true,
		})
	}
	err := eng.RunFile(ctx, path, opts.Update)
	if err == nil {
		return nil
	}

	var re *runerr.RunError
	if errors.As(err, &re) && runerr.IsParseError(err) {
		return WrapExitError(ExitCommandError, "script cannot be parsed", err)
	}
	return err
}
