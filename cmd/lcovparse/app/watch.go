package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/lcov-parse/internal/logger"
	"github.com/zjy-dev/lcov-parse/internal/report"
	"github.com/zjy-dev/lcov-parse/internal/state"
	"github.com/zjy-dev/lcov-parse/internal/store"
	"github.com/zjy-dev/lcov-parse/internal/watch"
)

// NewWatchCommand creates the "watch" subcommand.
func NewWatchCommand(global *globalOptions) *cobra.Command {
	var (
		flags    parseFlags
		debounce time.Duration
		stateDir string
	)

	cmd := &cobra.Command{
		Use:   "watch <tracefile>",
		Short: "Re-parse a tracefile whenever it changes.",
		Long: `Watch an LCOV tracefile and print a JSON report, one per line, every time
its content changes. Identical content is skipped using the state kept in
the state directory. Stop with Ctrl+C.

Examples:
  lcovparse watch coverage/lcov.info --root "$PWD" --debounce 1s
  lcovparse watch coverage/lcov.info --mode tree --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := global.cfg
			opts, err := flags.options(cmd, cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
			}
			if !cmd.Flags().Changed("state-dir") {
				stateDir = cfg.Watch.StateDir
			}

			source := args[0]
			st := state.NewFileManager(stateDir, source)
			if err := st.Load(); err != nil {
				return err
			}
			previous := st.GetState()
			if previous.ParseCount > 0 {
				logger.Info("Resuming watch of %s after %d parses", source, previous.ParseCount)
			}

			var history *store.Store
			if flags.save {
				if history, err = openStore(cfg); err != nil {
					return err
				}
				defer history.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			handler := func(doc report.Document, err error) {
				if err != nil {
					return
				}
				if history != nil {
					if _, err := history.Save(ctx, source, doc); err != nil {
						logger.Error("Failed to save report: %v", err)
					}
				}
				if err := writeJSON(out, doc, false); err != nil {
					logger.Error("Failed to write report: %v", err)
				}
			}

			w := watch.New(source, opts, &watch.Config{Debounce: debounce, State: st}, handler)
			if err := w.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()

			summary := w.Stop()
			logger.Info("Watch finished after %s: %d parses, %d failures, %d unchanged",
				summary.Duration.Round(time.Millisecond), summary.Parses, summary.Failures, summary.Skipped)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Delay before re-parsing after a change")
	cmd.Flags().StringVar(&stateDir, "state-dir", ".lcovparse", "Directory of the watch state file")

	return cmd
}
