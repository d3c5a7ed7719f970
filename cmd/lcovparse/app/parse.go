package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/lcov-parse/internal/exec"
	"github.com/zjy-dev/lcov-parse/internal/logger"
	"github.com/zjy-dev/lcov-parse/internal/parser"
	"github.com/zjy-dev/lcov-parse/internal/report"
)

// NewParseCommand creates the "parse" subcommand.
func NewParseCommand(global *globalOptions) *cobra.Command {
	var (
		flags   parseFlags
		output  string
		compact bool
		command string
	)

	cmd := &cobra.Command{
		Use:   "parse [tracefile|-]",
		Short: "Parse a tracefile and print the report as JSON.",
		Long: `Parse an LCOV tracefile and print the resulting report as JSON.
The tracefile is read from standard input when omitted or "-".

Examples:
  # Summary of every source file
  lcovparse parse coverage/lcov.info --root "$PWD"

  # Tree of directories, only for src/
  lcovparse parse coverage/lcov.info --mode tree --include 'src/**'

  # Read from a pipe and keep the report in the history
  cat lcov.info | lcovparse parse - --save

  # Capture the tracefile with lcov first
  lcovparse parse --command "lcov --capture --directory build --output-file -"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, global.cfg)
			if err != nil {
				return err
			}

			source := "-"
			if len(args) == 1 {
				source = args[0]
			}

			var doc report.Document
			if command != "" {
				if len(args) > 0 {
					return fmt.Errorf("--command cannot be combined with a tracefile argument")
				}
				source = command
				doc, err = captureAndParse(cmd.Context(), command, opts)
			} else {
				doc, err = parseSource(cmd.Context(), cmd, source, opts)
			}
			if err != nil {
				return err
			}
			logger.Info("Parsed %s: %d paths", source, len(doc.PathList()))

			if flags.save {
				if err := saveReport(cmd.Context(), global, source, doc); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return writeJSON(out, doc, !compact)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print the JSON on a single line")
	cmd.Flags().StringVar(&command, "command", "", "Shell command printing the tracefile on stdout, run instead of reading a file")

	return cmd
}

func parseSource(ctx context.Context, cmd *cobra.Command, source string, opts parser.Options) (report.Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if source == "-" {
		return parser.ParseReader(ctx, cmd.InOrStdin(), opts)
	}
	return parser.ParseFile(ctx, source, opts)
}

func captureAndParse(ctx context.Context, command string, opts parser.Options) (report.Document, error) {
	logger.Info("Capturing tracefile: %s", command)
	content, err := exec.Capture(ctx, exec.NewCommandExecutor(), command)
	if err != nil {
		return nil, err
	}
	return parser.ParseContent(content, opts)
}

func saveReport(ctx context.Context, global *globalOptions, source string, doc report.Document) error {
	s, err := openStore(global.cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.Save(ctx, source, doc)
	if err != nil {
		return err
	}
	logger.Info("Saved run %d to %s", run.ID, global.cfg.Store.DSN)
	return nil
}
