package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zjy-dev/lcov-parse/internal/config"
	"github.com/zjy-dev/lcov-parse/internal/logger"
	"github.com/zjy-dev/lcov-parse/internal/parser"
	"github.com/zjy-dev/lcov-parse/internal/store"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logDir     string

	cfg *config.Config
}

// NewLcovParseCommand creates the root command for the lcovparse tool.
func NewLcovParseCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "lcovparse",
		Short: "Parse LCOV tracefiles into JSON coverage reports.",
		Long: `lcovparse reads LCOV tracefiles (lcov.info) and turns them into coverage
reports: a simple per-file summary, a detailed report with line, function and
branch details, or a tree grouped by directory.

Defaults are read from configs/config.yaml under the 'config' section and
can be overridden with LCOVPARSE_* environment variables and flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: configs/config.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "Also write logs to a timestamped file in this directory")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// load reads the configuration and sets the logger up. Flags that were
// set on the command line win over the config.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfigFile(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.LogDir = o.logDir
	}

	if cfg.LogDir != "" {
		if err := logger.InitWithFile(cfg.LogLevel, cfg.LogDir); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	} else {
		logger.Init(cfg.LogLevel)
	}
	logger.SetLevel(cfg.LogLevel)
	logger.SetColorEnable(term.IsTerminal(int(os.Stderr.Fd())))

	o.cfg = cfg
	return nil
}

// parseFlags are the report flags of the parse and watch commands.
type parseFlags struct {
	root    string
	mode    string
	include []string
	exclude []string
	save    bool
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "Root directory source file paths are made relative to")
	cmd.Flags().StringVar(&f.mode, "mode", "simple", "Report mode: simple, detail, tree")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "Only keep source files matching these glob patterns")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Drop source files matching these glob patterns")
	cmd.Flags().BoolVar(&f.save, "save", false, "Store every report in the history database")
}

// options merges the flags into the configured parser options.
func (f *parseFlags) options(cmd *cobra.Command, cfg *config.Config) (parser.Options, error) {
	if cmd.Flags().Changed("root") {
		cfg.RootDirectory = f.root
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = f.mode
	}
	if cmd.Flags().Changed("include") {
		cfg.Include = f.include
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = f.exclude
	}

	mode, err := cfg.ReportMode()
	if err != nil {
		return parser.Options{}, err
	}
	return parser.Options{
		RootDirectory: cfg.RootDirectory,
		Mode:          mode,
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
	}, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.Connect(cfg.Store.DSN, cfg.Store.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", cfg.Store.DSN, err)
	}
	return s, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
