package app

import (
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the "history" subcommand.
func NewHistoryCommand(global *globalOptions) *cobra.Command {
	var (
		limit int
		id    uint
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the reports stored with --save.",
		Long: `List the runs stored in the history database, most recent first, or show
one run with its per-file counters.

Examples:
  lcovparse history --limit 5
  lcovparse history --id 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(global.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if cmd.Flags().Changed("id") {
				run, err := s.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), run, true)
			}

			runs, err := s.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), runs, true)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 = all)")
	cmd.Flags().UintVar(&id, "id", 0, "Show a single run with its paths")

	return cmd
}
