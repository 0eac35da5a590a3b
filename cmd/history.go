package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent validation cycle summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			cycles, err := app.history.RecentCycles(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load cycle history: %w", err)
			}
			if len(cycles) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No cycles recorded yet.")
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tACCOUNT\tRECORDS\tOK\tFAILED\t+VALID\t+INVALID")
			for _, cycle := range cycles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					cycle.FinishedAt.Format("2006-01-02 15:04:05"),
					domain.MaskEmail(cycle.Account),
					cycle.Records,
					cycle.Successes,
					cycle.Failures,
					cycle.DeltaValid,
					cycle.DeltaInvalid,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of cycles to show")

	return cmd
}
