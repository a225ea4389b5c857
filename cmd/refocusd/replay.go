package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"refocusd/internal/replay"
)

func newReplayCmd() *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded activity fixture through the pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := replay.LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			results, summary := replay.Run(f)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tAT\tPATTERN\tCONF\tINTERVENED\tSTRATEGY\tRESPONSE\tMATCH")
			for _, r := range results {
				match := "ok"
				if !r.Matched {
					match = "MISMATCH"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%v\t%s\t%s\t%s\n",
					r.Index, r.At.Format(time.TimeOnly), r.Pattern, r.Confidence,
					r.Intervened, r.Strategy, r.Response, match)
			}
			w.Flush()

			fmt.Fprintf(cmd.OutOrStdout(),
				"\n%d steps: %d interventions (%d complied, %d overrode, %d ignored), %d suppressed, %d adaptations\n",
				summary.Steps, summary.Interventions, summary.Complied, summary.Overrode,
				summary.Ignored, summary.Suppressed, summary.Adaptations)

			if summary.Mismatches > 0 {
				fmt.Fprintf(os.Stderr, "%d steps did not match expectations\n", summary.Mismatches)
				return fmt.Errorf("replay failed: %d mismatches", summary.Mismatches)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture JSON file")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}
