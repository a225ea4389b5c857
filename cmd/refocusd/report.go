package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"refocusd/internal/intervene"
	"refocusd/internal/profile"
)

func newReportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print per-strategy effectiveness from the behavior ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			profiles := profile.NewFileStore(cfg.ProfilePath)
			if err := profiles.Load(); err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			p, _ := profiles.Get()

			fmt.Fprintf(cmd.OutOrStdout(), "commitment: %q (%s)\n", p.Commitment.Text, p.Commitment.Date)
			fmt.Fprintf(cmd.OutOrStdout(), "current strategy: %s", p.Behavior.CurrentStrategy)
			if !p.Behavior.LastAdapted.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), " (last adapted %s)", p.Behavior.LastAdapted.Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STRATEGY\tRECORDS\tSCORE\tCOMPLIANCE\tOVERRIDE\tIGNORE\tAVG REFOCUS\tTREND")
			for _, s := range profile.KnownStrategies {
				history := intervene.ByStrategy(p.Behavior.History, s)
				m := intervene.CalculateMetrics(history)
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.0f%%\t%.0f%%\t%.0f%%\t%.0fs\t%s\n",
					s, len(history), intervene.Score(history),
					m.ComplianceRate*100, m.OverrideRate*100, m.IgnoreRate*100,
					m.AverageRefocus, m.RecentTrend)
			}
			return w.Flush()
		},
	}
}
