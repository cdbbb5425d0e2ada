package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func recomputeCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "rebuild trips, tank ids and tank shares from the stored readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.service.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records (%d changes), %d tanks (%d changes)\n",
				report.Records, total(report.RecordChanges), report.Tanks, total(report.TankChanges))
			return nil
		},
	}
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
