package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func checkCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "report readings that break time and odometer ordering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			violations, err := rt.service.Check(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(violations) == 0 {
				fmt.Fprintln(out, "all readings are in order")
				return nil
			}
			for _, v := range violations {
				fmt.Fprintf(out, "record %d: %v\n", v.RecordID, v.Err)
			}
			return fmt.Errorf("%d readings out of order", len(violations))
		},
	}
}
