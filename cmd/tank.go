package cmd

import (
	"github.com/spf13/cobra"
)

func tankCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tank",
		Short: "show how each fill-up was split",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "list tanks, the latest five unless --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			tanks, err := rt.service.Tanks(cmd.Context())
			if err != nil {
				return err
			}
			return printTanks(cmd.OutOrStdout(), newPrinter(s.cfg.Locale), tanks, rt.service.Members(), all)
		},
	}
	list.Flags().BoolP("all", "a", false, "list every tank")
	cmd.AddCommand(list)
	return cmd
}
