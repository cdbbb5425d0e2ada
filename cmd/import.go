package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fueltrack/db/csvfile"
)

var inputPath string

// importCommand copies the readings of a csv data directory into the
// configured store and recomputes everything derived from them.
func importCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "import readings from a csv data directory",
		Long:    `read records.csv from the input directory, replace the configured store's readings with it and recompute trips, tank ids and tank shares. tanks.csv is ignored since it is derived.`,
		Example: `fueltrack import --input ./backup --store badger`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return cmd.Help()
			}
			members, err := s.cfg.MemberList()
			if err != nil {
				return err
			}
			loc, err := s.cfg.Location()
			if err != nil {
				return err
			}
			source, err := csvfile.NewCSVFuelDBWrapper(inputPath, members, loc)
			if err != nil {
				return err
			}
			records, err := source.LoadRecords(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to parse CSV: %w", err)
			}
			if len(records) == 0 {
				return fmt.Errorf("no records found in %s", inputPath)
			}

			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store.SaveRecords(cmd.Context(), records); err != nil {
				return err
			}
			report, err := rt.service.Recompute(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d records, %d tanks\n", report.Records, report.Tanks)
			if violations, err := rt.service.Check(cmd.Context()); err == nil && len(violations) > 0 {
				fmt.Fprintf(out, "Warning: %d readings are out of order, run check for details\n", len(violations))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "csv data directory to import (required)")
	return cmd
}
