package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fueltrack/ledger"
)

func recordCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "add, edit, delete or list odometer readings",
	}
	cmd.AddCommand(recordAddCommand(s))
	cmd.AddCommand(recordEditCommand(s))
	cmd.AddCommand(recordDeleteCommand(s))
	cmd.AddCommand(recordListCommand(s))
	return cmd
}

func entryFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "reading date, "+ledger.DateLayout+" (default today)")
	cmd.Flags().String("time", "", "reading time, "+ledger.TimeLayout+" (default now)")
	cmd.Flags().StringP("user", "u", "", "member who drove")
	cmd.Flags().StringP("odometer", "o", "", "odometer reading in km")
	cmd.Flags().StringP("pay", "p", "", "amount paid at this stop")
}

// applyEntryFlags overwrites the fields of e whose flags were given.
func applyEntryFlags(cmd *cobra.Command, e ledger.Entry) ledger.Entry {
	fields := map[string]*string{
		"date":     &e.Date,
		"time":     &e.Time,
		"user":     &e.User,
		"odometer": &e.Odometer,
		"pay":      &e.Pay,
	}
	for name, dst := range fields {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	return e
}

func entryFromRecord(r ledger.Record) ledger.Entry {
	return ledger.Entry{
		Date:     r.Timestamp.Format(ledger.DateLayout),
		Time:     r.Timestamp.Format("15:04:05"),
		User:     r.User,
		Odometer: strconv.Itoa(r.Odometer),
		Pay:      strconv.Itoa(r.Pay),
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return id, nil
}

func recordAddCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "add a reading",
		Example: `fueltrack record add -u rosario -o 15230 -p 20000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := rt.service.Add(cmd.Context(), applyEntryFlags(cmd, ledger.Entry{}))
			if err != nil {
				return err
			}
			p := newPrinter(s.cfg.Locale)
			p.Fprintf(cmd.OutOrStdout(), "added record %d (odometer %d, tank %d)\n", record.ID, record.Odometer, record.TankID)
			return nil
		},
	}
	entryFlags(cmd)
	return cmd
}

func recordEditCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "edit a reading, flags not given keep their current value",
		Example: `fueltrack record edit 12 -o 15320`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			current, err := rt.service.Record(cmd.Context(), id)
			if err != nil {
				return err
			}
			record, err := rt.service.Edit(cmd.Context(), id, applyEntryFlags(cmd, entryFromRecord(current)))
			if err != nil {
				return err
			}
			p := newPrinter(s.cfg.Locale)
			p.Fprintf(cmd.OutOrStdout(), "updated record %d (odometer %d, tank %d)\n", record.ID, record.Odometer, record.TankID)
			return nil
		},
	}
	entryFlags(cmd)
	return cmd
}

func recordDeleteCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "delete a reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted record %d\n", id)
			return nil
		},
	}
}

func recordListCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list readings, the latest five unless --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			rt, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.service.Records(cmd.Context())
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), newPrinter(s.cfg.Locale), records, all)
		},
	}
	cmd.Flags().BoolP("all", "a", false, "list every reading")
	return cmd
}
