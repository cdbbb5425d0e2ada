package cmd

import (
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fueltrack/ledger"
)

const (
	recentRows      = 5
	timestampLayout = "2006-01-02 15:04"
)

// newPrinter formats numbers the way the configured locale writes them,
// e.g. 12.345 for "es".
func newPrinter(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return message.NewPrinter(tag)
}

func tail[T any](rows []T, all bool) []T {
	if all || len(rows) <= recentRows {
		return rows
	}
	return rows[len(rows)-recentRows:]
}

func printRecords(w io.Writer, p *message.Printer, records []ledger.Record, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	p.Fprintf(tw, "ID\tDATE\tUSER\tODOMETER\tTRIP\tTANK\tPAY\t\n")
	for _, r := range tail(records, all) {
		p.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t\n",
			r.ID, r.Timestamp.Format(timestampLayout), r.User, r.Odometer, r.Trip, r.TankID, r.Pay)
	}
	return tw.Flush()
}

func printTanks(w io.Writer, p *message.Printer, tanks []ledger.Tank, members ledger.Members, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	p.Fprintf(tw, "ID\tDATE\tPRICE")
	for _, m := range members {
		p.Fprintf(tw, "\t%s", m)
	}
	p.Fprintf(tw, "\t\n")
	for _, t := range tail(tanks, all) {
		p.Fprintf(tw, "%d\t%s\t%d", t.ID, t.Timestamp.Format(timestampLayout), t.Price)
		for _, m := range members {
			p.Fprintf(tw, "\t%d", t.Shares[m])
		}
		p.Fprintf(tw, "\t\n")
	}
	return tw.Flush()
}
