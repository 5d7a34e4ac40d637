package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// formatOdds renders hundredths of decimal odds, e.g. 250 -> "2.50".
func formatOdds(p int) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}

// formatPence renders pence as pounds, e.g. 153210 -> "1532.10".
func formatPence(p int64) string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}

func printCompetitions(w io.Writer, comps []api.Competition) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range comps {
		fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
	}
	return tw.Flush()
}

func printEvents(w io.Writer, events []api.Event) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tOPENS")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Name, e.OpenDate)
	}
	return tw.Flush()
}

func printRunners(w io.Writer, m *api.MarketCatalogue) error {
	fmt.Fprintf(w, "%s  %s\n", m.MarketID, m.MarketName)
	tw := newTable(w)
	fmt.Fprintln(tw, "PRIORITY\tSELECTION\tRUNNER")
	for _, r := range m.SortedRunners() {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", r.SortPriority, r.SelectionID, r.RunnerName)
	}
	return tw.Flush()
}

func printSnapshot(w io.Writer, s model.MarketSnapshot) error {
	fmt.Fprintf(w, "%s  %s  inplay=%t delayed=%t matched=%s\n",
		s.MarketID, s.Status, s.InPlay, s.Delayed, formatPence(s.TotalMatched))
	tw := newTable(w)
	fmt.Fprintln(tw, "SELECTION\tSTATUS\tBACK\tLAY\tLAST")
	for _, r := range s.Runners {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.SelectionID, r.Status, formatOdds(r.BestBack()), formatOdds(r.BestLay()), formatOdds(r.LastPriceTraded))
	}
	return tw.Flush()
}
