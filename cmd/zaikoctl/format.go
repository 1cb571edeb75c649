package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/zaiko-app/zaiko/internal/finance"
	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

const shortIDLen = 8

// yen formats an amount with thousands separators, e.g. ¥12,800 or -¥50.
func yen(n int64) string {
	if n < 0 {
		return "-¥" + humanize.Comma(n)[1:]
	}
	return "¥" + humanize.Comma(n)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// writeItem prints an item with its breakdown and next step.
func writeItem(w io.Writer, item model.Item) {
	b := finance.Of(item)

	fmt.Fprintf(w, "%s  %s  [%s]\n", shortID(item.ID), item.Name, lifecycle.Label(item.Status))

	profit := yen(b.Profit)
	if b.AtRisk() {
		profit += " (at risk)"
	}
	fmt.Fprintf(w, "  price %s | profit %s | commission %s | shipping %s\n",
		yen(b.Price), profit, yen(b.Commission), yen(b.Shipping))

	if item.Completed() {
		fmt.Fprintln(w, "  transaction complete")
		return
	}
	if next, ok := lifecycle.NextLabel(item.Status); ok {
		fmt.Fprintf(w, "  Next: %s\n", next)
	}
}

// writeSummary prints per-stage counts and profit totals.
func writeSummary(w io.Writer, s *finance.Summary) {
	for _, st := range lifecycle.All() {
		fmt.Fprintf(w, "%-18s %d\n", lifecycle.Label(st), s.Stages[st])
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Active items       %d (listed value %s)\n", s.Active, yen(s.ListedValue))
	fmt.Fprintf(w, "Projected profit   %s\n", yen(s.ProjectedProfit))
	fmt.Fprintf(w, "Realised profit    %s (%d completed)\n", yen(s.RealisedProfit), s.Completed)
	fmt.Fprintf(w, "Commission         %s\n", yen(s.Commission))
	if s.AtRisk > 0 {
		fmt.Fprintf(w, "At risk            %s\n", humanize.Comma(int64(s.AtRisk)))
	}
}
