package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kilianp07/evsched/core/optimizer"
	"github.com/kilianp07/evsched/core/report"
)

// printOutcome renders the console report of one instance.
func printOutcome(w io.Writer, o optimizer.Outcome) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nRESULTS %s\n%s\n", rule, o.Instance, rule)
	fmt.Fprintf(w, "Status: %s", o.Status)
	if o.Cached {
		fmt.Fprint(w, " (cached)")
	}
	if o.Relaxation {
		fmt.Fprint(w, " (LP relaxation bound)")
	}
	fmt.Fprintln(w)
	if o.Duration > 0 {
		fmt.Fprintf(w, "Solve time: %.2f s\n", o.Duration.Seconds())
	}
	if o.Objective != nil {
		fmt.Fprintf(w, "Objective value: %.2f\n", *o.Objective)
	}
	if !o.Usable() {
		fmt.Fprintln(w, "No solution to display")
		return
	}
	printVehicles(w, o.Report)
	printTotals(w, o.Report.Totals)
	printChargers(w, o.Report.Chargers)
	if o.Report.Substituted > 0 {
		fmt.Fprintf(w, "\n%d solver values were unavailable and read as 0\n", o.Report.Substituted)
	}
}

func printVehicles(w io.Writer, rep *report.Report) {
	fmt.Fprintln(w, "\nVEHICLES")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBRAND\tREQUIRED kWh\tDELIVERED kWh\tSATISFACTION\tTIER\tPRIORITY\tCOST")
	for _, v := range rep.Vehicles {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.1f%%\t%d\t%.2f\t%.2f\n",
			v.ID, v.Brand, v.Required, v.Delivered, v.Satisfaction, v.Tier, v.Priority, v.TotalCost())
	}
	_ = tw.Flush()
}

func printTotals(w io.Writer, t report.Totals) {
	fmt.Fprintf(w, "Totals: %.2f kWh required, %.2f kWh delivered\n", t.Required, t.Delivered)
	fmt.Fprintln(w, "\nSUMMARY")
	fmt.Fprintf(w, "- Vehicles served: %d/%d\n", t.Served, t.Vehicles)
	fmt.Fprintf(w, "- Average satisfaction: %.1f%%\n", t.Satisfaction)
	fmt.Fprintf(w, "- Total cost (energy + charger operation): $%.2f\n", t.TotalCost)
	fmt.Fprintf(w, "  - Energy: $%.2f\n", t.EnergyCost)
	fmt.Fprintf(w, "  - Charger operation: $%.2f\n", t.OperatingCost)
}

func printChargers(w io.Writer, chargers []report.ChargerResult) {
	fmt.Fprintln(w, "\nCHARGERS")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tACTIVE\tUSE\tDECLARED\tCOMPATIBLE")
	for _, c := range chargers {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f%%\t%d\t%d\n",
			c.ID, c.Type, c.ActiveIntervals, c.Utilization, c.DeclaredTokens, c.CompatibleVehicles)
	}
	_ = tw.Flush()
}
