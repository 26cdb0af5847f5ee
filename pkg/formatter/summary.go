package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/younsl/ec2stats/internal/models"
)

// groupsPerLine is how many grouped entries share one line
const groupsPerLine = 5

// PrintSummary prints the analysis service's summary. Sections missing from
// the response are skipped.
func PrintSummary(w io.Writer, summary *models.Summary) {
	if summary == nil {
		return
	}

	printUtilization(w, "Average", summary.Average)
	printUtilization(w, "Maximum", summary.Maximum)
	printGroups(w, "Distribution of Instance Types", summary.InstanceTypes)
	printGroups(w, "Distribution of Regions", summary.Regions)
	printEfficiency(w, summary.Efficiency)
	printUnderUtilized(w, summary)

	if summary.MonthlyCost != nil {
		fmt.Fprintf(w, "\nEstimated monthly cost: $%.2f\n", *summary.MonthlyCost)
	}
}

func printUtilization(w io.Writer, metric string, stats *models.UtilizationStats) {
	if stats == nil {
		return
	}
	printSection(w, metric+" CPU Utilization")

	var keys, values strings.Builder
	keys.WriteString("CPU%     : ")
	values.WriteString("Instances: ")
	for _, bucket := range stats.Histogram {
		if len(bucket) < 2 {
			continue
		}
		fmt.Fprintf(&keys, "%-5s", formatNumber(bucket[0]))
		fmt.Fprintf(&values, "%-5s", formatNumber(bucket[1]))
	}

	keys.WriteString(" | ")
	values.WriteString(" | ")
	columns := []struct {
		name  string
		value float64
	}{
		{"Min", stats.Min},
		{"Max", stats.Max},
		{"Mean", stats.Mean},
		{"<=5%", stats.Under5},
		{"<=10%", stats.Under10},
		{"<=30%", stats.Under30},
	}
	for _, c := range columns {
		fmt.Fprintf(&keys, "%-8s", c.name)
		fmt.Fprintf(&values, "%-8s", formatNumber(c.value))
	}

	fmt.Fprintln(w, keys.String())
	fmt.Fprintln(w, values.String())
}

// printGroups prints name:count pairs, largest count first
func printGroups(w io.Writer, title string, groups []models.Group) {
	if len(groups) == 0 {
		return
	}
	printSection(w, title)

	sorted := append([]models.Group(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count() > sorted[j].Count()
	})

	cells := make([]string, 0, len(sorted))
	for _, g := range sorted {
		cells = append(cells, fmt.Sprintf("%-12s:%4d", g.Name(), g.Count()))
	}
	for start := 0; start < len(cells); start += groupsPerLine {
		end := min(start+groupsPerLine, len(cells))
		fmt.Fprintln(w, strings.Join(cells[start:end], " | "))
	}
}

func printEfficiency(w io.Writer, eff *models.EfficiencySummary) {
	if eff == nil {
		return
	}
	printSection(w, fmt.Sprintf("Efficiency Compared to Users with Monthly Spending Around $%s", eff.CostLevel))

	rows := []struct {
		name  string
		value float64
	}{
		{"Average", eff.Average},
		{"Efficient Users", eff.Efficient},
		{"Your Efficiency", eff.Efficiency},
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].value < rows[j].value })

	cells := make([]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, fmt.Sprintf("%-20s:%8s", r.name, formatNumber(r.value)))
	}
	fmt.Fprintln(w, strings.Join(cells, " | "))
}

func printUnderUtilized(w io.Writer, summary *models.Summary) {
	if len(summary.UnderUtilized) == 0 {
		return
	}
	threshold := models.DefaultThreshold()
	if summary.Threshold != nil {
		threshold = *summary.Threshold
	}
	printSection(w, fmt.Sprintf("Under-Utilized Instances: Avg<=%d%%, Max<=%d%%", threshold.Avg, threshold.Max))

	for _, g := range summary.UnderUtilized {
		fmt.Fprintf(w, "%-20s:%s\n", g.Name(), strings.Join(g[min(1, len(g)):], " "))
	}
}
