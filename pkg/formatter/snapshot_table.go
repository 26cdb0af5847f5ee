package formatter

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/pricing"
	"github.com/younsl/ec2stats/pkg/utils"
)

// PrintSnapshotTable prints one row per instance of the snapshot. The
// COST/MO column is shown only when estimates is non-nil.
func PrintSnapshotTable(out io.Writer, snap models.Snapshot, estimates map[string]pricing.Estimate, scanTime time.Time, scanDuration time.Duration) {
	if len(snap.Instances) == 0 {
		fmt.Fprintln(out, "No instances found.")
		return
	}

	// kubectl style tabwriter
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	printTimestamp(w, scanTime, scanDuration)

	header := "INSTANCE ID\tNAME\tTYPE\tREGION\tSTATE\tDATAPOINTS\tAVG CPU\tMAX CPU"
	if estimates != nil {
		header += "\tCOST/MO"
	}
	fmt.Fprintln(w, header)

	for _, inst := range snap.Instances {
		avg, peak := cpuSummary(inst.Stats)
		row := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s",
			inst.InstanceID,
			getInstanceName(utils.GetName(inst.Tags)),
			inst.InstanceType,
			inst.Region,
			inst.State,
			len(inst.Stats),
			formatPercentOrNA(avg, len(inst.Stats)),
			formatPercentOrNA(peak, len(inst.Stats)),
		)
		if estimates != nil {
			row += "\t" + formatCost(estimates[inst.InstanceID])
		}
		fmt.Fprintln(w, row)
	}

	if estimates != nil {
		fmt.Fprintf(w, "\t\t\t\t\t\t\tTOTAL\t$%s\n", pricing.TotalMonthly(estimates).StringFixed(2))
	}

	w.Flush()
}

// PrintSnapshotSummary prints instance counts per region and state
func PrintSnapshotSummary(out io.Writer, snap models.Snapshot) {
	byRegion := make(map[string]int)
	byState := make(map[string]int)
	for _, inst := range snap.Instances {
		byRegion[inst.Region]++
		byState[inst.State]++
	}

	fmt.Fprintf(out, "\nOwner: %s | Instances: %s | Datapoints: %s | Threshold: avg<=%d%% max<=%d%%\n",
		ownerOrUnknown(snap.OwnerID),
		humanize.Comma(int64(len(snap.Instances))),
		humanize.Comma(int64(snap.DatapointCount())),
		snap.Threshold.Avg,
		snap.Threshold.Max,
	)

	if len(byRegion) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tLOCATION\tINSTANCES")
	for _, region := range sortedKeys(byRegion) {
		fmt.Fprintf(w, "%s\t%s\t%d\n", region, utils.GetRegionDescriptiveName(region), byRegion[region])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STATE\tINSTANCES")
	for _, state := range sortedKeys(byState) {
		fmt.Fprintf(w, "%s\t%d\n", state, byState[state])
	}
	w.Flush()
}

// cpuSummary returns the mean of averages and the peak maximum
func cpuSummary(stats []models.Datapoint) (float64, float64) {
	if len(stats) == 0 {
		return 0, 0
	}
	var sum, peak float64
	for _, dp := range stats {
		sum += dp.Average
		if dp.Maximum > peak {
			peak = dp.Maximum
		}
	}
	return sum / float64(len(stats)), peak
}

func formatPercentOrNA(v float64, samples int) string {
	if samples == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func formatCost(est pricing.Estimate) string {
	if !est.Available() {
		return "N/A"
	}
	return "$" + est.Monthly.StringFixed(2)
}

// getInstanceName returns a formatted instance name or <unnamed> if empty
func getInstanceName(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return TruncateString(name, maxNameWidth)
}

func ownerOrUnknown(owner string) string {
	if owner == "" {
		return "<unknown>"
	}
	return owner
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
