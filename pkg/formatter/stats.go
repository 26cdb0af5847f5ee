package formatter

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	dto "github.com/prometheus/client_model/go"

	"github.com/younsl/ec2stats/pkg/metrics"
)

type apiStat struct {
	api, region      string
	success, failure int
}

// PrintAPIStats prints AWS API call counts per api and region from the
// gathered metric families
func PrintAPIStats(w io.Writer, families []*dto.MetricFamily) {
	stats := collectAPIStats(families)
	if len(stats) == 0 {
		return
	}

	fmt.Fprintln(w, "\n## AWS API Call Statistics")

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "API\tREGION\tCALLS\tSUCCESS\tFAILURE\tSUCCESS RATE")
	for _, s := range stats {
		total := s.success + s.failure
		successRate := 0.0
		if total > 0 {
			successRate = float64(s.success) / float64(total) * 100.0
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.1f%%\n",
			s.api, s.region, total, s.success, s.failure, successRate)
	}
	tw.Flush()
}

func collectAPIStats(families []*dto.MetricFamily) []apiStat {
	index := make(map[string]*apiStat)
	for _, mf := range families {
		if mf.GetName() != metrics.APICallsMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			key := labels["api"] + "/" + labels["region"]
			s, ok := index[key]
			if !ok {
				s = &apiStat{api: labels["api"], region: labels["region"]}
				index[key] = s
			}
			count := int(m.GetCounter().GetValue())
			if labels["status"] == metrics.StatusFailure {
				s.failure += count
			} else {
				s.success += count
			}
		}
	}

	out := make([]apiStat, 0, len(index))
	for _, s := range index {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].api != out[j].api {
			return out[i].api < out[j].api
		}
		return out[i].region < out[j].region
	})
	return out
}
