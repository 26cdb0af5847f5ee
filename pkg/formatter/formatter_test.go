package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/metrics"
	"github.com/younsl/ec2stats/pkg/pricing"
)

func sampleSnapshot() models.Snapshot {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Snapshot{
		OwnerID: "0123456789abcdef",
		Instances: []models.InstanceRecord{
			{
				Region: "us-east-1", InstanceID: "i-1", InstanceType: "t3.micro", State: "running",
				Tags: []models.Tag{{Key: "Name", Value: "web"}},
				Stats: []models.Datapoint{
					{Timestamp: ts, Average: 2, Maximum: 10},
					{Timestamp: ts.Add(15 * time.Minute), Average: 4, Maximum: 20},
				},
			},
			{Region: "us-west-2", InstanceID: "i-2", InstanceType: "m5.large", State: "stopped"},
		},
		Threshold: models.DefaultThreshold(),
	}
}

func TestPrintSnapshotTable(t *testing.T) {
	var buf bytes.Buffer
	PrintSnapshotTable(&buf, sampleSnapshot(), nil, time.Now(), time.Second)
	out := buf.String()

	assert.Contains(t, out, "INSTANCE ID")
	assert.NotContains(t, out, "COST/MO")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "<unnamed>")
	assert.Contains(t, out, "3.0%")
	assert.Contains(t, out, "20.0%")
	assert.Contains(t, out, "N/A")
}

func TestPrintSnapshotTable_WithCosts(t *testing.T) {
	estimates := map[string]pricing.Estimate{
		"i-1": {Monthly: decimal.RequireFromString("7.592"), Source: pricing.PricingSourceAPI},
		"i-2": {Source: pricing.PricingSourceNA},
	}
	var buf bytes.Buffer
	PrintSnapshotTable(&buf, sampleSnapshot(), estimates, time.Now(), time.Second)
	out := buf.String()

	assert.Contains(t, out, "COST/MO")
	assert.Contains(t, out, "$7.59")
	assert.Contains(t, out, "TOTAL")
}

func TestPrintSnapshotTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintSnapshotTable(&buf, models.Snapshot{}, nil, time.Now(), 0)
	assert.Equal(t, "No instances found.\n", buf.String())
}

func TestPrintSnapshotSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSnapshotSummary(&buf, sampleSnapshot())
	out := buf.String()

	assert.Contains(t, out, "Instances: 2")
	assert.Contains(t, out, "Datapoints: 2")
	assert.Contains(t, out, "avg<=5% max<=30%")
	assert.Contains(t, out, "US West (Oregon)")
	assert.Contains(t, out, "stopped")
}

func TestPrintSummary(t *testing.T) {
	cost := 1234.5
	summary := &models.Summary{
		Average: &models.UtilizationStats{
			Histogram: [][]float64{{0, 10}, {5, 3}},
			Min:       0.5, Max: 60, Mean: 7.25, Under5: 10, Under10: 12, Under30: 13,
		},
		InstanceTypes: []models.Group{{"t3.micro", "3"}, {"m5.large", "9"}},
		Regions:       []models.Group{{"us-east-1", "12"}},
		UnderUtilized: []models.Group{{"i-1", "t3.micro"}},
		Threshold:     &models.Threshold{Avg: 5, Max: 30},
		Efficiency:    &models.EfficiencySummary{CostLevel: "1000", Average: 40, Efficient: 70, Efficiency: 35},
		MonthlyCost:   &cost,
	}

	var buf bytes.Buffer
	PrintSummary(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "Average CPU Utilization")
	assert.NotContains(t, out, "Maximum CPU Utilization")
	assert.Contains(t, out, "<=5%")
	assert.Contains(t, out, "7.25")
	assert.Contains(t, out, "Under-Utilized Instances: Avg<=5%, Max<=30%")
	assert.Contains(t, out, "$1234.50")

	// largest group first
	assert.Less(t, strings.Index(out, "m5.large"), strings.Index(out, "t3.micro   "))
}

func TestPrintSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestPrintAPIStats(t *testing.T) {
	r := metrics.NewRecorder()
	r.APICall("DescribeInstances", "us-east-1", nil)
	r.APICall("GetMetricStatistics", "us-east-1", nil)
	r.APICall("GetMetricStatistics", "us-east-1", assert.AnError)

	families, err := r.Gather()
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintAPIStats(&buf, families)
	out := buf.String()

	assert.Contains(t, out, "AWS API Call Statistics")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "100.0%")
	assert.Less(t, strings.Index(out, "DescribeInstances"), strings.Index(out, "GetMetricStatistics"))
}

func TestPrintAPIStats_NoCalls(t *testing.T) {
	var buf bytes.Buffer
	PrintAPIStats(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "한글...", TruncateString("한글한글한글", 7))
	assert.Equal(t, 4, StringWidth("한글"))
}
