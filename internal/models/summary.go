package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SummaryResponse is the top-level document returned by the analysis service
type SummaryResponse struct {
	Summary *Summary `json:"Summary"`
}

// Summary is the analysis service's classification of a Snapshot.
// Its semantics belong to the service; this package only carries the values.
type Summary struct {
	OwnerID       string             `json:"OwnerId,omitempty"`
	Average       *UtilizationStats  `json:"Average,omitempty"`
	Maximum       *UtilizationStats  `json:"Maximum,omitempty"`
	InstanceTypes []Group            `json:"InstanceTypes,omitempty"`
	Regions       []Group            `json:"Regions,omitempty"`
	UnderUtilized []Group            `json:"UnderUtilized,omitempty"`
	Threshold     *Threshold         `json:"Threshold,omitempty"`
	Efficiency    *EfficiencySummary `json:"Efficiency,omitempty"`
	MonthlyCost   *float64           `json:"MonthlyCost,omitempty"`
}

// UtilizationStats is the aggregate distribution for one CPU statistic
type UtilizationStats struct {
	Histogram [][]float64 `json:"Histogram,omitempty"`
	Min       float64     `json:"Min"`
	Max       float64     `json:"Max"`
	Mean      float64     `json:"Mean"`
	Under5    float64     `json:"<=5%"`
	Under10   float64     `json:"<=10%"`
	Under30   float64     `json:"<=30%"`
}

// EfficiencySummary compares the owner's efficiency with peers of a similar
// monthly spend
type EfficiencySummary struct {
	CostLevel  string  `json:"CostLevel"`
	Average    float64 `json:"Average"`
	Efficient  float64 `json:"Efficient"`
	Efficiency float64 `json:"Efficiency"`
}

// Group is one row of a grouped list, e.g. ["t3.micro", "12"].
// Numbers are kept as their textual form.
type Group []string

// UnmarshalJSON accepts arrays mixing strings and numbers
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("group is not an array: %w", err)
	}

	out := make(Group, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}
		out = append(out, string(item))
	}
	*g = out
	return nil
}

// Name returns the first element of the group
func (g Group) Name() string {
	if len(g) == 0 {
		return ""
	}
	return g[0]
}

// Value returns the second element of the group
func (g Group) Value() string {
	if len(g) < 2 {
		return ""
	}
	return g[1]
}

// Count returns the second element parsed as an integer, or 0
func (g Group) Count() int {
	f, err := strconv.ParseFloat(g.Value(), 64)
	if err != nil {
		return 0
	}
	return int(f)
}
