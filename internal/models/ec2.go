package models

import (
	"encoding/json"
	"time"
)

// Default threshold bounds used when none are configured
const (
	DefaultThresholdAvg = 5
	DefaultThresholdMax = 30
)

// Tag is a key/value pair copied verbatim from the EC2 listing
type Tag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// Datapoint is one CloudWatch CPUUtilization sample
type Datapoint struct {
	Timestamp time.Time `json:"Timestamp"`
	Average   float64   `json:"Average"`
	Maximum   float64   `json:"Maximum"`
	Unit      string    `json:"Unit,omitempty"`
}

// InstanceRecord represents one EC2 instance and its CPU statistics
type InstanceRecord struct {
	Region       string      `json:"Region"`
	InstanceID   string      `json:"InstanceId"`
	InstanceType string      `json:"InstanceType"`
	State        string      `json:"State"`
	Tags         []Tag       `json:"Tags"`
	Stats        []Datapoint `json:"Stats"`
}

// MarshalJSON emits empty arrays instead of null for missing tags or stats
func (r InstanceRecord) MarshalJSON() ([]byte, error) {
	type wire InstanceRecord
	w := wire(r)
	if w.Tags == nil {
		w.Tags = []Tag{}
	}
	if w.Stats == nil {
		w.Stats = []Datapoint{}
	}
	return json.Marshal(w)
}

// Threshold holds the average/maximum CPU percent bounds used to classify
// under-utilized instances
type Threshold struct {
	Avg int `json:"Avg"`
	Max int `json:"Max"`
}

// DefaultThreshold returns the {5, 30} threshold
func DefaultThreshold() Threshold {
	return Threshold{Avg: DefaultThresholdAvg, Max: DefaultThresholdMax}
}

// IsZero reports whether neither bound was set
func (t Threshold) IsZero() bool {
	return t.Avg == 0 && t.Max == 0
}

// Snapshot is the document exchanged with the analysis service and saved as
// ec2stats-{date}.json. Field order is part of the wire format.
type Snapshot struct {
	OwnerID   string           `json:"OwnerId"`
	Instances []InstanceRecord `json:"Instances"`
	Threshold Threshold        `json:"Threshold"`
}

// MarshalJSON emits an empty array instead of null when there are no instances
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type wire Snapshot
	w := wire(s)
	if w.Instances == nil {
		w.Instances = []InstanceRecord{}
	}
	return json.Marshal(w)
}

// WithThreshold returns a copy of the snapshot carrying the given threshold
func (s Snapshot) WithThreshold(t Threshold) Snapshot {
	out := s
	out.Instances = append([]InstanceRecord(nil), s.Instances...)
	if out.Instances == nil {
		out.Instances = []InstanceRecord{}
	}
	out.Threshold = t
	return out
}

// DatapointCount returns the total number of datapoints across all instances
func (s Snapshot) DatapointCount() int {
	total := 0
	for _, inst := range s.Instances {
		total += len(inst.Stats)
	}
	return total
}
