// Package snapshot assembles collected records into a Snapshot and converts
// snapshots and summaries to and from their JSON documents.
package snapshot

import (
	"sort"

	"github.com/younsl/ec2stats/internal/models"
)

// Build merges records into a Snapshot. Instances are ordered by region then
// instance id, datapoints by timestamp, and nil sequences become empty.
// A zero threshold is replaced with the default. The input is not modified.
func Build(records []models.InstanceRecord, ownerID string, threshold models.Threshold) models.Snapshot {
	if threshold.IsZero() {
		threshold = models.DefaultThreshold()
	}

	instances := make([]models.InstanceRecord, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.InstanceID] {
			continue
		}
		seen[rec.InstanceID] = true
		instances = append(instances, normalizeRecord(rec))
	}

	sort.SliceStable(instances, func(i, j int) bool {
		if instances[i].Region != instances[j].Region {
			return instances[i].Region < instances[j].Region
		}
		return instances[i].InstanceID < instances[j].InstanceID
	})

	return models.Snapshot{
		OwnerID:   ownerID,
		Instances: instances,
		Threshold: threshold,
	}
}

// normalizeRecord returns a deep copy of rec with sorted stats and non-nil slices
func normalizeRecord(rec models.InstanceRecord) models.InstanceRecord {
	out := rec
	out.Tags = append(make([]models.Tag, 0, len(rec.Tags)), rec.Tags...)
	out.Stats = append(make([]models.Datapoint, 0, len(rec.Stats)), rec.Stats...)
	for i := range out.Stats {
		out.Stats[i].Timestamp = out.Stats[i].Timestamp.UTC()
	}
	sort.SliceStable(out.Stats, func(i, j int) bool {
		return out.Stats[i].Timestamp.Before(out.Stats[j].Timestamp)
	})
	return out
}
