package runner

import (
	"context"
	"fmt"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/collector"
	"github.com/younsl/ec2stats/pkg/metrics"
	"github.com/younsl/ec2stats/pkg/snapshot"
	"github.com/younsl/ec2stats/pkg/storage"
)

// Source produces the snapshot of a run
type Source interface {
	Snapshot(ctx context.Context) (models.Snapshot, *collector.Result, error)
}

// Collecting abstracts collector.Collector
type Collecting interface {
	Collect(ctx context.Context) collector.Result
}

// CollectorSource builds the snapshot from a live collection
type CollectorSource struct {
	Collector Collecting
	Threshold models.Threshold
	Recorder  *metrics.Recorder
}

// Snapshot collects every region and builds the snapshot. Dropped regions
// and downgraded metrics are reported in the returned Result, not as errors.
func (s *CollectorSource) Snapshot(ctx context.Context) (models.Snapshot, *collector.Result, error) {
	res := s.Collector.Collect(ctx)
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, &res, fmt.Errorf("collection interrupted: %w", err)
	}
	snap := snapshot.Build(res.Records, res.OwnerID, s.Threshold)
	s.Recorder.ObserveSnapshot(snap, res.Duration)
	return snap, &res, nil
}

// FileSource loads a previously saved snapshot
type FileSource struct {
	Path string
}

// Snapshot reads and decodes the file
func (s *FileSource) Snapshot(_ context.Context) (models.Snapshot, *collector.Result, error) {
	snap, err := storage.LoadSnapshot(s.Path)
	if err != nil {
		return models.Snapshot{}, nil, err
	}
	return snap, nil, nil
}
