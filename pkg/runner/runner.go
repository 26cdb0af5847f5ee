// Package runner wires collection, persistence and analysis into one run.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/analysis"
	"github.com/younsl/ec2stats/pkg/collector"
	"github.com/younsl/ec2stats/pkg/snapshot"
	"github.com/younsl/ec2stats/pkg/storage"
)

// Persister saves a document under a prefix
type Persister interface {
	Save(ctx context.Context, prefix string, data []byte) (string, error)
}

// Analyzer submits an encoded snapshot
type Analyzer interface {
	Analyze(ctx context.Context, payload []byte) (*analysis.Result, error)
}

// Runner executes Idle → Collecting → Built → Submitting → Summarized|Failed
type Runner struct {
	Source   Source
	Store    Persister
	Analyzer Analyzer

	// ThresholdOverride replaces the snapshot threshold when set
	ThresholdOverride *models.Threshold
	// SkipAnalysis stops the run at Built
	SkipAnalysis bool
	// OnStateChange is called after every transition
	OnStateChange func(from, to State)

	state State
}

// Outcome describes a finished run
type Outcome struct {
	State        State
	Snapshot     models.Snapshot
	SnapshotPath string
	Collection   *collector.Result
	Analysis     *analysis.Result
	// PersistErrors are logged failures that did not stop the run
	PersistErrors []error
}

// State returns the current state
func (r *Runner) State() State {
	return r.state
}

func (r *Runner) transition(to State) {
	from := r.state
	if !from.CanTransition(to) {
		slog.Error("invalid state transition", "from", from, "to", to)
	}
	r.state = to
	slog.Debug("run state changed", "from", from, "to", to)
	if r.OnStateChange != nil {
		r.OnStateChange(from, to)
	}
}

// Run performs one run. The returned Outcome is never nil; on error its
// State is StateFailed and it carries whatever was produced before the failure.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	r.state = StateIdle
	out := &Outcome{State: StateIdle}

	r.transition(StateCollecting)
	snap, collection, err := r.Source.Snapshot(ctx)
	out.Collection = collection
	if err != nil {
		r.transition(StateFailed)
		out.State = r.state
		return out, err
	}
	if r.ThresholdOverride != nil {
		snap = snap.WithThreshold(*r.ThresholdOverride)
	}
	out.Snapshot = snap

	payload, err := snapshot.Encode(snap)
	if err != nil {
		r.transition(StateFailed)
		out.State = r.state
		return out, err
	}
	r.transition(StateBuilt)
	out.State = r.state

	if r.Store != nil {
		path, err := r.Store.Save(ctx, storage.SnapshotPrefix, payload)
		if err != nil {
			slog.Warn("failed to save snapshot", "error", err)
			out.PersistErrors = append(out.PersistErrors, err)
		}
		out.SnapshotPath = path
	}

	if r.SkipAnalysis || r.Analyzer == nil {
		return out, nil
	}

	r.transition(StateSubmitting)
	res, err := r.Analyzer.Analyze(ctx, payload)
	out.Analysis = res
	if err != nil {
		r.transition(StateFailed)
		out.State = r.state
		return out, fmt.Errorf("analysis failed: %w", err)
	}
	r.transition(StateSummarized)
	out.State = r.state
	return out, nil
}
