// Package collector scans regions for EC2 instances and their CPU statistics.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/aws"
)

// DefaultConcurrency is the number of metric workers per region
const DefaultConcurrency = 4

// stateTerminated instances carry no metrics worth collecting
const stateTerminated = "terminated"

// InstanceLister lists the instances of one region
type InstanceLister interface {
	ListInstances(ctx context.Context) (aws.InstanceListing, error)
}

// MetricSource fetches CPU datapoints for one instance
type MetricSource interface {
	FetchCPU(ctx context.Context, instanceID string) ([]models.Datapoint, error)
}

// RegionClients bundles the API clients used for one region
type RegionClients struct {
	Instances InstanceLister
	Metrics   MetricSource
}

// ClientFactory builds the clients for a region
type ClientFactory func(ctx context.Context, region string) (RegionClients, error)

// RegionScanError reports a region that was dropped from the run
type RegionScanError struct {
	Region string
	Err    error
}

func (e *RegionScanError) Error() string {
	return fmt.Sprintf("region %s: %v", e.Region, e.Err)
}

func (e *RegionScanError) Unwrap() error {
	return e.Err
}

// Progress is called once per finished region
type Progress func(region string, instances int, err error)

// Options configures a Collector
type Options struct {
	Concurrency int
	OnRegion    Progress
}

// Collector drives listing and metric retrieval across regions
type Collector struct {
	regions     []string
	factory     ClientFactory
	concurrency int
	onRegion    Progress
}

// Result is the outcome of a collection run
type Result struct {
	// Records from all successful regions, merged in region order
	Records []models.InstanceRecord
	// OwnerID is the anonymized owner id, empty when none was observed
	OwnerID string
	// RegionErrors holds one *RegionScanError per dropped region
	RegionErrors []error
	// MetricErrors holds one *aws.MetricFetchError per downgraded instance
	MetricErrors []error
	Duration     time.Duration
}

// regionResult is the per-region slot filled by one goroutine
type regionResult struct {
	records      []models.InstanceRecord
	ownerID      string
	metricErrors []error
	err          error
}

// New creates a Collector for the given regions
func New(regions []string, factory ClientFactory, opts Options) *Collector {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Collector{
		regions:     append([]string(nil), regions...),
		factory:     factory,
		concurrency: opts.Concurrency,
		onRegion:    opts.OnRegion,
	}
}

// Collect scans every region concurrently. A failing region is reported in
// Result.RegionErrors and does not affect the others.
func (c *Collector) Collect(ctx context.Context) Result {
	start := time.Now()
	results := make([]regionResult, len(c.regions))

	var wg sync.WaitGroup
	for i, region := range c.regions {
		wg.Add(1)
		go func(idx int, r string) {
			defer wg.Done()
			results[idx] = c.scanRegion(ctx, r)
			if c.onRegion != nil {
				c.onRegion(r, len(results[idx].records), results[idx].err)
			}
		}(i, region)
	}
	wg.Wait()

	var (
		result Result
		owner  OwnerCell
	)
	result.Records = []models.InstanceRecord{}
	for i, r := range results {
		if r.err != nil {
			slog.Warn("region scan failed", "region", c.regions[i], "error", r.err)
			result.RegionErrors = append(result.RegionErrors, &RegionScanError{Region: c.regions[i], Err: r.err})
			continue
		}
		owner.Set(r.ownerID)
		result.Records = append(result.Records, r.records...)
		result.MetricErrors = append(result.MetricErrors, r.metricErrors...)
	}

	result.OwnerID = AnonymizeOwnerID(owner.Get())
	result.Duration = time.Since(start)
	return result
}

// scanRegion lists a region and then fetches metrics for its live instances
func (c *Collector) scanRegion(ctx context.Context, region string) regionResult {
	clients, err := c.factory(ctx, region)
	if err != nil {
		return regionResult{err: err}
	}

	listing, err := clients.Instances.ListInstances(ctx)
	if err != nil {
		return regionResult{err: err}
	}
	slog.Debug("listed instances", "region", region, "instances", len(listing.Instances), "pages", listing.Pages)

	records := make([]models.InstanceRecord, 0, len(listing.Instances))
	for _, inst := range listing.Instances {
		if inst.State == stateTerminated {
			slog.Debug("skipping terminated instance", "region", region, "instance", inst.InstanceID)
			continue
		}
		records = append(records, inst)
	}

	metricErrs := make([]error, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range records {
		g.Go(func() error {
			stats, err := clients.Metrics.FetchCPU(gctx, records[i].InstanceID)
			if err != nil {
				slog.Warn("metric fetch failed, continuing with empty stats",
					"region", region, "instance", records[i].InstanceID, "error", err)
				metricErrs[i] = err
			}
			if stats == nil {
				stats = []models.Datapoint{}
			}
			records[i].Stats = stats
			// A metric failure never cancels the other workers
			return nil
		})
	}
	_ = g.Wait()

	return regionResult{
		records:      records,
		ownerID:      listing.OwnerID,
		metricErrors: compactErrors(metricErrs),
	}
}

// compactErrors drops nil entries, keeping order
func compactErrors(errs []error) []error {
	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// FailedRegions returns the regions named by RegionScanErrors in r
func (r Result) FailedRegions() []string {
	var regions []string
	for _, err := range r.RegionErrors {
		var scanErr *RegionScanError
		if errors.As(err, &scanErr) {
			regions = append(regions, scanErr.Region)
		}
	}
	return regions
}
