// Package metrics records per-run collection statistics in a private
// Prometheus registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/younsl/ec2stats/internal/models"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// APICallsMetric is the name of the API call counter family
const APICallsMetric = "ec2stats_api_calls_total"

// Recorder holds the collectors for one run
type Recorder struct {
	registry *prometheus.Registry

	apiCalls          *prometheus.CounterVec
	instances         *prometheus.GaugeVec
	datapoints        prometheus.Gauge
	collectionSeconds prometheus.Gauge
	lastRunTimestamp  prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: APICallsMetric,
				Help: "AWS API calls made during collection",
			},
			[]string{"api", "region", "status"},
		),
		instances: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ec2stats_instances",
				Help: "Instances included in the last snapshot",
			},
			[]string{"region"},
		),
		datapoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ec2stats_datapoints",
			Help: "CPU datapoints included in the last snapshot",
		}),
		collectionSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ec2stats_collection_duration_seconds",
			Help: "Wall time spent collecting the last snapshot",
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ec2stats_last_run_timestamp_seconds",
			Help: "Unix time of the last completed collection",
		}),
	}

	r.registry.MustRegister(
		r.apiCalls,
		r.instances,
		r.datapoints,
		r.collectionSeconds,
		r.lastRunTimestamp,
	)
	return r
}

// APICall counts one API call, successful when err is nil
func (r *Recorder) APICall(api, region string, err error) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	r.apiCalls.WithLabelValues(api, region, status).Inc()
}

// ObserveSnapshot records instance and datapoint counts of a built snapshot
func (r *Recorder) ObserveSnapshot(s models.Snapshot, elapsed time.Duration) {
	if r == nil {
		return
	}
	perRegion := make(map[string]int)
	for _, inst := range s.Instances {
		perRegion[inst.Region]++
	}
	r.instances.Reset()
	for region, n := range perRegion {
		r.instances.WithLabelValues(region).Set(float64(n))
	}
	r.datapoints.Set(float64(s.DatapointCount()))
	r.collectionSeconds.Set(elapsed.Seconds())
	r.lastRunTimestamp.SetToCurrentTime()
}

// Gather returns the current metric families
func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	if r == nil {
		return nil, nil
	}
	return r.registry.Gather()
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
