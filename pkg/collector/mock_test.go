package collector

import (
	"context"
	"sync"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/aws"
)

// mockLister is a test double for InstanceLister
type mockLister struct {
	listing aws.InstanceListing
	err     error
}

func (m *mockLister) ListInstances(_ context.Context) (aws.InstanceListing, error) {
	if m.err != nil {
		return aws.InstanceListing{}, m.err
	}
	return m.listing, nil
}

// mockMetrics is a test double for MetricSource
type mockMetrics struct {
	mu      sync.Mutex
	stats   map[string][]models.Datapoint
	failFor map[string]error
	calls   []string
}

func (m *mockMetrics) FetchCPU(_ context.Context, instanceID string) ([]models.Datapoint, error) {
	m.mu.Lock()
	m.calls = append(m.calls, instanceID)
	m.mu.Unlock()

	if err, ok := m.failFor[instanceID]; ok {
		return []models.Datapoint{}, &aws.MetricFetchError{InstanceID: instanceID, Err: err}
	}
	return m.stats[instanceID], nil
}

func record(region, id, state string) models.InstanceRecord {
	return models.InstanceRecord{
		Region:       region,
		InstanceID:   id,
		InstanceType: "t3.micro",
		State:        state,
		Tags:         []models.Tag{},
		Stats:        []models.Datapoint{},
	}
}

// staticFactory serves fixed clients per region
func staticFactory(clients map[string]RegionClients, errs map[string]error) ClientFactory {
	return func(_ context.Context, region string) (RegionClients, error) {
		if err, ok := errs[region]; ok {
			return RegionClients{}, err
		}
		return clients[region], nil
	}
}
