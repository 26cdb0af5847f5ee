package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/younsl/ec2stats/pkg/metrics"
)

const (
	// Region is where the Pricing API is served (us-east-1 and ap-south-1 only)
	Region = "us-east-1"

	apiGetProducts = "GetProducts"

	// lookupTimeout bounds a single GetProducts call
	lookupTimeout = 5 * time.Second
)

// ProductsAPI is the subset of the Pricing client used here
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Estimator looks up on-demand prices and caches them per region and type
type Estimator struct {
	client   ProductsAPI
	recorder *metrics.Recorder

	mu    sync.RWMutex
	cache map[string]Estimate
}

// NewEstimator creates an Estimator from a config loaded for the pricing Region
func NewEstimator(cfg aws.Config, recorder *metrics.Recorder) *Estimator {
	return NewEstimatorWithAPI(pricing.NewFromConfig(cfg), recorder)
}

// NewEstimatorWithAPI creates an Estimator around any GetProducts implementation
func NewEstimatorWithAPI(api ProductsAPI, recorder *metrics.Recorder) *Estimator {
	return &Estimator{
		client:   api,
		recorder: recorder,
		cache:    make(map[string]Estimate),
	}
}

// Endpoint returns the Pricing API endpoint in use, for display
func Endpoint() string {
	return fmt.Sprintf("https://api.pricing.%s.amazonaws.com", Region)
}

// getPriceFromAPI returns the first price list entry matching filters
func (e *Estimator) getPriceFromAPI(ctx context.Context, serviceCode string, filters []types.Filter, region string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	}

	resp, err := e.client.GetProducts(ctx, input)
	e.recorder.APICall(apiGetProducts, region, err)
	if err != nil {
		return "", fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		return "", fmt.Errorf("no pricing found in region %s", region)
	}

	return resp.PriceList[0], nil
}
