package pricing

import (
	"github.com/shopspring/decimal"
)

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceAPI indicates pricing data came from AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceNA indicates pricing data is not available
	PricingSourceNA PricingSource = "N/A"
)

// Estimate is the on-demand cost of one instance type in one region
type Estimate struct {
	InstanceType string
	Region       string
	Hourly       decimal.Decimal
	Monthly      decimal.Decimal
	Source       PricingSource
}

// Available reports whether a price was found
func (e Estimate) Available() bool {
	return e.Source != PricingSourceNA && e.Source != ""
}

// cacheKey identifies an instance type in a region
func cacheKey(instanceType, region string) string {
	return region + ":" + instanceType
}
