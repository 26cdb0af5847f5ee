package pricing

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/shopspring/decimal"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/utils"
)

// MonthlyCost returns the Linux on-demand estimate for an instance type.
// Lookup failures yield an Estimate with PricingSourceNA and are not cached.
func (e *Estimator) MonthlyCost(ctx context.Context, instanceType, region string) Estimate {
	key := cacheKey(instanceType, region)

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		cached.Source = PricingSourceCache
		return cached
	}

	hourly, err := e.getEC2PriceFromAPI(ctx, instanceType, region)
	if err != nil {
		slog.Debug("price lookup failed", "instance_type", instanceType, "region", region, "error", err)
		return Estimate{InstanceType: instanceType, Region: region, Source: PricingSourceNA}
	}

	est := Estimate{
		InstanceType: instanceType,
		Region:       region,
		Hourly:       hourly,
		Monthly:      hourly.Mul(decimal.NewFromFloat(utils.GetMonthlyHours())),
		Source:       PricingSourceAPI,
	}

	e.mu.Lock()
	e.cache[key] = est
	e.mu.Unlock()
	return est
}

// EstimateInstances prices every distinct (region, type) pair once and
// returns the estimates keyed by instance id
func (e *Estimator) EstimateInstances(ctx context.Context, instances []models.InstanceRecord) map[string]Estimate {
	out := make(map[string]Estimate, len(instances))
	for _, inst := range instances {
		if inst.InstanceType == "" {
			continue
		}
		out[inst.InstanceID] = e.MonthlyCost(ctx, inst.InstanceType, inst.Region)
	}
	return out
}

// TotalMonthly sums the available estimates
func TotalMonthly(estimates map[string]Estimate) decimal.Decimal {
	total := decimal.Zero
	for _, est := range estimates {
		if est.Available() {
			total = total.Add(est.Monthly)
		}
	}
	return total
}

// getEC2PriceFromAPI retrieves EC2 instance pricing from the AWS Pricing API
func (e *Estimator) getEC2PriceFromAPI(ctx context.Context, instanceType, region string) (decimal.Decimal, error) {
	// Construct filters for EC2 Linux on-demand instances
	filters := []types.Filter{
		termMatch("instanceType", instanceType),
		termMatch("location", GetRegionDescriptiveName(region)),
		termMatch("operatingSystem", "Linux"),
		termMatch("tenancy", "Shared"),
		termMatch("preInstalledSw", "NA"),
		termMatch("capacitystatus", "Used"),
	}

	priceJSON, err := e.getPriceFromAPI(ctx, "AmazonEC2", filters, region)
	if err != nil {
		return decimal.Zero, err
	}

	return ExtractOnDemandPrice(priceJSON)
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}
