package pricing

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/younsl/ec2stats/pkg/utils"
)

// priceList is the part of a Pricing API price list document used here
type priceList struct {
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				Unit         string            `json:"unit"`
				PricePerUnit map[string]string `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

// GetRegionDescriptiveName returns the human-readable region name used in AWS Pricing API
func GetRegionDescriptiveName(region string) string {
	return utils.GetRegionDescriptiveName(region)
}

// ExtractOnDemandPrice extracts the on-demand hourly USD price from a
// price list document. With several offers the lowest sorted key wins.
func ExtractOnDemandPrice(priceJSON string) (decimal.Decimal, error) {
	var doc priceList
	if err := json.Unmarshal([]byte(priceJSON), &doc); err != nil {
		return decimal.Zero, fmt.Errorf("error parsing pricing data: %w", err)
	}

	if len(doc.Terms.OnDemand) == 0 {
		return decimal.Zero, fmt.Errorf("no on-demand SKU offer found")
	}
	offer := doc.Terms.OnDemand[firstKey(doc.Terms.OnDemand)]

	if len(offer.PriceDimensions) == 0 {
		return decimal.Zero, fmt.Errorf("no price dimension found")
	}
	dimension := offer.PriceDimensions[firstKey(offer.PriceDimensions)]

	usd, ok := dimension.PricePerUnit["USD"]
	if !ok {
		return decimal.Zero, fmt.Errorf("USD price not found")
	}

	price, err := decimal.NewFromString(usd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing price %q: %w", usd, err)
	}
	return price, nil
}

// firstKey returns the smallest key of m so repeated lookups agree
func firstKey[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
