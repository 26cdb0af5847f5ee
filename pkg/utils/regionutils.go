package utils

import "strings"

// RegionDescriptiveNames maps AWS region codes to descriptive names
var RegionDescriptiveNames = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"af-south-1":     "Africa (Cape Town)",
	"ap-east-1":      "Asia Pacific (Hong Kong)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-northeast-3": "Asia Pacific (Osaka)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ca-central-1":   "Canada (Central)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-north-1":     "EU (Stockholm)",
	"eu-south-1":     "EU (Milan)",
	"me-south-1":     "Middle East (Bahrain)",
	"sa-east-1":      "South America (Sao Paulo)",
}

// defaultRegions is the scan list used when no regions are configured
var defaultRegions = []string{
	"us-east-1", // US East (N. Virginia)
	"us-west-2", // US West (Oregon)
	"us-west-1", // US West (N. California)
	"us-east-2", // US East (Ohio)
}

// GetRegionDescriptiveName returns the human-readable region name for AWS services
func GetRegionDescriptiveName(region string) string {
	if name, ok := RegionDescriptiveNames[region]; ok {
		return name
	}
	// Default to US East if region not found
	return "US East (N. Virginia)"
}

// IsValidRegion checks if a region is valid
func IsValidRegion(region string) bool {
	_, ok := RegionDescriptiveNames[region]
	return ok
}

// DefaultRegions returns a copy of the default scan list
func DefaultRegions() []string {
	return append([]string(nil), defaultRegions...)
}

// EnumerateRegions returns the regions to scan in the order given.
// Empty input falls back to DefaultRegions. Duplicates are dropped and
// unknown region codes are returned separately so the caller can warn.
func EnumerateRegions(configured []string) (valid []string, invalid []string) {
	if len(configured) == 0 {
		return DefaultRegions(), nil
	}

	seen := make(map[string]bool, len(configured))
	for _, region := range configured {
		region = strings.ToLower(strings.TrimSpace(region))
		if region == "" || seen[region] {
			continue
		}
		seen[region] = true

		if IsValidRegion(region) {
			valid = append(valid, region)
		} else {
			invalid = append(invalid, region)
		}
	}
	return valid, invalid
}
