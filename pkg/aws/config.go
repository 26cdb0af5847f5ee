package aws

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// Credentials selects how AWS credentials are resolved.
// Static keys win over a profile; with neither, the default chain is used.
type Credentials struct {
	AccessKey  string
	SecretKey  string
	Profile    string
	ConfigPath string // directory holding a "credentials" file
}

// HasStaticKeys reports whether both access key and secret key are set
func (c Credentials) HasStaticKeys() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// LoadConfig loads the AWS configuration for a region
func LoadConfig(ctx context.Context, region string, creds Credentials) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithEC2IMDSClientEnableState(imds.ClientEnabled),
	}

	switch {
	case creds.HasStaticKeys():
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		))
	default:
		if creds.Profile != "" {
			opts = append(opts, config.WithSharedConfigProfile(creds.Profile))
		}
		if creds.ConfigPath != "" {
			opts = append(opts, config.WithSharedCredentialsFiles([]string{
				filepath.Join(creds.ConfigPath, "credentials"),
			}))
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading AWS config for region %s: %w", region, err)
	}
	return cfg, nil
}
