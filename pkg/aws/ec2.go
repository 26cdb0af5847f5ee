package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/metrics"
	"github.com/younsl/ec2stats/pkg/utils"
)

const apiDescribeInstances = "DescribeInstances"

// InstanceListing is the result of walking every DescribeInstances page of a region
type InstanceListing struct {
	// Instances in encounter order, without stats
	Instances []models.InstanceRecord
	// OwnerID is the first non-empty reservation owner seen, unmodified
	OwnerID string
	Pages   int
}

// EC2Client lists the EC2 instances of one region
type EC2Client struct {
	client   ec2.DescribeInstancesAPIClient
	region   string
	recorder *metrics.Recorder
}

// NewEC2Client creates a new EC2Client from a loaded AWS config
func NewEC2Client(cfg aws.Config, recorder *metrics.Recorder) *EC2Client {
	return NewEC2ClientWithAPI(ec2.NewFromConfig(cfg), cfg.Region, recorder)
}

// NewEC2ClientWithAPI creates an EC2Client around any DescribeInstances implementation
func NewEC2ClientWithAPI(api ec2.DescribeInstancesAPIClient, region string, recorder *metrics.Recorder) *EC2Client {
	return &EC2Client{
		client:   api,
		region:   region,
		recorder: recorder,
	}
}

// Region returns the region this client lists
func (c *EC2Client) Region() string {
	return c.region
}

// ListInstances follows NextToken until the API stops returning one.
// A failure on any page discards everything gathered so far for the region.
func (c *EC2Client) ListInstances(ctx context.Context) (InstanceListing, error) {
	var listing InstanceListing
	paginator := ec2.NewDescribeInstancesPaginator(c.client, &ec2.DescribeInstancesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		c.recorder.APICall(apiDescribeInstances, c.region, err)
		if err != nil {
			return InstanceListing{}, fmt.Errorf("error describing instances in %s (page %d): %w", c.region, listing.Pages+1, err)
		}
		listing.Pages++

		for _, reservation := range page.Reservations {
			if listing.OwnerID == "" {
				listing.OwnerID = aws.ToString(reservation.OwnerId)
			}

			for _, instance := range reservation.Instances {
				state := ""
				if instance.State != nil {
					state = string(instance.State.Name)
				}

				listing.Instances = append(listing.Instances, models.InstanceRecord{
					Region:       c.region,
					InstanceID:   aws.ToString(instance.InstanceId),
					InstanceType: string(instance.InstanceType),
					State:        state,
					Tags:         utils.ConvertEC2Tags(instance.Tags),
					Stats:        []models.Datapoint{},
				})
			}
		}
	}

	return listing, nil
}
