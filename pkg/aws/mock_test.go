package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockEC2API serves DescribeInstances pages keyed by the request token.
// The first request uses the empty token.
type mockEC2API struct {
	pages  map[string]*ec2.DescribeInstancesOutput
	errOn  string
	err    error
	tokens []string
}

func (m *mockEC2API) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	token := aws.ToString(params.NextToken)
	m.tokens = append(m.tokens, token)
	if m.err != nil && token == m.errOn {
		return nil, m.err
	}
	if out, ok := m.pages[token]; ok {
		return out, nil
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

// mockCloudWatchAPI records GetMetricStatistics requests
type mockCloudWatchAPI struct {
	mu     sync.Mutex
	output *cloudwatch.GetMetricStatisticsOutput
	err    error
	inputs []*cloudwatch.GetMetricStatisticsInput
}

func (m *mockCloudWatchAPI) GetMetricStatistics(_ context.Context, params *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	if m.output == nil {
		return &cloudwatch.GetMetricStatisticsOutput{}, nil
	}
	return m.output, nil
}

// mockS3API records PutObject requests
type mockS3API struct {
	inputs []*s3.PutObjectInput
	err    error
}

func (m *mockS3API) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}
