package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"golang.org/x/time/rate"

	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/pkg/metrics"
	"github.com/younsl/ec2stats/pkg/utils"
)

const (
	// AWS CloudWatch namespace and metric for EC2 CPU
	namespaceEC2         = "AWS/EC2"
	metricCPUUtilization = "CPUUtilization"
	dimensionInstanceID  = "InstanceId"

	apiGetMetricStatistics = "GetMetricStatistics"

	// Defaults for the metric window
	DefaultMetricDays   = 14
	DefaultMetricPeriod = 900 // seconds
)

// GetMetricStatisticsAPI is the subset of the CloudWatch client used here
type GetMetricStatisticsAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// MetricFetchError reports a failed metric retrieval for one instance
type MetricFetchError struct {
	InstanceID string
	Err        error
}

func (e *MetricFetchError) Error() string {
	return fmt.Sprintf("failed to get CPU statistics for %s: %v", e.InstanceID, e.Err)
}

func (e *MetricFetchError) Unwrap() error {
	return e.Err
}

// MetricFetcherOptions configures a MetricFetcher
type MetricFetcherOptions struct {
	Days      int
	Period    int     // seconds
	RateLimit float64 // requests per second, 0 disables pacing
	Recorder  *metrics.Recorder
	Now       func() time.Time
}

// MetricFetcher retrieves CPUUtilization datapoints for instances of one region
type MetricFetcher struct {
	client   GetMetricStatisticsAPI
	region   string
	days     int
	period   int32
	limiter  *rate.Limiter
	recorder *metrics.Recorder
	now      func() time.Time
}

// NewMetricFetcher creates a MetricFetcher from a loaded AWS config
func NewMetricFetcher(cfg aws.Config, opts MetricFetcherOptions) *MetricFetcher {
	return NewMetricFetcherWithAPI(cloudwatch.NewFromConfig(cfg), cfg.Region, opts)
}

// NewMetricFetcherWithAPI creates a MetricFetcher around any GetMetricStatistics implementation
func NewMetricFetcherWithAPI(api GetMetricStatisticsAPI, region string, opts MetricFetcherOptions) *MetricFetcher {
	if opts.Days <= 0 {
		opts.Days = DefaultMetricDays
	}
	if opts.Period <= 0 {
		opts.Period = DefaultMetricPeriod
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &MetricFetcher{
		client:   api,
		region:   region,
		days:     opts.Days,
		period:   int32(opts.Period),
		limiter:  limiter,
		recorder: opts.Recorder,
		now:      opts.Now,
	}
}

// FetchCPU returns the Average/Maximum CPUUtilization datapoints of an
// instance over the configured window, in the order CloudWatch returned them.
// On failure the datapoints are empty (never nil) and the error is a *MetricFetchError.
func (f *MetricFetcher) FetchCPU(ctx context.Context, instanceID string) ([]models.Datapoint, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return []models.Datapoint{}, &MetricFetchError{InstanceID: instanceID, Err: err}
		}
	}

	startTime, endTime := utils.MetricWindow(f.now(), f.days, time.Duration(f.period)*time.Second)

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespaceEC2),
		MetricName: aws.String(metricCPUUtilization),
		Dimensions: []cwtypes.Dimension{
			{
				Name:  aws.String(dimensionInstanceID),
				Value: aws.String(instanceID),
			},
		},
		StartTime: aws.Time(startTime),
		EndTime:   aws.Time(endTime),
		Period:    aws.Int32(f.period),
		Statistics: []cwtypes.Statistic{
			cwtypes.StatisticAverage,
			cwtypes.StatisticMaximum,
		},
		Unit: cwtypes.StandardUnitPercent,
	}

	resp, err := f.client.GetMetricStatistics(ctx, input)
	f.recorder.APICall(apiGetMetricStatistics, f.region, err)
	if err != nil {
		return []models.Datapoint{}, &MetricFetchError{InstanceID: instanceID, Err: err}
	}

	datapoints := make([]models.Datapoint, 0, len(resp.Datapoints))
	for _, dp := range resp.Datapoints {
		datapoints = append(datapoints, models.Datapoint{
			Timestamp: aws.ToTime(dp.Timestamp).UTC(),
			Average:   aws.ToFloat64(dp.Average),
			Maximum:   aws.ToFloat64(dp.Maximum),
			Unit:      string(dp.Unit),
		})
	}
	return datapoints, nil
}
