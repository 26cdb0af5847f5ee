package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/younsl/ec2stats/internal/config"
	"github.com/younsl/ec2stats/internal/logging"
	"github.com/younsl/ec2stats/internal/models"
	"github.com/younsl/ec2stats/internal/version"
	"github.com/younsl/ec2stats/pkg/analysis"
	"github.com/younsl/ec2stats/pkg/aws"
	"github.com/younsl/ec2stats/pkg/collector"
	"github.com/younsl/ec2stats/pkg/formatter"
	"github.com/younsl/ec2stats/pkg/metrics"
	"github.com/younsl/ec2stats/pkg/pricing"
	"github.com/younsl/ec2stats/pkg/runner"
	"github.com/younsl/ec2stats/pkg/storage"
	"github.com/younsl/ec2stats/pkg/utils"
)

// archiveRegion is where the S3 client for the archive bucket is created
const archiveRegion = "us-east-1"

type options struct {
	regions       []string
	accessKey     string
	secretKey     string
	profile       string
	configPath    string
	url           string
	noAnalysis    bool
	loadStats     string
	quiet         bool
	threshold     []int
	days          int
	period        int
	concurrency   int
	apiRate       float64
	outputDir     string
	archiveBucket string
	metricsFile   string
	pricing       bool
	verbose       bool
	showVersion   bool
	listRegions   bool
}

// startSpinner creates and starts a spinner with a message
func startSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	s.Start()
	return s
}

func main() {
	var opts options
	var fileCfg config.Config

	rootCmd := &cobra.Command{
		Use:   "ec2stats",
		Short: "Collect EC2 CPU utilization and find under-utilized instances",
		Long: `ec2stats collects CPU utilization statistics of EC2 instances across regions,
saves them as a date-stamped snapshot and submits the snapshot to an analysis
service that reports under-utilized capacity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(opts.verbose)
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			fileCfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Println(version.Get().String())
				return nil
			}
			if opts.listRegions {
				printRegions()
				return nil
			}

			cfg, thresholdSet := resolveConfig(cmd, opts, fileCfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cfg, thresholdSet)
		},
	}

	flags := rootCmd.Flags()
	flags.StringSliceVarP(&opts.regions, "regions", "r", nil,
		fmt.Sprintf("AWS regions to scan (comma separated, default: %s)", strings.Join(utils.DefaultRegions(), ", ")))
	flags.StringVarP(&opts.accessKey, "access-key", "k", "", "AWS access key id")
	flags.StringVarP(&opts.secretKey, "secret-key", "s", "", "AWS secret access key")
	flags.StringVarP(&opts.profile, "profile", "p", "", "AWS profile name")
	flags.StringVarP(&opts.configPath, "config-path", "c", "", "Directory holding the AWS credentials file")
	flags.StringVarP(&opts.url, "url", "u", "", fmt.Sprintf("Analysis service URL (default: %s)", config.DefaultURL))
	flags.BoolVar(&opts.noAnalysis, "no-analysis", false, "Collect and save the snapshot without submitting it")
	flags.StringVarP(&opts.loadStats, "load-stats", "l", "", "Load a saved ec2stats-*.json instead of collecting")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print reports")
	flags.IntSliceVarP(&opts.threshold, "threshold", "t", nil, "Under-utilization threshold as avg,max CPU percent (default: 5,30)")
	flags.IntVar(&opts.days, "days", config.DefaultDays, "Days of CPU statistics to collect")
	flags.IntVar(&opts.period, "period", config.DefaultPeriod, "Statistics period in seconds")
	flags.IntVar(&opts.concurrency, "concurrency", config.DefaultConcurrency, "Metric workers per region")
	flags.Float64Var(&opts.apiRate, "api-rate", config.DefaultAPIRate, "CloudWatch requests per second per region (0 = unlimited)")
	flags.StringVar(&opts.outputDir, "output-dir", ".", "Directory for saved documents")
	flags.StringVar(&opts.archiveBucket, "archive-bucket", "", "Also upload saved documents to s3://bucket[/prefix]")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
	flags.BoolVar(&opts.pricing, "pricing", false, "Estimate on-demand monthly cost per instance")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flags.BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")
	flags.BoolVar(&opts.listRegions, "list-regions", false, "List known regions")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers flags over the config file over defaults. It reports
// whether a threshold was set explicitly by either.
func resolveConfig(cmd *cobra.Command, opts options, fileCfg config.Config) (config.Config, bool) {
	flags := cmd.Flags()
	var flagCfg config.Config

	if flags.Changed("regions") {
		flagCfg.Regions = opts.regions
	}
	if flags.Changed("url") {
		flagCfg.URL = opts.url
	}
	if flags.Changed("days") {
		flagCfg.Days = opts.days
	}
	if flags.Changed("period") {
		flagCfg.Period = opts.period
	}
	if flags.Changed("threshold") && len(opts.threshold) > 0 {
		t := config.ThresholdConfig{Avg: opts.threshold[0], Max: models.DefaultThresholdMax}
		if len(opts.threshold) > 1 {
			t.Max = opts.threshold[1]
		}
		flagCfg.Threshold = &t
	}
	if flags.Changed("concurrency") {
		flagCfg.Concurrency = opts.concurrency
	}
	if flags.Changed("api-rate") {
		rate := opts.apiRate
		flagCfg.APIRate = &rate
	}
	if flags.Changed("profile") {
		flagCfg.Profile = opts.profile
	}
	if flags.Changed("config-path") {
		flagCfg.ConfigPath = opts.configPath
	}
	if flags.Changed("output-dir") {
		flagCfg.OutputDir = opts.outputDir
	}
	if flags.Changed("archive-bucket") {
		flagCfg.ArchiveBucket = opts.archiveBucket
	}
	if flags.Changed("metrics-file") {
		flagCfg.MetricsFile = opts.metricsFile
	}
	flagCfg.Pricing = opts.pricing

	cfg := config.Default().Merge(fileCfg).Merge(flagCfg)
	return cfg, cfg.Threshold != nil
}

func run(ctx context.Context, opts options, cfg config.Config, thresholdSet bool) error {
	creds := aws.Credentials{
		AccessKey:  opts.accessKey,
		SecretKey:  opts.secretKey,
		Profile:    cfg.Profile,
		ConfigPath: cfg.ConfigPath,
	}
	recorder := metrics.NewRecorder()

	var archiver storage.Archiver
	if cfg.ArchiveBucket != "" {
		awsCfg, err := aws.LoadConfig(ctx, archiveRegion, creds)
		if err != nil {
			return err
		}
		s3Archiver, err := aws.NewS3Archiver(awsCfg, cfg.ArchiveBucket)
		if err != nil {
			return err
		}
		archiver = s3Archiver
	}
	store := storage.NewStore(cfg.OutputDir, archiver)

	var threshold *models.Threshold
	if thresholdSet {
		t := cfg.Threshold.Model()
		threshold = &t
	}

	var source runner.Source
	if opts.loadStats != "" {
		source = &runner.FileSource{Path: opts.loadStats}
	} else {
		regions, invalid := utils.EnumerateRegions(cfg.Regions)
		for _, region := range invalid {
			fmt.Printf("Warning: Skipping invalid region '%s'\n", region)
		}
		if len(regions) == 0 {
			return errors.New("no valid regions specified")
		}
		slog.Debug("scanning regions", "regions", regions)

		factory := func(ctx context.Context, region string) (collector.RegionClients, error) {
			awsCfg, err := aws.LoadConfig(ctx, region, creds)
			if err != nil {
				return collector.RegionClients{}, err
			}
			return collector.RegionClients{
				Instances: aws.NewEC2Client(awsCfg, recorder),
				Metrics: aws.NewMetricFetcher(awsCfg, aws.MetricFetcherOptions{
					Days:      cfg.Days,
					Period:    cfg.Period,
					RateLimit: cfg.APIRateLimit(),
					Recorder:  recorder,
				}),
			}, nil
		}
		source = &runner.CollectorSource{
			Collector: collector.New(regions, factory, collector.Options{
				Concurrency: cfg.Concurrency,
				OnRegion: func(region string, instances int, err error) {
					if err != nil {
						slog.Debug("region failed", "region", region, "error", err)
						return
					}
					slog.Debug("region done", "region", region, "instances", instances)
				},
			}),
			Recorder: recorder,
		}
	}

	r := &runner.Runner{
		Source:            source,
		Store:             store,
		ThresholdOverride: threshold,
		SkipAnalysis:      opts.noAnalysis,
	}
	if !opts.noAnalysis {
		r.Analyzer = analysis.NewClient(cfg.URL, store, analysis.Options{
			Timeout:   cfg.HTTPTimeoutDuration(),
			UserAgent: version.Get().UserAgent(),
		})
	}

	startTime := time.Now()
	var spin *spinner.Spinner
	r.OnStateChange = func(from, to runner.State) {
		if opts.quiet {
			return
		}
		if spin != nil {
			spin.Stop()
			spin = nil
		}
		switch to {
		case runner.StateCollecting:
			if opts.loadStats != "" {
				spin = startSpinner(fmt.Sprintf("Loading %s ...", opts.loadStats))
			} else {
				spin = startSpinner("Collecting EC2 CPU statistics ...")
			}
		case runner.StateSubmitting:
			spin = startSpinner(fmt.Sprintf("Submitting snapshot to %s ...", cfg.URL))
		}
	}

	outcome, runErr := r.Run(ctx)
	if spin != nil {
		spin.Stop()
	}

	report(ctx, opts, cfg, recorder, outcome, startTime)

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Warn("failed to write metrics file", "error", err)
		}
	}
	return runErr
}

// report prints the results of a run to stdout
func report(ctx context.Context, opts options, cfg config.Config, recorder *metrics.Recorder, outcome *runner.Outcome, startTime time.Time) {
	if outcome.Collection != nil {
		for _, err := range outcome.Collection.RegionErrors {
			fmt.Printf("Error in %v\n", err)
		}
		if n := len(outcome.Collection.MetricErrors); n > 0 {
			fmt.Printf("Warning: CPU statistics unavailable for %d instance(s)\n", n)
		}
	}

	if outcome.State == runner.StateFailed && outcome.SnapshotPath == "" {
		return
	}

	if !opts.quiet {
		var estimates map[string]pricing.Estimate
		if cfg.Pricing {
			estimates = estimatePrices(ctx, opts, cfg, recorder, outcome.Snapshot)
		}
		formatter.PrintSnapshotTable(os.Stdout, outcome.Snapshot, estimates, startTime, time.Since(startTime))
		formatter.PrintSnapshotSummary(os.Stdout, outcome.Snapshot)
	}

	if outcome.SnapshotPath != "" {
		fmt.Printf("\n%s saved to %s\n", storage.SnapshotPrefix, outcome.SnapshotPath)
	}

	if res := outcome.Analysis; res != nil {
		if res.RawPath != "" {
			fmt.Printf("%s saved to %s\n", storage.SummaryPrefix, res.RawPath)
		}
		if !opts.quiet {
			formatter.PrintSummary(os.Stdout, res.Summary)
		}
	}

	if !opts.quiet {
		families, err := recorder.Gather()
		if err != nil {
			slog.Warn("failed to gather metrics", "error", err)
			return
		}
		formatter.PrintAPIStats(os.Stdout, families)
	}
}

func estimatePrices(ctx context.Context, opts options, cfg config.Config, recorder *metrics.Recorder, snap models.Snapshot) map[string]pricing.Estimate {
	awsCfg, err := aws.LoadConfig(ctx, pricing.Region, aws.Credentials{
		AccessKey:  opts.accessKey,
		SecretKey:  opts.secretKey,
		Profile:    cfg.Profile,
		ConfigPath: cfg.ConfigPath,
	})
	if err != nil {
		fmt.Printf("Error loading AWS config for pricing API: %v\n", err)
		return nil
	}
	fmt.Printf("AWS Pricing API initialized in %s region (%s)\n", pricing.Region, pricing.Endpoint())

	spin := startSpinner("Retrieving EC2 pricing information ...")
	defer spin.Stop()
	return pricing.NewEstimator(awsCfg, recorder).EstimateInstances(ctx, snap.Instances)
}

func printRegions() {
	defaults := make(map[string]bool)
	for _, r := range utils.DefaultRegions() {
		defaults[r] = true
	}

	regions := make([]string, 0, len(utils.RegionDescriptiveNames))
	for r := range utils.RegionDescriptiveNames {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	fmt.Println("Available regions:")
	for _, r := range regions {
		if defaults[r] {
			fmt.Printf("  %-15s - %s (default)\n", r, utils.RegionDescriptiveNames[r])
		} else {
			fmt.Printf("  %-15s - %s\n", r, utils.RegionDescriptiveNames[r])
		}
	}
}
