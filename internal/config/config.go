package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/younsl/ec2stats/internal/models"
)

// Defaults used when neither flags nor the config file set a value
const (
	DefaultURL         = "https://customer.fittedcloud.com/v1/ec2stats"
	DefaultDays        = 14
	DefaultPeriod      = 900 // 15 minutes
	DefaultConcurrency = 4
	DefaultAPIRate     = 10.0 // CloudWatch requests per second
	DefaultHTTPTimeout = 2 * time.Minute
)

// Config holds ec2stats configuration loaded from .ec2stats.yaml.
type Config struct {
	Regions       []string         `yaml:"regions"`
	URL           string           `yaml:"url"`
	Days          int              `yaml:"days"`
	Period        int              `yaml:"period"`
	Threshold     *ThresholdConfig `yaml:"threshold"`
	Concurrency   int              `yaml:"concurrency"`
	APIRate       *float64         `yaml:"api_rate"`
	HTTPTimeout   string           `yaml:"http_timeout"`
	Profile       string           `yaml:"profile"`
	ConfigPath    string           `yaml:"config_path"`
	OutputDir     string           `yaml:"output_dir"`
	ArchiveBucket string           `yaml:"archive_bucket"`
	MetricsFile   string           `yaml:"metrics_file"`
	Pricing       bool             `yaml:"pricing"`
}

// ThresholdConfig is the threshold section of the config file
type ThresholdConfig struct {
	Avg int `yaml:"avg"`
	Max int `yaml:"max"`
}

// Model converts the config section into the wire threshold
func (t ThresholdConfig) Model() models.Threshold {
	return models.Threshold{Avg: t.Avg, Max: t.Max}
}

// Default returns a config populated with the built-in defaults.
func Default() Config {
	rate := DefaultAPIRate
	return Config{
		URL:         DefaultURL,
		Days:        DefaultDays,
		Period:      DefaultPeriod,
		Concurrency: DefaultConcurrency,
		APIRate:     &rate,
		HTTPTimeout: DefaultHTTPTimeout.String(),
		OutputDir:   ".",
	}
}

// HTTPTimeoutDuration parses the timeout string as a duration.
func (c Config) HTTPTimeoutDuration() time.Duration {
	if c.HTTPTimeout == "" {
		return DefaultHTTPTimeout
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return DefaultHTTPTimeout
	}
	return d
}

// APIRateLimit returns the configured CloudWatch request rate (0 = unlimited)
func (c Config) APIRateLimit() float64 {
	if c.APIRate == nil {
		return DefaultAPIRate
	}
	return *c.APIRate
}

// Merge overlays the non-zero values of other onto c
func (c Config) Merge(other Config) Config {
	out := c
	if len(other.Regions) > 0 {
		out.Regions = other.Regions
	}
	if other.URL != "" {
		out.URL = other.URL
	}
	if other.Days > 0 {
		out.Days = other.Days
	}
	if other.Period > 0 {
		out.Period = other.Period
	}
	if other.Threshold != nil {
		t := *other.Threshold
		out.Threshold = &t
	}
	if other.Concurrency > 0 {
		out.Concurrency = other.Concurrency
	}
	if other.APIRate != nil {
		r := *other.APIRate
		out.APIRate = &r
	}
	if other.HTTPTimeout != "" {
		out.HTTPTimeout = other.HTTPTimeout
	}
	if other.Profile != "" {
		out.Profile = other.Profile
	}
	if other.ConfigPath != "" {
		out.ConfigPath = other.ConfigPath
	}
	if other.OutputDir != "" {
		out.OutputDir = other.OutputDir
	}
	if other.ArchiveBucket != "" {
		out.ArchiveBucket = other.ArchiveBucket
	}
	if other.MetricsFile != "" {
		out.MetricsFile = other.MetricsFile
	}
	if other.Pricing {
		out.Pricing = true
	}
	return out
}

// Validate checks the values that would otherwise produce broken API calls
func (c Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.Period <= 0 || c.Period%60 != 0 {
		return fmt.Errorf("period must be a positive multiple of 60 seconds, got %d", c.Period)
	}
	if c.Threshold != nil {
		t := c.Threshold
		if t.Avg < 0 || t.Avg > 100 || t.Max < 0 || t.Max > 100 {
			return fmt.Errorf("threshold values must be between 0 and 100, got avg=%d max=%d", t.Avg, t.Max)
		}
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.APIRate != nil && *c.APIRate < 0 {
		return fmt.Errorf("api_rate must not be negative, got %g", *c.APIRate)
	}
	if c.HTTPTimeout != "" {
		if _, err := time.ParseDuration(c.HTTPTimeout); err != nil {
			return fmt.Errorf("invalid http_timeout %q: %w", c.HTTPTimeout, err)
		}
	}
	return nil
}

// Load searches for .ec2stats.yaml or .ec2stats.yml in the given directory
// and returns the parsed config. Returns an empty Config if no file is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".ec2stats.yaml"),
		filepath.Join(dir, ".ec2stats.yml"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}
