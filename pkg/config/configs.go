// Package config provides configuration management for the sampler.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	"HostSampler/pkg/collecting"
	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

// Config holds all sampler configuration options.
type Config struct {
	// Collection settings
	Interval      time.Duration `mapstructure:"interval"`
	Metrics       []string      `mapstructure:"metrics"`
	Processes     []string      `mapstructure:"process"`
	FlushEveryRow bool          `mapstructure:"flush-every-row"`

	// Output settings
	DataPath string `mapstructure:"data-path"`
	Backups  int    `mapstructure:"backups"`
	MaxSize  string `mapstructure:"max-size"`

	// Plot settings
	PlotPath   string `mapstructure:"plot-path"`
	PlotWidth  int    `mapstructure:"plot-width"`
	PlotHeight int    `mapstructure:"plot-height"`
	WhitePlot  bool   `mapstructure:"white-plot"`
	OpenPlot   bool   `mapstructure:"open-plot"`

	// Export settings
	ExportFormat string `mapstructure:"format"`
	ExportPath   string `mapstructure:"output"`

	// Logging settings
	LogLevel string `mapstructure:"log-level"`
	LogFile  string `mapstructure:"log-file"`
	LogDir   string `mapstructure:"log-dir"`

	Archive ArchiveConfig `mapstructure:"archive"`

	kinds    []metrics.MetricKind
	specs    []collecting.Spec
	maxBytes datasize.ByteSize
}

// ArchiveConfig selects where finished runs are copied.
type ArchiveConfig struct {
	// Enabled turns archiving on.
	Enabled bool `mapstructure:"enabled"`
	// S3 contains the S3 bucket configuration.
	S3 BucketConfig `mapstructure:"s3"`
	// LocalDir contains the local directory configuration.
	LocalDir LocalDirConfig `mapstructure:"localdir"`
}

// BucketConfig holds the configuration for an S3 compatible bucket.
type BucketConfig struct {
	// Enabled indicates whether the bucket is used.
	Enabled bool `mapstructure:"enabled"`
	// Bucket is the name of the bucket.
	Bucket string `mapstructure:"bucket"`
	// Region is the region of the bucket.
	Region string `mapstructure:"region"`
	// Prefix is the prefix for objects in the bucket.
	Prefix string `mapstructure:"prefix"`
	// Endpoint is the endpoint for the bucket.
	Endpoint string `mapstructure:"endpoint"`
	// AccessKey is the access key for the bucket.
	AccessKey string `mapstructure:"accesskey"`
	// SecretKey is the secret key for the bucket.
	SecretKey string `mapstructure:"secretkey"`
	// UseSSL enables SSL for the bucket connection.
	UseSSL bool `mapstructure:"usessl"`
}

// LocalDirConfig holds the configuration for a local archive directory.
type LocalDirConfig struct {
	// Enabled indicates whether the directory is used.
	Enabled bool `mapstructure:"enabled"`
	// Path is the archive root directory.
	Path string `mapstructure:"path"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Interval:      DefaultInterval,
		Metrics:       append([]string(nil), DefaultMetrics...),
		FlushEveryRow: true,
		DataPath:      DefaultDataPath,
		Backups:       DefaultBackups,
		PlotPath:      DefaultPlotPath,
		PlotWidth:     DefaultPlotWidth,
		PlotHeight:    DefaultPlotHeight,
		ExportFormat:  DefaultExport,
		LogLevel:      DefaultLogLevel,
		LogFile:       DefaultLogFile,
	}
}

// ApplyDefaults fills in any missing values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if len(c.Metrics) == 0 {
		c.Metrics = append([]string(nil), DefaultMetrics...)
	}
	if c.DataPath == "" {
		c.DataPath = DefaultDataPath
	}
	if c.PlotPath == "" {
		c.PlotPath = DefaultPlotPath
	}
	if c.PlotWidth == 0 {
		c.PlotWidth = DefaultPlotWidth
	}
	if c.PlotHeight == 0 {
		c.PlotHeight = DefaultPlotHeight
	}
	if c.ExportFormat == "" {
		c.ExportFormat = DefaultExport
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
}

// Validate checks the configuration for errors and resolves metric names,
// process specs and the size cap.
func (c *Config) Validate() error {
	if c.Interval < MinInterval {
		return fmt.Errorf("interval must be at least %v, got %v", MinInterval, c.Interval)
	}
	if c.Backups < 0 {
		return fmt.Errorf("backups cannot be negative, got %d", c.Backups)
	}
	if c.PlotWidth <= 0 || c.PlotHeight <= 0 {
		return fmt.Errorf("plot size must be positive, got %dx%d", c.PlotWidth, c.PlotHeight)
	}
	if c.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (valid: %s)", c.LogLevel, strings.Join(ValidLogLevels(), ", "))
	}

	kinds, err := parseMetrics(c.Metrics)
	if err != nil {
		return err
	}
	specs, err := ParseProcessSpecs(c.Processes)
	if err != nil {
		return err
	}
	maxBytes, err := parseSize(c.MaxSize)
	if err != nil {
		return err
	}

	if c.Archive.Enabled {
		if err := c.Archive.validate(); err != nil {
			return err
		}
	}

	c.kinds = kinds
	c.specs = specs
	c.maxBytes = maxBytes
	return nil
}

func (a *ArchiveConfig) validate() error {
	if !a.S3.Enabled && !a.LocalDir.Enabled {
		return fmt.Errorf("archive is enabled but neither s3 nor localDir is")
	}
	if a.S3.Enabled && a.S3.Bucket == "" {
		return fmt.Errorf("archive.s3.bucket is required")
	}
	if a.S3.Enabled && a.S3.Endpoint == "" {
		return fmt.Errorf("archive.s3.endpoint is required")
	}
	if a.LocalDir.Enabled && a.LocalDir.Path == "" {
		return fmt.Errorf("archive.localDir.path is required")
	}
	return nil
}

// Kinds returns the selected metric columns. Valid after Validate.
func (c *Config) Kinds() []metrics.MetricKind {
	return c.kinds
}

// Specs returns the tracked process specs. Valid after Validate.
func (c *Config) Specs() []collecting.Spec {
	return c.specs
}

// MaxSizeBytes returns the data file size cap, zero for unlimited. Valid
// after Validate.
func (c *Config) MaxSizeBytes() datasize.ByteSize {
	return c.maxBytes
}

// Logging returns the logger configuration.
func (c *Config) Logging() *logx.LoggingConfig {
	lc := logx.DefaultLoggingConfig()
	lc.Level = c.LogLevel
	if c.LogDir != "" {
		lc.FileLogging = true
		lc.Directory = c.LogDir
		lc.Filename = c.LogFile
	}
	return lc
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"trace", "debug", "info", "warn", "error"}
}

func isValidLogLevel(level string) bool {
	for _, l := range ValidLogLevels() {
		if strings.EqualFold(l, level) {
			return true
		}
	}
	return false
}

func parseMetrics(names []string) ([]metrics.MetricKind, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one metric must be selected")
	}
	kinds := make([]metrics.MetricKind, 0, len(names))
	seen := make(map[metrics.MetricKind]bool, len(names))
	for _, name := range names {
		k, err := metrics.ParseSelection(name)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, fmt.Errorf("metric %q selected more than once", name)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ParseProcessSpecs parses "name=search" or "search" entries into specs
// indexed in the given order.
func ParseProcessSpecs(values []string) ([]collecting.Spec, error) {
	specs := make([]collecting.Spec, 0, len(values))
	for i, value := range values {
		name, search, found := strings.Cut(value, "=")
		if !found {
			search = name
		}
		name = strings.TrimSpace(name)
		search = strings.TrimSpace(search)

		if name == "" || search == "" {
			return nil, fmt.Errorf("invalid process %q: name and search string cannot be empty", value)
		}
		if strings.ContainsAny(name, forbiddenChars) || strings.ContainsAny(search, forbiddenChars) {
			return nil, fmt.Errorf("invalid process %q: name and search string cannot contain ',', '=', ';' or newlines", value)
		}
		specs = append(specs, collecting.Spec{Index: i, Name: name, Search: search})
	}
	return specs, nil
}

func parseSize(value string) (datasize.ByteSize, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if value == "" {
		return 0, nil
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(value)); err != nil {
		return 0, fmt.Errorf("invalid max size %q: %w", value, err)
	}
	return size, nil
}
