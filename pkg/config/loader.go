package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load merges an optional config file, HOSTSAMPLER_* environment variables and
// the changed flags over the current values of c, then validates the result.
// Precedence is flag, environment, file, then the current value.
func (c *Config) Load(path string, flags *pflag.FlagSet) error {
	v := viper.New()
	c.setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	c.ApplyDefaults()
	return c.Validate()
}

func (c *Config) setDefaults(v *viper.Viper) {
	v.SetDefault("interval", c.Interval)
	v.SetDefault("metrics", c.Metrics)
	v.SetDefault("process", c.Processes)
	v.SetDefault("flush-every-row", c.FlushEveryRow)
	v.SetDefault("data-path", c.DataPath)
	v.SetDefault("backups", c.Backups)
	v.SetDefault("max-size", c.MaxSize)
	v.SetDefault("plot-path", c.PlotPath)
	v.SetDefault("plot-width", c.PlotWidth)
	v.SetDefault("plot-height", c.PlotHeight)
	v.SetDefault("white-plot", c.WhitePlot)
	v.SetDefault("open-plot", c.OpenPlot)
	v.SetDefault("format", c.ExportFormat)
	v.SetDefault("output", c.ExportPath)
	v.SetDefault("log-level", c.LogLevel)
	v.SetDefault("log-file", c.LogFile)
	v.SetDefault("log-dir", c.LogDir)

	v.SetDefault("archive.enabled", c.Archive.Enabled)
	v.SetDefault("archive.s3.enabled", c.Archive.S3.Enabled)
	v.SetDefault("archive.s3.bucket", c.Archive.S3.Bucket)
	v.SetDefault("archive.s3.region", c.Archive.S3.Region)
	v.SetDefault("archive.s3.prefix", c.Archive.S3.Prefix)
	v.SetDefault("archive.s3.endpoint", c.Archive.S3.Endpoint)
	v.SetDefault("archive.s3.accesskey", c.Archive.S3.AccessKey)
	v.SetDefault("archive.s3.secretkey", c.Archive.S3.SecretKey)
	v.SetDefault("archive.s3.usessl", c.Archive.S3.UseSSL)
	v.SetDefault("archive.localdir.enabled", c.Archive.LocalDir.Enabled)
	v.SetDefault("archive.localdir.path", c.Archive.LocalDir.Path)
}
