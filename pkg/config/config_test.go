package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HostSampler/pkg/collecting"
	"HostSampler/pkg/metrics"
)

func TestDefaultsValidate(t *testing.T) {
	c := New()
	require.NoError(t, c.Validate())
	assert.Equal(t, []metrics.MetricKind{metrics.CPUTotal, metrics.CPUPerCore, metrics.MemoryUsed}, c.Kinds())
	assert.Empty(t, c.Specs())
	assert.Zero(t, c.MaxSizeBytes())
	assert.False(t, c.Logging().FileLogging)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"short interval", func(c *Config) { c.Interval = 50 * time.Millisecond }, "interval"},
		{"negative backups", func(c *Config) { c.Backups = -1 }, "backups"},
		{"unknown metric", func(c *Config) { c.Metrics = []string{"gpu-usage"} }, "gpu-usage"},
		{"duplicate metric", func(c *Config) { c.Metrics = []string{"memory-used", "MEMORY_USED"} }, "more than once"},
		{"no metrics", func(c *Config) { c.Metrics = nil }, "at least one"},
		{"bad size", func(c *Config) { c.MaxSize = "lots" }, "max size"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"comma in search", func(c *Config) { c.Processes = []string{"db=postgres,mysql"} }, "cannot contain"},
		{"semicolon in name", func(c *Config) { c.Processes = []string{"d;b=postgres"} }, "cannot contain"},
		{"empty search", func(c *Config) { c.Processes = []string{"db="} }, "cannot be empty"},
		{"archive without target", func(c *Config) { c.Archive.Enabled = true }, "neither"},
		{"archive bucket", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.S3.Enabled = true
		}, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.modify(c)
			assert.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}
}

func TestParseProcessSpecs(t *testing.T) {
	specs, err := ParseProcessSpecs([]string{"db=postgres -D", "nginx", " web = node server.js "})
	require.NoError(t, err)
	assert.Equal(t, []collecting.Spec{
		{Index: 0, Name: "db", Search: "postgres -D"},
		{Index: 1, Name: "nginx", Search: "nginx"},
		{Index: 2, Name: "web", Search: "node server.js"},
	}, specs)

	_, err = ParseProcessSpecs([]string{"a=b=c"})
	assert.Error(t, err)
}

func TestMaxSize(t *testing.T) {
	c := New()
	c.MaxSize = "10MB"
	require.NoError(t, c.Validate())
	assert.Equal(t, 10*datasize.MB, c.MaxSizeBytes())

	c.MaxSize = "0"
	require.NoError(t, c.Validate())
	assert.Zero(t, c.MaxSizeBytes())
}

func TestLoggingWithDirectory(t *testing.T) {
	c := New()
	c.LogDir = "/var/log/hostsampler"
	c.LogLevel = "debug"
	lc := c.Logging()
	assert.True(t, lc.FileLogging)
	assert.Equal(t, "/var/log/hostsampler", lc.Directory)
	assert.Equal(t, DefaultLogFile, lc.Filename)
	assert.Equal(t, "debug", lc.Level)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostsampler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interval: 2s
data-path: from-file.csv
backups: 5
max-size: 1GB
metrics:
  - cpu-usage-total
  - swap-used
process:
  - db=postgres
archive:
  enabled: true
  localDir:
    enabled: true
    path: /srv/archive
  s3:
    bucket: samples
    endpoint: localhost:9000
`), 0o644))
	t.Setenv("HOSTSAMPLER_BACKUPS", "7")

	c := New()
	cmd := &cobra.Command{Use: "collect"}
	c.AddCollectionFlags(cmd)
	c.AddOutputFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--data-path", "from-flag.csv"}))

	require.NoError(t, c.Load(path, cmd.Flags()))
	assert.Equal(t, 2*time.Second, c.Interval)
	assert.Equal(t, "from-flag.csv", c.DataPath)
	assert.Equal(t, 7, c.Backups)
	assert.Equal(t, datasize.GB, c.MaxSizeBytes())
	assert.Equal(t, []metrics.MetricKind{metrics.CPUTotal, metrics.SwapUsed}, c.Kinds())
	assert.Equal(t, []collecting.Spec{{Index: 0, Name: "db", Search: "postgres"}}, c.Specs())
	assert.True(t, c.Archive.Enabled)
	assert.Equal(t, "/srv/archive", c.Archive.LocalDir.Path)
	assert.Equal(t, "samples", c.Archive.S3.Bucket)
	assert.False(t, c.Archive.S3.Enabled)
	assert.True(t, c.FlushEveryRow)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("HOSTSAMPLER_INTERVAL", "250ms")
	c := New()
	require.NoError(t, c.Load("", nil))
	assert.Equal(t, 250*time.Millisecond, c.Interval)
	assert.Equal(t, DefaultDataPath, c.DataPath)
}

func TestLoadMissingFile(t *testing.T) {
	c := New()
	assert.Error(t, c.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil))
}
