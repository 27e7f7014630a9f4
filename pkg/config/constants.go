package config

import "time"

// Default configuration values.
const (
	DefaultInterval   = time.Second
	MinInterval       = 100 * time.Millisecond
	DefaultDataPath   = "system_data.csv"
	DefaultPlotPath   = "system_data_plot.html"
	DefaultBackups    = 3
	DefaultPlotWidth  = 1700
	DefaultPlotHeight = 800
	DefaultLogLevel   = "info"
	DefaultLogFile    = "hostsampler.log"
	DefaultExport     = "parquet"

	EnvPrefix = "HOSTSAMPLER"

	// forbiddenChars may not appear in process names or search strings
	// because they are delimiters in the data file.
	forbiddenChars = ",=;\n\r"
)

// DefaultMetrics are recorded when no metric is selected.
var DefaultMetrics = []string{"cpu-usage-total", "cpu-usage-per-core", "memory-used"}
