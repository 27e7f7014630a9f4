package metrics

// Sample is one tick of data in declared column order.
type Sample struct {
	// Timestamp is Unix seconds.
	Timestamp float64
	// Values holds one entry per selected kind; CPUPerCore entries are
	// ignored in favour of PerCore.
	Values  []float64
	PerCore []float64
	// Processes holds one entry per tracked process spec.
	Processes []ProcessUsage
}

// ProcessUsage is the usage of one tracked process slot in a sample.
type ProcessUsage struct {
	Monitored bool
	CPU       float64
	// MemoryMB is resident memory in megabytes.
	MemoryMB float64
}

// Unmonitored is written for a process slot with no bound PID.
var Unmonitored = ProcessUsage{}

// CollectedSeries is a decoded data file.
type CollectedSeries struct {
	Header DataFileHeader
	// Kinds lists the declared columns after the timestamp, in file order.
	Kinds      []MetricKind
	Timestamps []float64
	Columns    map[MetricKind][]float64
	// Cores is indexed [core][row] and only set when CPUPerCore was recorded.
	Cores [][]float64

	HasCPU    bool
	HasMemory bool
	HasSwap   bool
}

// NewCollectedSeries returns an empty series for the given header and kinds.
func NewCollectedSeries(header DataFileHeader, kinds []MetricKind) *CollectedSeries {
	s := &CollectedSeries{
		Header:  header,
		Kinds:   kinds,
		Columns: make(map[MetricKind][]float64, len(kinds)),
	}
	for _, k := range kinds {
		switch {
		case k.IsCPU():
			s.HasCPU = true
		case k.IsMemory():
			s.HasMemory = true
		case k.IsSwap():
			s.HasSwap = true
		}
	}
	return s
}

// Len returns the number of rows.
func (s *CollectedSeries) Len() int {
	return len(s.Timestamps)
}

// Column returns the values of kind, or nil when it was not recorded.
func (s *CollectedSeries) Column(k MetricKind) []float64 {
	return s.Columns[k]
}

// KindsWhere returns the declared kinds matching keep, in file order.
func (s *CollectedSeries) KindsWhere(keep func(MetricKind) bool) []MetricKind {
	var out []MetricKind
	for _, k := range s.Kinds {
		if keep(k) {
			out = append(out, k)
		}
	}
	return out
}
