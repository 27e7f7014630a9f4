package metrics

import "sort"

// Header keys of line 1 of the data file.
const (
	KeyIntervalSeconds = "INTERVAL_SECONDS"
	KeyCPUCoreCount    = "CPU_CORE_COUNT"
	KeyMemoryTotal     = "MEMORY_TOTAL"
	KeySwapTotal       = "SWAP_TOTAL"
	KeyAppVersion      = "APP_VERSION"
	KeyCustomPrefix    = "CUSTOM_"
)

// DataFileHeader is the run metadata written once at the top of a data file.
// Totals are in megabytes.
type DataFileHeader struct {
	IntervalSeconds float64
	CPUCoreCount    int
	MemoryTotal     uint64
	SwapTotal       uint64
	AppVersion      string
	CustomNames     map[int]string
	// Extra keeps keys the reader did not recognise.
	Extra map[string]string
}

// CustomIndices returns the custom process indices in ascending order.
func (h DataFileHeader) CustomIndices() []int {
	indices := make([]int, 0, len(h.CustomNames))
	for idx := range h.CustomNames {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
