// Package collecting reads host metrics and tracks user-selected processes.
package collecting

// CPUInfo is the CPU usage measured by the last RefreshCPU call.
type CPUInfo struct {
	// Total is the mean of PerCore, in percent.
	Total   float64
	PerCore []float64
}

// MemoryInfo is the memory usage measured by the last RefreshMemory call, in
// bytes. Swap fields are only updated when swap was requested.
type MemoryInfo struct {
	Total     uint64
	Used      uint64
	Free      uint64
	Available uint64
	SwapTotal uint64
	SwapUsed  uint64
	SwapFree  uint64
}

// ProcessInfo is the last refreshed view of one process.
type ProcessInfo struct {
	PID         int32
	Name        string
	Cmdline     string
	CPU         float64
	MemoryBytes uint64
}

// SystemProvider exposes the OS metric primitives used by the sampler. Refresh
// calls measure, accessors return the last measurement.
type SystemProvider interface {
	RefreshCPU() error
	RefreshMemory(withSwap bool) error
	CPU() CPUInfo
	Memory() MemoryInfo
	CoreCount() int

	// Pids lists every PID currently on the system.
	Pids() ([]int32, error)
	// RefreshProcess measures one process and reports false when it is gone.
	RefreshProcess(pid int32) bool
	// RefreshProcesses measures a batch of processes. Gone processes are
	// dropped silently.
	RefreshProcesses(pids []int32)
	Process(pid int32) (ProcessInfo, bool)
	// Forget drops any state kept for pids.
	Forget(pids []int32)
}

// BytesToMegaBytes converts bytes to whole megabytes.
func BytesToMegaBytes(b uint64) uint64 {
	return b / bytesPerMegaByte
}

// MegaBytes converts bytes to fractional megabytes.
func MegaBytes(b uint64) float64 {
	return float64(b) / bytesPerMegaByte
}
