package collecting

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"

	"HostSampler/pkg/logx"
)

// GopsutilProvider implements SystemProvider on gopsutil. Process handles are
// cached per PID so CPU percentages are deltas between refreshes.
type GopsutilProvider struct {
	cores   int
	workers int
	cpu     CPUInfo
	memory  MemoryInfo

	mu      sync.Mutex
	handles map[int32]*process.Process
	infos   map[int32]ProcessInfo
}

// NewGopsutilProvider detects the logical core count.
func NewGopsutilProvider() (*GopsutilProvider, error) {
	cores, err := cpu.Counts(true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count CPU cores")
	}
	return &GopsutilProvider{
		cores:   cores,
		workers: runtime.NumCPU(),
		handles: make(map[int32]*process.Process),
		infos:   make(map[int32]ProcessInfo),
	}, nil
}

func (p *GopsutilProvider) RefreshCPU() error {
	perCore, err := cpu.Percent(0, true)
	if err != nil {
		return errors.Wrap(err, "failed to read CPU usage")
	}
	total := 0.0
	for _, v := range perCore {
		total += v
	}
	if len(perCore) > 0 {
		total /= float64(len(perCore))
	}
	p.cpu = CPUInfo{Total: total, PerCore: perCore}
	return nil
}

func (p *GopsutilProvider) RefreshMemory(withSwap bool) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return errors.Wrap(err, "failed to read memory usage")
	}
	p.memory.Total = vm.Total
	p.memory.Used = vm.Used
	p.memory.Free = vm.Free
	p.memory.Available = vm.Available

	if !withSwap {
		return nil
	}
	sw, err := mem.SwapMemory()
	if err != nil {
		return errors.Wrap(err, "failed to read swap usage")
	}
	p.memory.SwapTotal = sw.Total
	p.memory.SwapUsed = sw.Used
	p.memory.SwapFree = sw.Free
	return nil
}

func (p *GopsutilProvider) CPU() CPUInfo       { return p.cpu }
func (p *GopsutilProvider) Memory() MemoryInfo { return p.memory }
func (p *GopsutilProvider) CoreCount() int     { return p.cores }

func (p *GopsutilProvider) Pids() ([]int32, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list processes")
	}
	return pids, nil
}

func (p *GopsutilProvider) RefreshProcess(pid int32) bool {
	info, ok := p.measure(pid)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !ok {
		delete(p.handles, pid)
		delete(p.infos, pid)
		return false
	}
	p.infos[pid] = info
	return true
}

// RefreshProcesses fans the batch out over a worker pool.
func (p *GopsutilProvider) RefreshProcesses(pids []int32) {
	pidChan := make(chan int32, len(pids))
	for _, pid := range pids {
		pidChan <- pid
	}
	close(pidChan)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pid := range pidChan {
				p.RefreshProcess(pid)
			}
		}()
	}
	wg.Wait()
}

func (p *GopsutilProvider) Process(pid int32) (ProcessInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.infos[pid]
	return info, ok
}

func (p *GopsutilProvider) Forget(pids []int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pid := range pids {
		delete(p.handles, pid)
		delete(p.infos, pid)
	}
}

func (p *GopsutilProvider) handle(pid int32) (*process.Process, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.handles[pid]; ok {
		return h, nil
	}
	h, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	p.handles[pid] = h
	return h, nil
}

// measure reads one process. A failure to read the name or memory means the
// process is gone.
func (p *GopsutilProvider) measure(pid int32) (ProcessInfo, bool) {
	h, err := p.handle(pid)
	if err != nil {
		return ProcessInfo{}, false
	}
	name, err := h.Name()
	if err != nil {
		return ProcessInfo{}, false
	}
	memInfo, err := h.MemoryInfo()
	if err != nil {
		return ProcessInfo{}, false
	}
	// kernel threads have no command line
	cmdline, _ := h.Cmdline()
	cpuPercent, err := h.Percent(0)
	if err != nil {
		logx.As().Trace().Int32("pid", pid).Err(err).Msg("Failed to read process CPU usage")
	}
	return ProcessInfo{
		PID:         pid,
		Name:        name,
		Cmdline:     cmdline,
		CPU:         cpuPercent,
		MemoryBytes: memInfo.RSS,
	}, true
}
