package collecting

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

// Spec is a user-selected process: the first process whose full command
// line contains Search is tracked under Name.
type Spec struct {
	Index  int
	Name   string
	Search string
}

// State is the tracked view of the process bound to a Spec.
type State struct {
	PID         int32
	Name        string
	Cmdline     string
	CPU         float64
	MemoryBytes uint64
}

type pidSet map[int32]struct{}

func (s pidSet) has(pid int32) bool {
	_, ok := s[pid]
	return ok
}

// ProcessCache is the tracker state carried between cycles. Refreshed is the
// system PID set seen last cycle; Evaluated holds PIDs already checked
// against every unbound spec. States is index-aligned with the specs and
// holds nil for an unbound spec.
type ProcessCache struct {
	Refreshed pidSet
	Evaluated pidSet
	States    []*State
}

// NewProcessCache returns an empty cache for n specs. self is never matched.
func NewProcessCache(n int, self int32) *ProcessCache {
	return &ProcessCache{
		Refreshed: pidSet{},
		Evaluated: pidSet{self: {}},
		States:    make([]*State, n),
	}
}

// Bound returns the number of bound specs.
func (c *ProcessCache) Bound() int {
	n := 0
	for _, s := range c.States {
		if s != nil {
			n++
		}
	}
	return n
}

// Tracker binds specs to live processes and keeps their usage current
// without rescanning the process table while every spec is bound.
type Tracker struct {
	provider SystemProvider
	specs    []Spec
	self     int32
}

// NewTracker creates a tracker. self is the sampler's own PID.
func NewTracker(provider SystemProvider, specs []Spec, self int32) *Tracker {
	// Index is the slot in the cache and in Usage, so it follows slice order
	indexed := make([]Spec, len(specs))
	for i, spec := range specs {
		spec.Index = i
		indexed[i] = spec
	}
	return &Tracker{provider: provider, specs: indexed, self: self}
}

// Specs returns the tracked specs.
func (t *Tracker) Specs() []Spec {
	return t.specs
}

// Update runs one tracking cycle against cache.
func (t *Tracker) Update(cache *ProcessCache) error {
	if len(t.specs) == 0 {
		return nil
	}
	if len(cache.States) != len(t.specs) {
		return errors.Errorf("process cache has %d slots for %d specs", len(cache.States), len(t.specs))
	}

	if t.fastPath(cache) {
		return nil
	}
	return t.slowPath(cache)
}

// fastPath refreshes the bound processes when every spec is bound. It reports
// false when the slow path has to run.
func (t *Tracker) fastPath(cache *ProcessCache) bool {
	for _, s := range cache.States {
		if s == nil || !cache.Refreshed.has(s.PID) {
			return false
		}
	}

	ok := true
	for _, s := range cache.States {
		if !t.provider.RefreshProcess(s.PID) {
			delete(cache.Refreshed, s.PID)
			ok = false
			continue
		}
		t.copyUsage(s)
	}
	return ok
}

func (t *Tracker) slowPath(cache *ProcessCache) error {
	pids, err := t.provider.Pids()
	if err != nil {
		return err
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	current := make(pidSet, len(pids)+1)
	var fresh []int32
	for _, pid := range pids {
		current[pid] = struct{}{}
		if !cache.Refreshed.has(pid) {
			fresh = append(fresh, pid)
		}
	}
	current[t.self] = struct{}{}

	var vanished []int32
	for pid := range cache.Refreshed {
		if !current.has(pid) {
			vanished = append(vanished, pid)
		}
	}
	if len(vanished) > 0 {
		t.provider.Forget(vanished)
	}

	if len(fresh) > BulkRefreshThreshold {
		t.provider.RefreshProcesses(fresh)
	} else {
		for _, pid := range fresh {
			t.provider.RefreshProcess(pid)
		}
	}
	refreshedNow := make(pidSet, len(fresh))
	for _, pid := range fresh {
		refreshedNow[pid] = struct{}{}
	}

	t.bind(cache, pids)

	unbound := false
	for i, s := range cache.States {
		if s != nil && !current.has(s.PID) {
			logx.As().Info().
				Str("process", t.specs[i].Name).
				Int32("pid", s.PID).
				Msg("Tracked process exited")
			cache.States[i] = nil
			unbound = true
		}
	}

	for _, s := range cache.States {
		if s == nil {
			continue
		}
		if !refreshedNow.has(s.PID) && !t.provider.RefreshProcess(s.PID) {
			// gone since listing; keep the stale values until it is unbound
			delete(current, s.PID)
			continue
		}
		t.copyUsage(s)
	}

	cache.Refreshed = current
	if unbound {
		cache.Evaluated = pidSet{t.self: {}}
	} else {
		evaluated := make(pidSet, len(current))
		for pid := range current {
			evaluated[pid] = struct{}{}
		}
		evaluated[t.self] = struct{}{}
		cache.Evaluated = evaluated
	}
	return nil
}

// bind scans the not yet evaluated PIDs for every unbound spec. The match
// with the shortest command line wins.
func (t *Tracker) bind(cache *ProcessCache, pids []int32) {
	for i, spec := range t.specs {
		if cache.States[i] != nil {
			continue
		}

		var best *ProcessInfo
		for _, pid := range pids {
			if cache.Evaluated.has(pid) {
				continue
			}
			info, ok := t.provider.Process(pid)
			if !ok || !strings.Contains(info.Cmdline, spec.Search) {
				continue
			}
			if best == nil || len(info.Cmdline) < len(best.Cmdline) {
				candidate := info
				best = &candidate
			}
		}
		if best == nil {
			continue
		}

		cache.States[i] = &State{
			PID:         best.PID,
			Name:        best.Name,
			Cmdline:     best.Cmdline,
			CPU:         best.CPU,
			MemoryBytes: best.MemoryBytes,
		}
		logx.As().Info().
			Str("process", spec.Name).
			Int32("pid", best.PID).
			Str("cmdline", best.Cmdline).
			Msg("Tracking process")
	}
}

func (t *Tracker) copyUsage(s *State) {
	info, ok := t.provider.Process(s.PID)
	if !ok {
		return
	}
	s.Name = info.Name
	s.Cmdline = info.Cmdline
	s.CPU = info.CPU
	s.MemoryBytes = info.MemoryBytes
}

// Usage returns one entry per spec for the current cycle.
func (t *Tracker) Usage(cache *ProcessCache) []metrics.ProcessUsage {
	usage := make([]metrics.ProcessUsage, len(cache.States))
	for i, s := range cache.States {
		if s == nil {
			usage[i] = metrics.Unmonitored
			continue
		}
		usage[i] = metrics.ProcessUsage{
			Monitored: true,
			CPU:       s.CPU,
			MemoryMB:  MegaBytes(s.MemoryBytes),
		}
	}
	return usage
}
