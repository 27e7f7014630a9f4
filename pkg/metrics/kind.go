// Package metrics defines the column model shared by the sampler, the data
// file codec and the renderers.
package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags a MetricKind variant.
type Kind int

const (
	KindTimestamp Kind = iota
	KindCPUTotal
	KindCPUPerCore
	KindMemoryUsed
	KindMemoryFree
	KindMemoryAvailable
	KindSwapUsed
	KindSwapFree
	KindCustomCPU
	KindCustomMemory
)

// Column tokens written to line 2 of the data file.
const (
	TokenTimestamp       = "UNIX_TIMESTAMP"
	TokenCPUTotal        = "CPU_USAGE_TOTAL"
	TokenCPUPerCore      = "CPU_USAGE_PER_CORE"
	TokenMemoryUsed      = "MEMORY_USED"
	TokenMemoryFree      = "MEMORY_FREE"
	TokenMemoryAvailable = "MEMORY_AVAILABLE"
	TokenSwapUsed        = "SWAP_USED"
	TokenSwapFree        = "SWAP_FREE"
)

var builtinTokens = map[Kind]string{
	KindTimestamp:       TokenTimestamp,
	KindCPUTotal:        TokenCPUTotal,
	KindCPUPerCore:      TokenCPUPerCore,
	KindMemoryUsed:      TokenMemoryUsed,
	KindMemoryFree:      TokenMemoryFree,
	KindMemoryAvailable: TokenMemoryAvailable,
	KindSwapUsed:        TokenSwapUsed,
	KindSwapFree:        TokenSwapFree,
}

var customTokenPattern = regexp.MustCompile(`^CUSTOM_(\d+)_(CPU|MEMORY)$`)

// MetricKind is a single named measurement column. Custom variants carry the
// index and display name of the tracked process they belong to.
type MetricKind struct {
	Kind  Kind
	Index int
	Name  string
}

var (
	Timestamp       = MetricKind{Kind: KindTimestamp}
	CPUTotal        = MetricKind{Kind: KindCPUTotal}
	CPUPerCore      = MetricKind{Kind: KindCPUPerCore}
	MemoryUsed      = MetricKind{Kind: KindMemoryUsed}
	MemoryFree      = MetricKind{Kind: KindMemoryFree}
	MemoryAvailable = MetricKind{Kind: KindMemoryAvailable}
	SwapUsed        = MetricKind{Kind: KindSwapUsed}
	SwapFree        = MetricKind{Kind: KindSwapFree}
)

// CustomCPU returns the CPU column of tracked process index.
func CustomCPU(index int, name string) MetricKind {
	return MetricKind{Kind: KindCustomCPU, Index: index, Name: name}
}

// CustomMemory returns the memory column of tracked process index.
func CustomMemory(index int, name string) MetricKind {
	return MetricKind{Kind: KindCustomMemory, Index: index, Name: name}
}

// String returns the column token of the kind.
func (k MetricKind) String() string {
	switch k.Kind {
	case KindCustomCPU:
		return fmt.Sprintf("CUSTOM_%d_CPU", k.Index)
	case KindCustomMemory:
		return fmt.Sprintf("CUSTOM_%d_MEMORY", k.Index)
	}
	if token, ok := builtinTokens[k.Kind]; ok {
		return token
	}
	return fmt.Sprintf("UNKNOWN_%d", int(k.Kind))
}

// Label returns a human readable series name used by charts.
func (k MetricKind) Label() string {
	switch k.Kind {
	case KindTimestamp:
		return "Time"
	case KindCPUTotal:
		return "CPU Total"
	case KindCPUPerCore:
		return "CPU Per Core"
	case KindMemoryUsed:
		return "Memory Used"
	case KindMemoryFree:
		return "Memory Free"
	case KindMemoryAvailable:
		return "Memory Available"
	case KindSwapUsed:
		return "Swap Used"
	case KindSwapFree:
		return "Swap Free"
	case KindCustomCPU:
		return k.Name + " CPU"
	case KindCustomMemory:
		return k.Name + " Memory"
	}
	return k.String()
}

// IsCustom reports whether the kind belongs to a tracked process.
func (k MetricKind) IsCustom() bool {
	return k.Kind == KindCustomCPU || k.Kind == KindCustomMemory
}

// IsCPU reports whether the kind is plotted on the CPU panel.
func (k MetricKind) IsCPU() bool {
	return k.Kind == KindCPUTotal || k.Kind == KindCPUPerCore || k.Kind == KindCustomCPU
}

// IsMemory reports whether the kind is plotted on the memory panel.
func (k MetricKind) IsMemory() bool {
	switch k.Kind {
	case KindMemoryUsed, KindMemoryFree, KindMemoryAvailable, KindCustomMemory:
		return true
	}
	return false
}

// IsSwap reports whether the kind is plotted on the swap panel.
func (k MetricKind) IsSwap() bool {
	return k.Kind == KindSwapUsed || k.Kind == KindSwapFree
}

// ParseKind resolves a column token. Custom tokens take their display name
// from customNames; an index missing from the map is an error.
func ParseKind(token string, customNames map[int]string) (MetricKind, error) {
	token = strings.TrimSpace(token)
	for kind, t := range builtinTokens {
		if t == token {
			return MetricKind{Kind: kind}, nil
		}
	}

	m := customTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return MetricKind{}, fmt.Errorf("unknown column %q", token)
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return MetricKind{}, fmt.Errorf("invalid custom index in column %q: %w", token, err)
	}
	name, ok := customNames[index]
	if !ok {
		return MetricKind{}, fmt.Errorf("column %q has no CUSTOM_%d name in the header", token, index)
	}
	if m[2] == "CPU" {
		return CustomCPU(index, name), nil
	}
	return CustomMemory(index, name), nil
}

// selectable lists the kinds a user may pick, in their canonical order.
var selectable = []MetricKind{
	CPUTotal, CPUPerCore, MemoryUsed, MemoryFree, MemoryAvailable, SwapUsed, SwapFree,
}

// SelectableNames returns the user-facing names of every selectable kind.
func SelectableNames() []string {
	names := make([]string, len(selectable))
	for i, k := range selectable {
		names[i] = SelectionName(k)
	}
	return names
}

// SelectionName returns the lower-kebab name used in flags and config files.
func SelectionName(k MetricKind) string {
	return strings.ToLower(strings.ReplaceAll(k.String(), "_", "-"))
}

// ParseSelection parses a user-facing metric name. Both "memory-used" and
// "MEMORY_USED" are accepted; the timestamp and custom kinds are not.
func ParseSelection(name string) (MetricKind, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for _, k := range selectable {
		if k.String() == normalized {
			return k, nil
		}
	}
	return MetricKind{}, fmt.Errorf("unknown metric %q (valid: %s)", name, strings.Join(SelectableNames(), ", "))
}

// NeedsSwap reports whether any of the kinds requires a swap refresh.
func NeedsSwap(kinds []MetricKind) bool {
	for _, k := range kinds {
		if k.IsSwap() {
			return true
		}
	}
	return false
}
