package exporting

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"

	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

const maxLineSize = 16 * 1024 * 1024

// LoadSeries reads a data file written by DataWriter. Rows with the wrong
// field count or an unparsable number are skipped with a warning; header
// problems and per-core shape mismatches are fatal.
func LoadSeries(path string) (*metrics.CollectedSeries, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat data file %s", path)
	}
	logx.As().Info().
		Str("path", path).
		Str("size", datasize.ByteSize(stat.Size()).HumanReadable()).
		Msg("Loading data file")

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open data file %s", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, writerBufferSize), maxLineSize)

	if !scanner.Scan() {
		return nil, scanErr(path, scanner.Err(), 1, "missing header line")
	}
	header, err := parseHeader(path, scanner.Text())
	if err != nil {
		return nil, err
	}

	if !scanner.Scan() {
		return nil, scanErr(path, scanner.Err(), 2, "missing column line")
	}
	kinds, err := parseColumns(path, scanner.Text(), header.CustomNames)
	if err != nil {
		return nil, err
	}

	series := metrics.NewCollectedSeries(header, kinds)
	perCore := -1
	for i, k := range kinds {
		if k.Kind == metrics.KindCPUPerCore {
			perCore = i
			series.Cores = make([][]float64, header.CPUCoreCount)
		}
	}

	p := rowParser{path: path, kinds: kinds, perCore: perCore, cores: header.CPUCoreCount}
	lineNo := 2
	skipped := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ok, err := p.parse(line, lineNo)
		if err != nil {
			return nil, err
		}
		if !ok {
			skipped++
			continue
		}
		series.Timestamps = append(series.Timestamps, p.timestamp)
		for i, k := range kinds {
			if i == perCore {
				continue
			}
			series.Columns[k] = append(series.Columns[k], p.values[i])
		}
		for c, v := range p.coreValues {
			series.Cores[c] = append(series.Cores[c], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read data file %s", path)
	}

	logx.As().Debug().
		Str("path", path).
		Int("rows", series.Len()).
		Int("skipped", skipped).
		Msg("Loaded data file")
	return series, nil
}

func scanErr(path string, err error, line int, reason string) error {
	if err != nil {
		return errors.Wrapf(err, "failed to read data file %s", path)
	}
	return &FormatError{Path: path, Line: line, Reason: reason}
}

func parseHeader(path, line string) (metrics.DataFileHeader, error) {
	values := make(map[string]string)
	for _, item := range strings.Split(line, fieldDelimiter) {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return metrics.DataFileHeader{}, &FormatError{Path: path, Line: 1, Token: item, Reason: "header entry is not KEY=VALUE"}
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	required := func(key string) (string, error) {
		v, ok := values[key]
		if !ok {
			return "", &FormatError{Path: path, Line: 1, Token: key, Reason: "missing header key"}
		}
		delete(values, key)
		return v, nil
	}
	invalid := func(key, value string) error {
		return &FormatError{Path: path, Line: 1, Token: key + "=" + value, Reason: "invalid header value"}
	}

	var h metrics.DataFileHeader

	v, err := required(metrics.KeyIntervalSeconds)
	if err != nil {
		return h, err
	}
	if h.IntervalSeconds, err = strconv.ParseFloat(v, 64); err != nil || h.IntervalSeconds <= 0 {
		return h, invalid(metrics.KeyIntervalSeconds, v)
	}

	if v, err = required(metrics.KeyCPUCoreCount); err != nil {
		return h, err
	}
	if h.CPUCoreCount, err = strconv.Atoi(v); err != nil || h.CPUCoreCount < 0 {
		return h, invalid(metrics.KeyCPUCoreCount, v)
	}

	if v, err = required(metrics.KeyMemoryTotal); err != nil {
		return h, err
	}
	if h.MemoryTotal, err = strconv.ParseUint(v, 10, 64); err != nil {
		return h, invalid(metrics.KeyMemoryTotal, v)
	}

	if v, err = required(metrics.KeySwapTotal); err != nil {
		return h, err
	}
	if h.SwapTotal, err = strconv.ParseUint(v, 10, 64); err != nil {
		return h, invalid(metrics.KeySwapTotal, v)
	}

	if h.AppVersion, err = required(metrics.KeyAppVersion); err != nil {
		return h, err
	}

	for key, value := range values {
		if idx, ok := customIndex(key); ok {
			if h.CustomNames == nil {
				h.CustomNames = make(map[int]string)
			}
			h.CustomNames[idx] = value
			continue
		}
		if h.Extra == nil {
			h.Extra = make(map[string]string)
		}
		h.Extra[key] = value
	}
	return h, nil
}

// customIndex parses "CUSTOM_{idx}".
func customIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, metrics.KeyCustomPrefix)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func parseColumns(path, line string, customNames map[int]string) ([]metrics.MetricKind, error) {
	tokens := strings.Split(line, fieldDelimiter)
	if len(tokens) <= 1 {
		return nil, &FormatError{Path: path, Line: 2, Token: line, Reason: "no data columns declared"}
	}
	if strings.TrimSpace(tokens[0]) != metrics.TokenTimestamp {
		return nil, &FormatError{Path: path, Line: 2, Token: tokens[0], Reason: "first column must be " + metrics.TokenTimestamp}
	}

	kinds := make([]metrics.MetricKind, 0, len(tokens)-1)
	seen := make(map[metrics.MetricKind]bool, len(tokens)-1)
	for _, token := range tokens[1:] {
		k, err := metrics.ParseKind(token, customNames)
		if err != nil {
			return nil, &FormatError{Path: path, Line: 2, Token: token, Reason: err.Error()}
		}
		if k.Kind == metrics.KindTimestamp || seen[k] {
			return nil, &FormatError{Path: path, Line: 2, Token: token, Reason: "duplicate column"}
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// rowParser decodes one row into reusable buffers.
type rowParser struct {
	path    string
	kinds   []metrics.MetricKind
	perCore int
	cores   int

	timestamp  float64
	values     []float64
	coreValues []float64
}

// parse reports false for a row that should be skipped. The error is set only
// for a per-core shape mismatch.
func (p *rowParser) parse(line string, lineNo int) (bool, error) {
	fields := strings.Split(line, fieldDelimiter)
	if len(fields) != len(p.kinds)+1 {
		logx.As().Warn().
			Str("path", p.path).
			Int("line", lineNo).
			Str("row", line).
			Int("fields", len(fields)).
			Int("expected", len(p.kinds)+1).
			Msg("Skipping row with wrong field count")
		return false, nil
	}

	ts, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		p.warnNumber(line, lineNo, fields[0])
		return false, nil
	}
	p.timestamp = ts

	if cap(p.values) < len(p.kinds) {
		p.values = make([]float64, len(p.kinds))
	}
	p.values = p.values[:len(p.kinds)]
	p.coreValues = p.coreValues[:0]

	for i, field := range fields[1:] {
		if i == p.perCore {
			parts := strings.Split(field, perCoreDelimiter)
			if len(parts) != p.cores {
				return false, &FormatError{
					Path:   p.path,
					Line:   lineNo,
					Token:  field,
					Reason: "per-core field has " + strconv.Itoa(len(parts)) + " values, header declares " + strconv.Itoa(p.cores) + " cores",
				}
			}
			for _, part := range parts {
				v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err != nil {
					p.warnNumber(line, lineNo, part)
					return false, nil
				}
				p.coreValues = append(p.coreValues, v)
			}
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			p.warnNumber(line, lineNo, field)
			return false, nil
		}
		p.values[i] = v
	}
	return true, nil
}

func (p *rowParser) warnNumber(line string, lineNo int, field string) {
	logx.As().Warn().
		Str("path", p.path).
		Int("line", lineNo).
		Str("row", line).
		Str("field", field).
		Msg("Skipping row with unparsable number")
}
