package exporting

import (
	"fmt"

	"github.com/pkg/errors"

	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

// unmonitored marks a custom process slot with no bound process.
const unmonitored = -1

// SeriesColumns returns the flat export columns of s. The per-core column is
// expanded to CPU_CORE_{i}.
func SeriesColumns(s *metrics.CollectedSeries) []string {
	columns := []string{metrics.TokenTimestamp}
	for _, k := range s.Kinds {
		if k.Kind == metrics.KindCPUPerCore {
			for c := range s.Cores {
				columns = append(columns, coreColumn(c))
			}
			continue
		}
		columns = append(columns, k.String())
	}
	return columns
}

func coreColumn(c int) string {
	return fmt.Sprintf("CPU_CORE_%d", c)
}

// SeriesRecords flattens s into one record per row. Unmonitored process
// values become nil.
func SeriesRecords(s *metrics.CollectedSeries) []Record {
	records := make([]Record, s.Len())
	for row, ts := range s.Timestamps {
		r := make(Record, len(s.Kinds)+len(s.Cores))
		r[metrics.TokenTimestamp] = ts
		for _, k := range s.Kinds {
			if k.Kind == metrics.KindCPUPerCore {
				for c, values := range s.Cores {
					r[coreColumn(c)] = values[row]
				}
				continue
			}
			v := s.Columns[k][row]
			if k.IsCustom() && v == unmonitored {
				r[k.String()] = nil
				continue
			}
			r[k.String()] = v
		}
		records[row] = r
	}
	return records
}

// ExportSeries writes s to path in the named format.
func ExportSeries(s *metrics.CollectedSeries, path, format string) error {
	f, ok := Get(format)
	if !ok {
		return errors.Errorf("unsupported export format %q", format)
	}

	w := f.Writer()
	if err := w.Init(path, SeriesColumns(s)); err != nil {
		return err
	}
	for i, r := range SeriesRecords(s) {
		if err := w.Write(r); err != nil {
			w.Close()
			return errors.Wrapf(err, "failed to write record %d", i)
		}
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "failed to finish %s", path)
	}

	logx.As().Info().
		Str("path", path).
		Str("format", f.Name()).
		Int("rows", s.Len()).
		Msg("Exported data")
	return nil
}
