package exporting

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"

	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

const (
	fieldDelimiter   = ","
	perCoreDelimiter = ";"
	unmonitoredValue = "-1"
	writerBufferSize = 64 * 1024
)

// WriterOptions controls durability and the size cap of a DataWriter.
type WriterOptions struct {
	// FlushEveryRow flushes the buffer after each row. When off, rows still
	// buffered at a crash are lost.
	FlushEveryRow bool
	// MaxSize caps the bytes of data rows. Zero means unlimited.
	MaxSize datasize.ByteSize
	// Backups is the number of previous data files kept by RotateBackups.
	Backups int
}

// DataWriter appends samples to a self-describing data file. The data path
// is locked for the lifetime of the writer.
type DataWriter struct {
	path    string
	lock    *os.File
	file    *os.File
	buf     *bufio.Writer
	kinds   []metrics.MetricKind
	custom  []int
	guard   *SizeGuard
	opts    WriterOptions
	rows    int
	scratch []byte
	closed  bool
}

// LockPath returns the sidecar file locked while a writer owns path.
func LockPath(path string) string {
	return path + ".lock"
}

// NewDataWriter takes the lock on path, rotates previous data files, then
// truncates path and writes both header lines. The lock is held from before
// rotation until Close. kinds are the selected columns after the timestamp;
// custom columns are derived from header.CustomNames.
func NewDataWriter(path string, header metrics.DataFileHeader, kinds []metrics.MetricKind, opts WriterOptions) (*DataWriter, error) {
	for _, k := range kinds {
		if k.Kind == metrics.KindTimestamp || k.IsCustom() {
			return nil, errors.Errorf("column %s cannot be selected directly", k)
		}
	}

	lock, err := os.OpenFile(LockPath(path), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open lock file for %s", path)
	}
	if err := lockFile(lock); err != nil {
		lock.Close()
		return nil, errors.Wrapf(err, "failed to lock data file %s", path)
	}
	release := func() {
		unlockFile(lock)
		lock.Close()
	}

	if err := RotateBackups(path, opts.Backups); err != nil {
		release()
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		release()
		return nil, errors.Wrapf(err, "failed to open data file %s", path)
	}

	w := &DataWriter{
		path:   path,
		lock:   lock,
		file:   file,
		buf:    bufio.NewWriterSize(file, writerBufferSize),
		kinds:  kinds,
		custom: header.CustomIndices(),
		guard:  NewSizeGuard(opts.MaxSize),
		opts:   opts,
	}

	if _, err := w.buf.WriteString(EncodeHeader(header, kinds)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to write header to %s", path)
	}
	if err := w.buf.Flush(); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to write header to %s", path)
	}

	logx.As().Debug().
		Str("path", path).
		Int("columns", len(kinds)+2*len(w.custom)+1).
		Str("max_size", opts.MaxSize.HumanReadable()).
		Msg("Opened data file")
	return w, nil
}

// EncodeHeader renders both header lines, each terminated by a newline.
func EncodeHeader(header metrics.DataFileHeader, kinds []metrics.MetricKind) string {
	var sb strings.Builder

	pairs := []string{
		metrics.KeyIntervalSeconds + "=" + strconv.FormatFloat(header.IntervalSeconds, 'f', -1, 64),
		metrics.KeyCPUCoreCount + "=" + strconv.Itoa(header.CPUCoreCount),
		metrics.KeyMemoryTotal + "=" + strconv.FormatUint(header.MemoryTotal, 10),
		metrics.KeySwapTotal + "=" + strconv.FormatUint(header.SwapTotal, 10),
		metrics.KeyAppVersion + "=" + header.AppVersion,
	}
	indices := header.CustomIndices()
	for _, idx := range indices {
		pairs = append(pairs, fmt.Sprintf("%s%d=%s", metrics.KeyCustomPrefix, idx, header.CustomNames[idx]))
	}
	sb.WriteString(strings.Join(pairs, fieldDelimiter))
	sb.WriteByte('\n')

	columns := make([]string, 0, 1+len(kinds)+2*len(indices))
	columns = append(columns, metrics.Timestamp.String())
	for _, k := range kinds {
		columns = append(columns, k.String())
	}
	for _, idx := range indices {
		name := header.CustomNames[idx]
		columns = append(columns, metrics.CustomCPU(idx, name).String(), metrics.CustomMemory(idx, name).String())
	}
	sb.WriteString(strings.Join(columns, fieldDelimiter))
	sb.WriteByte('\n')

	return sb.String()
}

// encodeRow formats s into w.scratch, newline included.
func (w *DataWriter) encodeRow(s metrics.Sample) ([]byte, error) {
	if len(s.Values) != len(w.kinds) {
		return nil, errors.Errorf("sample has %d values, expected %d", len(s.Values), len(w.kinds))
	}
	if len(s.Processes) != len(w.custom) {
		return nil, errors.Errorf("sample has %d process slots, expected %d", len(s.Processes), len(w.custom))
	}

	b := w.scratch[:0]
	b = strconv.AppendFloat(b, s.Timestamp, 'f', 2, 64)
	for i, k := range w.kinds {
		b = append(b, fieldDelimiter...)
		if k.Kind == metrics.KindCPUPerCore {
			for j, v := range s.PerCore {
				if j > 0 {
					b = append(b, perCoreDelimiter...)
				}
				b = strconv.AppendFloat(b, v, 'f', 2, 64)
			}
			continue
		}
		b = strconv.AppendFloat(b, s.Values[i], 'f', 2, 64)
	}
	for _, p := range s.Processes {
		if !p.Monitored {
			b = append(b, fieldDelimiter+unmonitoredValue+fieldDelimiter+unmonitoredValue...)
			continue
		}
		b = append(b, fieldDelimiter...)
		b = strconv.AppendFloat(b, p.CPU, 'f', 2, 64)
		b = append(b, fieldDelimiter...)
		b = strconv.AppendFloat(b, p.MemoryMB, 'f', 2, 64)
	}
	b = append(b, '\n')
	w.scratch = b
	return b, nil
}

// Write appends one row. When the row would reach the size cap the buffered
// rows are flushed and ErrSizeExceeded is returned without appending it.
func (w *DataWriter) Write(s metrics.Sample) error {
	if w.closed {
		return errors.Errorf("data file %s is closed", w.path)
	}
	row, err := w.encodeRow(s)
	if err != nil {
		return err
	}

	if !w.guard.Allow(len(row)) {
		if err := w.buf.Flush(); err != nil {
			return errors.Wrapf(err, "failed to flush data file %s", w.path)
		}
		return ErrSizeExceeded
	}

	n, err := w.buf.Write(row)
	w.guard.Add(n)
	if err != nil {
		return errors.Wrapf(err, "failed to write row to %s", w.path)
	}
	w.rows++

	if w.opts.FlushEveryRow {
		if err := w.buf.Flush(); err != nil {
			return errors.Wrapf(err, "failed to flush data file %s", w.path)
		}
	}
	return nil
}

// Flush writes buffered rows to the file.
func (w *DataWriter) Flush() error {
	if w.closed {
		return nil
	}
	return errors.Wrapf(w.buf.Flush(), "failed to flush data file %s", w.path)
}

// Close flushes, releases the lock and closes the file. It is safe to call
// more than once.
func (w *DataWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	unlockFile(w.lock)
	w.lock.Close()
	if flushErr != nil {
		return errors.Wrapf(flushErr, "failed to flush data file %s", w.path)
	}
	return errors.Wrapf(closeErr, "failed to close data file %s", w.path)
}

// Rows returns the number of rows written.
func (w *DataWriter) Rows() int {
	return w.rows
}

// BytesWritten returns the row bytes counted by the size guard.
func (w *DataWriter) BytesWritten() uint64 {
	return w.guard.Written()
}

// Path returns the data file path.
func (w *DataWriter) Path() string {
	return w.path
}
