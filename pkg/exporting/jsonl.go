package exporting

import (
	"bufio"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

func init() {
	Register(&JSONLFormat{})
}

// JSONLFormat exports one JSON object per sample.
type JSONLFormat struct{}

func (f *JSONLFormat) Name() string         { return "jsonl" }
func (f *JSONLFormat) Extensions() []string { return []string{".jsonl"} }
func (f *JSONLFormat) Reader() RecordReader { return &JSONLReader{} }
func (f *JSONLFormat) Writer() RecordWriter { return &JSONLWriter{} }

// JSONLReader reads JSONL files. Malformed lines are skipped.
type JSONLReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

func (r *JSONLReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	r.file = file
	r.scanner = bufio.NewScanner(file)
	r.scanner.Buffer(make([]byte, 0, writerBufferSize), maxLineSize)
	return nil
}

func (r *JSONLReader) Read() ([]Record, error) {
	var records []Record
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := r.scanner.Err(); err != nil {
		return records, errors.Wrap(err, "scanner error")
	}
	return records, nil
}

func (r *JSONLReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// JSONLWriter writes JSONL files.
type JSONLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	columns []string
}

func (w *JSONLWriter) Init(path string, columns []string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	w.file = file
	w.writer = bufio.NewWriterSize(file, writerBufferSize)
	w.columns = columns
	return nil
}

func (w *JSONLWriter) Write(record Record) error {
	out := make(Record, len(w.columns))
	for _, name := range w.columns {
		out[name] = record[name]
	}
	data, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}
	if _, err := w.writer.Write(data); err != nil {
		return errors.Wrap(err, "failed to write record")
	}
	return w.writer.WriteByte('\n')
}

func (w *JSONLWriter) Close() error {
	if w.file == nil {
		return nil
	}
	flushErr := w.writer.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return errors.Wrap(flushErr, "failed to flush")
	}
	return closeErr
}
