package exporting

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

func init() {
	Register(&TSVFormat{})
}

// TSVFormat exports tab separated rows with a column header. CSV is not
// offered since ".csv" is the data file's own extension.
type TSVFormat struct{}

func (f *TSVFormat) Name() string         { return "tsv" }
func (f *TSVFormat) Extensions() []string { return []string{".tsv"} }
func (f *TSVFormat) Reader() RecordReader { return &DelimitedReader{delimiter: '\t'} }
func (f *TSVFormat) Writer() RecordWriter { return &DelimitedWriter{delimiter: '\t'} }

// DelimitedReader reads delimited exports. Empty cells become nil.
type DelimitedReader struct {
	file      *os.File
	reader    *csv.Reader
	header    []string
	delimiter rune
}

func (r *DelimitedReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	r.file = file
	r.reader = csv.NewReader(file)
	r.reader.Comma = r.delimiter
	r.reader.FieldsPerRecord = -1

	header, err := r.reader.Read()
	if err != nil {
		r.file.Close()
		return errors.Wrapf(err, "failed to read header of %s", path)
	}
	r.header = header
	return nil
}

func (r *DelimitedReader) Read() ([]Record, error) {
	var records []Record
	for {
		row, err := r.reader.Read()
		if err != nil {
			break
		}
		records = append(records, r.rowToRecord(row))
	}
	return records, nil
}

func (r *DelimitedReader) rowToRecord(row []string) Record {
	record := make(Record, len(r.header))
	for i, key := range r.header {
		if i >= len(row) || row[i] == "" {
			record[key] = nil
			continue
		}
		if f, err := strconv.ParseFloat(row[i], 64); err == nil {
			record[key] = f
		} else {
			record[key] = row[i]
		}
	}
	return record
}

func (r *DelimitedReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// DelimitedWriter writes delimited exports in column order.
type DelimitedWriter struct {
	file      *os.File
	writer    *csv.Writer
	header    []string
	delimiter rune
	row       []string
}

func (w *DelimitedWriter) Init(path string, columns []string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	w.file = file
	w.writer = csv.NewWriter(file)
	w.writer.Comma = w.delimiter
	w.header = columns
	w.row = make([]string, len(columns))

	if err := w.writer.Write(w.header); err != nil {
		w.file.Close()
		return errors.Wrap(err, "failed to write header")
	}
	return nil
}

func (w *DelimitedWriter) Write(record Record) error {
	for i, key := range w.header {
		w.row[i] = ""
		if v, ok := record[key].(float64); ok {
			w.row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return errors.Wrap(w.writer.Write(w.row), "failed to write row")
}

func (w *DelimitedWriter) Close() error {
	if w.writer != nil {
		w.writer.Flush()
		if err := w.writer.Error(); err != nil {
			w.file.Close()
			return err
		}
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
