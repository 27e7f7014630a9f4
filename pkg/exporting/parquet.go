package exporting

import (
	"io"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

const parquetBatchSize = 1000

func init() {
	Register(&ParquetFormat{})
}

// ParquetFormat exports one optional DOUBLE column per series.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }
func (f *ParquetFormat) Reader() RecordReader { return &ParquetReader{} }
func (f *ParquetFormat) Writer() RecordWriter { return &ParquetWriter{} }

// ParquetReader reads files written by ParquetWriter.
type ParquetReader struct {
	file  *os.File
	pfile *parquet.File
}

func (r *ParquetReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "failed to open parquet file %s", path)
	}
	r.file = file
	r.pfile = pf
	return nil
}

func (r *ParquetReader) Read() ([]Record, error) {
	if r.pfile == nil {
		return nil, errors.New("reader not initialized")
	}

	fields := r.pfile.Schema().Fields()
	records := make([]Record, 0, r.pfile.NumRows())
	buf := make([]parquet.Row, 100)

	for _, rg := range r.pfile.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				record := make(Record, len(fields))
				for _, v := range row {
					col := v.Column()
					if col < 0 || col >= len(fields) {
						continue
					}
					if v.IsNull() {
						record[fields[col].Name()] = nil
						continue
					}
					record[fields[col].Name()] = v.Double()
				}
				records = append(records, record)
			}
			if err != nil {
				rows.Close()
				if err != io.EOF {
					return nil, errors.Wrap(err, "failed to read rows")
				}
				break
			}
			if n == 0 {
				rows.Close()
				break
			}
		}
	}
	return records, nil
}

func (r *ParquetReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParquetWriter writes records with the Row API, Snappy compressed.
type ParquetWriter struct {
	path    string
	file    *os.File
	writer  *parquet.Writer
	columns []string
	buffer  []parquet.Row
}

func (w *ParquetWriter) Init(path string, columns []string) error {
	// Group fields are ordered by name, so row values follow the same order.
	w.columns = append([]string(nil), columns...)
	sort.Strings(w.columns)

	group := make(parquet.Group, len(w.columns))
	for _, name := range w.columns {
		group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	schema := parquet.NewSchema("sample", group)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	w.path = path
	w.file = file
	w.writer = parquet.NewWriter(file, schema, parquet.Compression(&parquet.Snappy))
	w.buffer = make([]parquet.Row, 0, parquetBatchSize)
	return nil
}

func (w *ParquetWriter) Write(record Record) error {
	row := make(parquet.Row, len(w.columns))
	for i, name := range w.columns {
		v, ok := record[name].(float64)
		if !ok {
			row[i] = parquet.NullValue().Level(0, 0, i)
			continue
		}
		row[i] = parquet.DoubleValue(v).Level(0, 1, i)
	}
	w.buffer = append(w.buffer, row)

	if len(w.buffer) >= parquetBatchSize {
		return w.flushBuffer()
	}
	return nil
}

func (w *ParquetWriter) flushBuffer() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if _, err := w.writer.WriteRows(w.buffer); err != nil {
		return errors.Wrap(err, "failed to write parquet rows")
	}
	w.buffer = w.buffer[:0]
	return nil
}

func (w *ParquetWriter) Close() error {
	if w.writer == nil {
		return nil
	}
	if err := w.flushBuffer(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return errors.Wrap(err, "failed to close parquet writer")
	}
	w.writer = nil
	return w.file.Close()
}
