package exporting

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Record is one exported sample keyed by column name. Missing values are nil.
type Record = map[string]interface{}

// Format is an export format for collected series.
type Format interface {
	Name() string
	Extensions() []string
	Reader() RecordReader
	Writer() RecordWriter
}

// RecordReader reads back an exported file. Readers exist to verify that an
// export round-trips; the commands only write.
type RecordReader interface {
	Open(path string) error
	Read() ([]Record, error)
	Close() error
}

// RecordWriter writes records with a fixed column set.
type RecordWriter interface {
	Init(path string, columns []string) error
	Write(record Record) error
	Close() error
}

var (
	registry    = make(map[string]Format)
	extRegistry = make(map[string]Format)
)

// Register adds a format to the registry.
func Register(f Format) {
	registry[strings.ToLower(f.Name())] = f
	for _, ext := range f.Extensions() {
		extRegistry[strings.ToLower(ext)] = f
	}
}

// Get returns a format by name.
func Get(name string) (Format, bool) {
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// GetByPath returns a format based on the file's extension.
func GetByPath(path string) (Format, bool) {
	f, ok := extRegistry[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Names returns the registered format names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportPath derives the export file name from the data file path.
func ExportPath(dataPath string, f Format) string {
	ext := filepath.Ext(dataPath)
	return strings.TrimSuffix(dataPath, ext) + f.Extensions()[0]
}

// LoadRecords reads an exported file, picking the format by extension. It is
// used to check exports, not by the collection path.
func LoadRecords(path string) ([]Record, error) {
	f, ok := GetByPath(path)
	if !ok {
		return nil, errors.Errorf("unsupported format for file: %s", path)
	}

	reader := f.Reader()
	if err := reader.Open(path); err != nil {
		return nil, err
	}
	defer reader.Close()

	records, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read records from %s", path)
	}
	return records, nil
}
