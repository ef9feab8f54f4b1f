package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
)

// CSVWriter writes one audit file per subject and category under Dir:
// <dir>/<name>/<name>_<category>.csv, name being the normalized subject.
type CSVWriter struct {
	Dir string
}

// Path is where out is written for subject.
func (w CSVWriter) Path(subject string, out ingest.Output) string {
	name := ingest.NormalizeName(subject)
	return filepath.Join(w.Dir, name, fmt.Sprintf("%s_%s.csv", name, ingest.NormalizeName(out.Category)))
}

// Write writes out and returns the file path. Nothing is created for an
// empty output.
func (w CSVWriter) Write(subject string, out ingest.Output) (string, error) {
	if out.Empty() {
		return "", nil
	}
	path := w.Path(subject, out)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating csv dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header(out.Schema)); err != nil {
		return "", err
	}
	for _, rec := range out.Records {
		if err := cw.Write(Cells(out.Schema, rec)); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, f.Close()
}

// Header is the schema's label columns and field names. Schemas without
// label columns get Category and Label.
func Header(schema extract.Schema) []string {
	if len(schema.LabelColumns) == 0 {
		return append([]string{"Category", "Label"}, schema.Names()...)
	}
	return schema.CSVHeader()
}

// Cells renders rec under Header: a single label column holds the label,
// two hold category and label.
func Cells(schema extract.Schema, rec extract.Record) []string {
	var cells []string
	if len(schema.LabelColumns) == 1 {
		cells = []string{rec.Label}
	} else {
		cells = []string{rec.Category, rec.Label}
	}
	return append(cells, rec.Strings()...)
}
