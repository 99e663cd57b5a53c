package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Table is a CSV file loaded into memory with its header indexed by name.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Get returns the value of column col in row, or "" when the column is absent.
func (t *Table) Get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// WriteCSV writes header and rows to path, replacing any previous file.
// The data goes to a temporary file in the same directory first, so a failed
// write never leaves a truncated dataset behind.
func WriteCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("create output dir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	return nil
}

// ReadCSV loads path and checks that every required column is present.
// A missing column is a structural error wrapping types.ErrMissingColumn.
func ReadCSV(path string, required ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: fmt.Errorf("empty file")}
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: err}
	}

	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, col := range header {
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}
	for _, col := range required {
		if !t.Has(col) {
			return nil, fmt.Errorf("%s: %w: %s", path, types.ErrMissingColumn, col)
		}
	}

	t.Rows, err = r.ReadAll()
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: path, Err: err}
	}
	return t, nil
}
