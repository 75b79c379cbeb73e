package contacts

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ApplyStatuses rewrites the status column of the source file for the
// given data rows (zero-based) and returns the updated CSV bytes. A
// status column is appended when the source has none. The send loop
// never calls this; it exists so the caller can hand the operator an
// updated sheet after a batch.
func ApplyStatuses(src []byte, statuses map[int]string) ([]byte, error) {
	r := csv.NewReader(bytes.NewReader(src))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}
	statusIdx := cols.status
	if statusIdx == -1 {
		header = append(header, "Status")
		statusIdx = len(header) - 1
	}

	rows := [][]string{header}
	rowIdx := -1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", rowIdx+2, err)
		}
		rowIdx++

		for len(row) <= statusIdx {
			row = append(row, "")
		}
		if status, ok := statuses[rowIdx]; ok {
			row[statusIdx] = status
		} else if row[statusIdx] == "" {
			row[statusIdx] = StatusPending
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("writing updated sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// StarterCSV returns a template contact sheet with one example row for
// the operator to replace. The example address is intentionally one the
// validator rejects.
func StarterCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll([][]string{
		{"Nome", "E-mail", "Empresa", "Status"},
		{"Exemplo Nome", placeholderAddress, "(opcional)", StatusPending},
	})
	return buf.Bytes()
}

// WriteStarterFile creates a starter sheet at path when no contact file
// exists there, returning an error that tells the operator to fill it in.
func WriteStarterFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, StarterCSV(), 0o644); err != nil {
		return err
	}
	return fmt.Errorf("contact file not found: a starter sheet was created at %s; fill it in and run again", path)
}
