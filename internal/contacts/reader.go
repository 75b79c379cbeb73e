package contacts

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMissingEmailColumn means no header resolves to an email column.
	// Fatal for the whole batch: without addresses nothing can be sent.
	ErrMissingEmailColumn = errors.New("contact file has no email column")

	// ErrEmptySource means the file has no data rows at all.
	ErrEmptySource = errors.New("contact file has no data rows")
)

// columns holds resolved header positions. -1 means the column is absent.
type columns struct {
	email  int
	name   int
	status int
}

// normalizeHeader strips case, hyphens, underscores and spaces so that
// "E-mail", "e_mail" and "Email" all resolve to the same column.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(h)
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{email: -1, name: -1, status: -1}
	for i, h := range header {
		normed := normalizeHeader(h)
		if strings.Contains(normed, "mail") && cols.email == -1 {
			cols.email = i
		}
		if (normed == "nome" || normed == "name") && cols.name == -1 {
			cols.name = i
		}
		if normed == "status" && cols.status == -1 {
			cols.status = i
		}
	}
	if cols.email == -1 {
		return cols, ErrMissingEmailColumn
	}
	return cols, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Read parses raw CSV bytes into the ordered set of eligible contact
// records, collecting at most limit of them. The early exit once the cap
// is reached is an optimization; rows past the cap are simply never read.
// Ineligible rows (already contacted, or with an empty address) are
// dropped silently — they never enter the pipeline.
func Read(data []byte, limit int) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
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

	if limit < 0 {
		limit = 0
	}

	var records []Record
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

		status := field(row, cols.status)
		if status == "" {
			status = StatusPending
		}
		rec := Record{
			Row:    rowIdx,
			Name:   field(row, cols.name),
			Email:  field(row, cols.email),
			Status: status,
		}
		if !rec.Eligible() {
			continue
		}
		if len(records) < limit {
			records = append(records, rec)
		}
		if len(records) >= limit {
			break
		}
	}

	if rowIdx < 0 {
		return nil, ErrEmptySource
	}
	return records, nil
}
