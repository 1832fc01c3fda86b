// Package csvimport parses bulk placeholder rows from CSV files.
//
// The parser is deliberately self-contained: it produces validated rows
// and per-row errors, and leaves policy decisions (what to do with
// duplicates, which rows to act on) to the caller.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Halewood/shoebox/internal/model"
)

// Year bounds for validation. Outside this range a year is almost
// certainly a data-entry error, not a tax year.
const (
	MinYear = 1970
	MaxYear = 2100
)

// Row is one parsed CSV line. Invalid rows carry their errors and are
// reported, never silently dropped; they do not block other rows.
type Row struct {
	Name   string
	Status string
	Notes  string
	Amount *decimal.Decimal
	Errs   []string
	Line   int
	Year   int
	Valid  bool
}

// Draft converts a valid row to the draft used for placeholder creation.
func (r *Row) Draft() model.DraftMeta {
	status, _ := model.NewStatus(r.Status)
	return model.DraftMeta{
		Name:   r.Name,
		Year:   r.Year,
		Status: status,
		Amount: r.Amount,
		Notes:  r.Notes,
	}
}

// Parse reads all rows from a CSV document. The first line must be a
// header; columns are matched by name (name, year, status, amount,
// notes), case-insensitively and in any order. Unknown columns are
// ignored.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv file is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := mapColumns(header)
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("csv header has no %q column", "name")
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rows = append(rows, Row{
				Line:  line,
				Errs:  []string{err.Error()},
				Valid: false,
			})
			continue
		}
		rows = append(rows, parseRow(record, columns, line))
	}

	return rows, nil
}

// mapColumns resolves header names to field indexes.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

func parseRow(record []string, columns map[string]int, line int) Row {
	row := Row{Line: line}

	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row.Name = field("name")
	if row.Name == "" {
		row.Errs = append(row.Errs, "name is required")
	}

	yearText := field("year")
	if yearText == "" {
		row.Errs = append(row.Errs, "year is required")
	} else if year, err := strconv.Atoi(yearText); err != nil {
		row.Errs = append(row.Errs, fmt.Sprintf("year %q is not a number", yearText))
	} else if year < MinYear || year > MaxYear {
		row.Errs = append(row.Errs, fmt.Sprintf("year %d is out of range %d-%d", year, MinYear, MaxYear))
	} else {
		row.Year = year
	}

	row.Status = field("status")
	row.Notes = field("notes")

	if amountText := field("amount"); amountText != "" {
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			row.Errs = append(row.Errs, fmt.Sprintf("amount %q is not a decimal", amountText))
		} else {
			row.Amount = &amount
		}
	}

	row.Valid = len(row.Errs) == 0
	return row
}

// ValidRows filters to the rows that passed validation.
func ValidRows(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if row.Valid {
			out = append(out, row)
		}
	}
	return out
}
