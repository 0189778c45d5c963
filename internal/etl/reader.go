package etl

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data line keyed by the header of its file.
type Row map[string]string

// pick returns the first non-empty value among the given columns.
func (r Row) pick(columns ...string) string {
	for _, c := range columns {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

var ErrUnsupportedFormat = errors.New("unsupported premium file format")

// ReadFile parses a premium file by its extension.
func ReadFile(name string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

var csvDelimiters = []rune{';', ',', '\t'}

// ReadCSV reads a headed CSV file. The delimiter is the candidate that occurs most
// often in the header line.
func ReadCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	header, _, _ := bytes.Cut(data, []byte("\n"))
	delimiter := csvDelimiters[0]
	best := -1
	for _, d := range csvDelimiters {
		if n := bytes.Count(header, []byte(string(d))); n > best {
			delimiter, best = d, n
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return toRows(records), nil
}

// ReadXLSX reads the premium sheet of a workbook: the first sheet whose name looks
// like an export, otherwise the first sheet.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excelize.OpenReader: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	records, err := f.GetRows(premiumSheet(sheets), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("GetRows: %w", err)
	}
	return toRows(records), nil
}

func premiumSheet(sheets []string) string {
	for _, name := range sheets {
		lower := strings.ToLower(name)
		for _, hint := range []string{"export", "prämien", "praemien", "premium", "ch"} {
			if strings.Contains(lower, hint) {
				return name
			}
		}
	}
	return sheets[0]
}

// toRows keys every record after the first by the first record's cells. Empty lines
// are skipped and short lines leave the missing columns empty.
func toRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		empty := true
		for i, v := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
