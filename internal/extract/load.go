package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extract is a parsed daily extract file.
type Extract struct {
	// ReportDate is the raw, day-first date field. May be empty.
	ReportDate string `yaml:"report_date"`

	// Records holds the rows in file order.
	Records []RawRecord `yaml:"items"`
}

// csvColumns are the recognized CSV header names.
var csvColumns = []string{
	"key", "org_unit", "technician", "display_name",
	"address", "serial_number", "port", "report_date",
}

// Load reads an extract file, choosing the format by extension.
func Load(path string) (*Extract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extract: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		return ParseDocument(data)
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported extract format %q", ext)
	}
}

// ParseDocument parses a YAML or JSON extract document.
// Unknown fields are rejected so column typos surface immediately.
func ParseDocument(data []byte) (*Extract, error) {
	var ex Extract
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ex); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("extract is empty")
		}
		return nil, fmt.Errorf("failed to parse extract: %w", err)
	}
	if ex.Records == nil {
		ex.Records = []RawRecord{}
	}
	return &ex, nil
}

// ParseCSV parses a CSV extract with a header row. The key column is
// required; unknown columns are ignored. The first non-empty report_date
// cell, if the column exists, becomes the extract date.
func ParseCSV(r io.Reader) (*Extract, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("extract is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read extract header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for _, known := range csvColumns {
			if name == known {
				index[name] = i
			}
		}
	}
	if _, ok := index["key"]; !ok {
		return nil, fmt.Errorf("extract header has no key column")
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	ex := &Extract{Records: []RawRecord{}}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read extract line %d: %w", line, err)
		}

		if ex.ReportDate == "" {
			ex.ReportDate = strings.TrimSpace(cell(row, "report_date"))
		}
		ex.Records = append(ex.Records, RawRecord{
			Key:          cell(row, "key"),
			OrgUnit:      cell(row, "org_unit"),
			Technician:   cell(row, "technician"),
			DisplayName:  cell(row, "display_name"),
			Address:      cell(row, "address"),
			SerialNumber: cell(row, "serial_number"),
			Port:         cell(row, "port"),
		})
	}
	return ex, nil
}
