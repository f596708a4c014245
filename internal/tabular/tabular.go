// Package tabular reads the column layout of tabular report files.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// DefaultSampleRows bounds how many data rows are read to infer column kinds
const DefaultSampleRows = 1000

var (
	ErrEmptyFile       = errors.New("file has no header row")
	ErrDuplicateColumn = errors.New("duplicate column name")
)

type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Schema is the ordered column list of a table
type Schema struct {
	Columns []Column `json:"columns"`
	index   map[string]int
}

// Column looks a column up by name
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// Names returns the column names in file order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ReadCSV reads the header and up to sampleRows data rows of a CSV file.
// A column is numeric when every non-empty sampled value parses as a number
// and at least one value is present.
func ReadCSV(r io.Reader, sampleRows int) (*Schema, error) {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	schema := &Schema{
		Columns: make([]Column, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, ok := schema.index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		schema.index[name] = i
		schema.Columns[i] = Column{Name: name}
	}

	numeric := make([]bool, len(header))
	seen := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
	}

	for row := 0; row < sampleRows; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row+2, err)
		}

		for i := 0; i < len(header) && i < len(record); i++ {
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			seen[i] = true
			if numeric[i] {
				if _, err := strconv.ParseFloat(value, 64); err != nil {
					numeric[i] = false
				}
			}
		}
	}

	for i := range schema.Columns {
		if numeric[i] && seen[i] {
			schema.Columns[i].Kind = KindNumeric
		} else {
			schema.Columns[i].Kind = KindCategorical
		}
	}
	return schema, nil
}
