package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChartType string

const (
	ChartBar     ChartType = "Bar"
	ChartLine    ChartType = "Line"
	ChartPie     ChartType = "Pie"
	ChartScatter ChartType = "Scatter"
	ChartArea    ChartType = "Area"
	ChartTable   ChartType = "Table"
)

var ErrInvalidChartType = errors.New("invalid chart type")

func ParseChartType(s string) (ChartType, error) {
	for _, c := range []ChartType{ChartBar, ChartLine, ChartPie, ChartScatter, ChartArea, ChartTable} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChartType, s)
}

// UsesAxes reports whether the chart is drawn from x/y columns
func (c ChartType) UsesAxes() bool {
	switch c {
	case ChartBar, ChartLine, ChartScatter, ChartArea:
		return true
	default:
		return false
	}
}

type Visualization struct {
	ID          string                                  `gorm:"type:varchar(36);primaryKey" json:"id"`
	DashboardID string                                  `gorm:"type:varchar(36);not null;index" json:"dashboard_id"`
	Title       string                                  `gorm:"type:varchar(255);not null" json:"title"`
	Type        ChartType                               `gorm:"type:varchar(20);not null" json:"type"`
	Config      datatypes.JSONType[VisualizationConfig] `gorm:"not null" json:"config"`
	Position    int                                     `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time                               `json:"created_at"`
	UpdatedAt   time.Time                               `json:"updated_at"`
}

func (v *Visualization) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = newID()
	}
	return nil
}

// ReportID returns the source report referenced by the configuration
func (v *Visualization) ReportID() string {
	return v.Config.Data().ReportID
}

// VisualizationConfig describes how a chart maps report columns
type VisualizationConfig struct {
	ReportID string            `json:"report_id"`
	X        string            `json:"x,omitempty"`
	Y        string            `json:"y,omitempty"`
	Color    string            `json:"color,omitempty"`
	Names    string            `json:"names,omitempty"`
	Values   string            `json:"values,omitempty"`
	Columns  []string          `json:"columns,omitempty"`
	Filters  map[string]Filter `json:"filters"`
}

var ErrInvalidVisualizationConfig = errors.New("invalid visualization config")

// Validate checks the mappings required by the chart kind
func (c VisualizationConfig) Validate(kind ChartType) error {
	if strings.TrimSpace(c.ReportID) == "" {
		return fmt.Errorf("%w: report_id is required", ErrInvalidVisualizationConfig)
	}

	switch {
	case kind.UsesAxes():
		if c.X == "" || c.Y == "" {
			return fmt.Errorf("%w: %s chart needs x and y", ErrInvalidVisualizationConfig, kind)
		}
	case kind == ChartPie:
		if c.Names == "" || c.Values == "" {
			return fmt.Errorf("%w: Pie chart needs names and values", ErrInvalidVisualizationConfig)
		}
	case kind == ChartTable:
		if len(c.Columns) == 0 {
			return fmt.Errorf("%w: Table needs at least one column", ErrInvalidVisualizationConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidChartType, kind)
	}

	for col, f := range c.Filters {
		if col == "" {
			return fmt.Errorf("%w: filter column is empty", ErrInvalidVisualizationConfig)
		}
		if f.Range != nil && f.Range[0] > f.Range[1] {
			return fmt.Errorf("%w: filter %q has min greater than max", ErrInvalidVisualizationConfig, col)
		}
	}
	return nil
}

// ReferencedColumns lists every column the configuration reads, without duplicates
func (c VisualizationConfig) ReferencedColumns() []string {
	seen := make(map[string]struct{})
	var cols []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}

	for _, name := range []string{c.X, c.Y, c.Color, c.Names, c.Values} {
		add(name)
	}
	for _, name := range c.Columns {
		add(name)
	}
	for name := range c.Filters {
		add(name)
	}
	return cols
}

// Filter is either a numeric [min, max] range or a list of allowed categorical values.
// On the wire it is a bare JSON array.
type Filter struct {
	Range  *[2]float64
	Values []string
}

func (f Filter) IsRange() bool {
	return f.Range != nil
}

func (f Filter) MarshalJSON() ([]byte, error) {
	if f.Range != nil {
		return json.Marshal(f.Range[:])
	}
	if f.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Values)
}

// UnmarshalJSON treats an array of exactly two numbers as a range and anything
// else as categorical values.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: filter must be an array", ErrInvalidVisualizationConfig)
	}

	if len(raw) == 2 {
		var lo, hi float64
		if json.Unmarshal(raw[0], &lo) == nil && json.Unmarshal(raw[1], &hi) == nil {
			f.Range = &[2]float64{lo, hi}
			f.Values = nil
			return nil
		}
	}

	values := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			values = append(values, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(bytes.TrimSpace(item), &n); err == nil {
			values = append(values, strconv.FormatFloat(n, 'f', -1, 64))
			continue
		}
		return fmt.Errorf("%w: filter values must be strings or numbers", ErrInvalidVisualizationConfig)
	}
	f.Range = nil
	f.Values = values
	return nil
}
