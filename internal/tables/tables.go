// Package tables renders CLI output with go-pretty.
package tables

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format selects how a table is rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, csv and markdown. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: text, csv, markdown)", s)
	}
}

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table is a titled grid of string cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Aligns  []Alignment
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render draws the table in format f.
func (t Table) Render(f Format) string {
	columns := len(t.Headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if t.Title != "" && f == FormatText {
		tw.SetTitle(t.Title)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = t.Headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(t.Aligns) && t.Aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	switch f {
	case FormatCSV:
		return tw.RenderCSV()
	case FormatMarkdown:
		return tw.RenderMarkdown()
	default:
		return tw.Render()
	}
}

// Percent formats a [0,1] ratio.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// Score formats a match score.
func Score(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
