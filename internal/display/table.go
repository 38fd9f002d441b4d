package display

import (
	"strings"
	"unicode/utf8"
)

// Table renders an aligned text table. Widths are measured in runes so
// Arabic names line up with Latin ones.
type Table struct {
	headers []string
	rows    [][]string
	styles  []func(string) string
}

// NewTable creates a new table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row of values.
func (t *Table) AddRow(values []string) {
	t.AddStyledRow(values, nil)
}

// AddStyledRow appends a row rendered through style, e.g. Accent.
func (t *Table) AddStyledRow(values []string, style func(string) string) {
	t.rows = append(t.rows, values)
	t.styles = append(t.styles, style)
}

// Render produces the formatted table with a two-space indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + Bold(formatRow(t.headers, widths)) + "\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim("  "+strings.Join(sep, "  ")) + "\n")

	for i, row := range t.rows {
		line := formatRow(row, widths)
		if style := t.styles[i]; style != nil {
			line = style(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// formatRow pads each cell to its column width and trims trailing space.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
