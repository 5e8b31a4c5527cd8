package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// NullMarker stands in for NULL values in terminal output
const NullMarker = "NULL"

// cell is one formatted value. Numbers align right, NULLs are dimmed.
type cell struct {
	text    string
	null    bool
	numeric bool
}

func newCell(v interface{}) cell {
	switch v.(type) {
	case nil:
		return cell{text: NullMarker, null: true}
	case int, int32, int64, float32, float64:
		return cell{text: FormatValue(v), numeric: true}
	default:
		return cell{text: FormatValue(v)}
	}
}

func (c cell) width() int {
	return utf8.RuneCountInString(c.text)
}

// styles groups the colors shared by every renderer in this file
type styles struct {
	title  *color.Color
	key    *color.Color
	faint  *color.Color
	header *color.Color
}

func newStyles(noColor bool) styles {
	s := styles{
		title:  color.New(color.Bold, color.FgCyan),
		key:    color.New(color.FgCyan),
		faint:  color.New(color.FgHiBlack),
		header: color.New(color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{s.title, s.key, s.faint, s.header} {
			c.DisableColor()
		}
	}
	return s
}

// Table renders result rows in aligned columns
type Table struct {
	writer  io.Writer
	columns []string
	rows    [][]cell
	styles  styles
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// NewTable creates a table with one column per label
func NewTable(w io.Writer, columns []string, opts *TableOptions) *Table {
	noColor := false
	if opts != nil {
		noColor = opts.NoColor
	}
	return &Table{writer: w, columns: columns, styles: newStyles(noColor)}
}

// AddRow adds a row of text cells. Empty text is kept as is.
func (t *Table) AddRow(cells ...string) {
	row := make([]cell, len(cells))
	for i, c := range cells {
		row[i] = cell{text: c}
	}
	t.rows = append(t.rows, row)
}

// AddValues adds a row of result values, rendering nil as NullMarker
func (t *Table) AddValues(values ...interface{}) {
	row := make([]cell, len(values))
	for i, v := range values {
		row[i] = newCell(v)
	}
	t.rows = append(t.rows, row)
}

// Render writes the header, a rule and every row. Cells beyond the last
// column are dropped; trailing padding is not written.
func (t *Table) Render() {
	if len(t.columns) == 0 {
		return
	}

	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) && c.width() > widths[i] {
				widths[i] = c.width()
			}
		}
	}

	header := make([]cell, len(t.columns))
	rule := make([]cell, len(t.columns))
	for i, c := range t.columns {
		header[i] = cell{text: c}
		rule[i] = cell{text: strings.Repeat("─", widths[i])}
	}
	t.line(header, widths, t.styles.header)
	t.line(rule, widths, t.styles.faint)
	for _, row := range t.rows {
		t.line(row, widths, nil)
	}
}

func (t *Table) line(row []cell, widths []int, style *color.Color) {
	n := len(row)
	if n > len(widths) {
		n = len(widths)
	}
	for i := 0; i < n; i++ {
		c := row[i]
		pad := strings.Repeat(" ", widths[i]-c.width())
		text := c.text
		switch {
		case c.numeric:
			text = pad + text
		case i < n-1:
			text += pad
		}

		switch {
		case style != nil:
			style.Fprint(t.writer, text)
		case c.null:
			t.styles.faint.Fprint(t.writer, text)
		default:
			fmt.Fprint(t.writer, text)
		}
		if i < n-1 {
			fmt.Fprint(t.writer, "  ")
		}
	}
	fmt.Fprintln(t.writer)
}

// FieldList renders the named fields of one record, one per line
type FieldList struct {
	writer io.Writer
	names  []string
	values []cell
	styles styles
}

// NewFieldList creates an empty field list
func NewFieldList(w io.Writer, noColor bool) *FieldList {
	return &FieldList{writer: w, styles: newStyles(noColor)}
}

// Add appends a field. Strings print verbatim, nil prints as NullMarker.
func (l *FieldList) Add(name string, value interface{}) {
	l.names = append(l.names, name)
	l.values = append(l.values, newCell(value))
}

// Render writes "name: value" lines with the values aligned
func (l *FieldList) Render() {
	width := 0
	for _, n := range l.names {
		if w := utf8.RuneCountInString(n) + 1; w > width {
			width = w
		}
	}
	for i, n := range l.names {
		label := n + ":"
		l.styles.key.Fprint(l.writer, label+strings.Repeat(" ", width-utf8.RuneCountInString(label)))
		fmt.Fprint(l.writer, " ")
		if l.values[i].null {
			l.styles.faint.Fprintln(l.writer, l.values[i].text)
			continue
		}
		fmt.Fprintln(l.writer, l.values[i].text)
	}
}

// Header writes a title underlined to its own width
func Header(w io.Writer, title string, noColor bool) {
	s := newStyles(noColor)
	s.title.Fprintln(w, title)
	s.faint.Fprintln(w, strings.Repeat("─", utf8.RuneCountInString(title)))
}

// List writes a title followed by indented items and a blank line
func List(w io.Writer, title string, items []string, noColor bool) {
	newStyles(noColor).title.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
	fmt.Fprintln(w)
}
