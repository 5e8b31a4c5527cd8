package ui

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/labbookdb/labbookdb/internal/orm/query"
)

// OutputFormat selects how query results are written
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatCSV   OutputFormat = "csv"
	FormatJSON  OutputFormat = "json"
)

// ParseFormat validates an output format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(name); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, csv or json)", name)
	}
}

// RenderResult writes a query result in the given format
func RenderResult(w io.Writer, t *query.Table, format OutputFormat, noColor bool) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
		for _, row := range t.Rows {
			if err := cw.Write(cells(row)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatJSON:
		records := t.Records()
		for _, rec := range records {
			for k, v := range rec {
				if ts, ok := v.(time.Time); ok {
					rec[k] = FormatValue(ts)
				}
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)

	default:
		table := NewTable(w, t.Columns, &TableOptions{NoColor: noColor})
		for _, row := range t.Rows {
			table.AddValues(row...)
		}
		table.Render()
		return nil
	}
}

// FormatValue renders one result value. NULL renders empty; the table
// format shows NullMarker instead.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func cells(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = FormatValue(v)
	}
	return out
}
