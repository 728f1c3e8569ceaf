package commands

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"ird-scraper/lib/export"
	"ird-scraper/lib/scrapers/ird/core"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// renderRows prints rows as JSON, writes them to an xlsx file or prints
// them as a table.
func renderRows(rows []core.Record, xlsxPath, sheet string, lead ...string) error {
	if xlsxPath != "" {
		err := export.WriteXLSX(xlsxPath, sheet, rows, lead...)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(rows), xlsxPath)
		return nil
	}
	if *jsonOutput {
		return export.WriteJSON(os.Stdout, rows)
	}

	columns := export.Columns(rows, lead...)
	header := make(table.Row, len(columns))
	for i, name := range columns {
		header[i] = name
	}

	t := newTable()
	t.AppendHeader(header)
	for _, row := range rows {
		line := make(table.Row, len(columns))
		for i, name := range columns {
			line[i] = export.CellValue(row[name])
		}
		t.AppendRow(line)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(rows))})
	t.Render()
	return nil
}

// recordRows turns a nested record into key/value rows, lists of objects
// are expanded so every field gets its own row.
func recordRows(rec core.Record) []table.Row {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var rows []table.Row
	for _, key := range keys {
		switch v := rec[key].(type) {
		case map[string]any:
			for _, row := range recordRows(v) {
				rows = append(rows, table.Row{key + "." + row[0].(string), row[1]})
			}
		case []any:
			for i, item := range v {
				prefix := key
				if len(v) > 1 {
					prefix += "[" + strconv.Itoa(i) + "]"
				}
				obj, ok := item.(map[string]any)
				if !ok {
					rows = append(rows, table.Row{prefix, export.CellValue(item)})
					continue
				}
				for _, row := range recordRows(obj) {
					rows = append(rows, table.Row{prefix + "." + row[0].(string), row[1]})
				}
			}
		default:
			rows = append(rows, table.Row{key, export.CellValue(v)})
		}
	}
	return rows
}

func renderRecord(rec core.Record) error {
	if *jsonOutput {
		return export.WriteJSON(os.Stdout, rec)
	}
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows(recordRows(rec))
	t.Render()
	return nil
}
