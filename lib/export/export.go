package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"ird-scraper/lib/scrapers/ird/core"

	"github.com/xuri/excelize/v2"
)

// Columns returns the header of a table built from rows. the `lead` columns
// that appear in any row come first in the order given, every other column
// follows sorted by name.
func Columns(rows []core.Record, lead ...string) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for _, name := range lead {
		if _, ok := seen[name]; !ok {
			continue
		}
		columns = append(columns, name)
		delete(seen, name)
	}

	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}
	slices.Sort(rest)
	return append(columns, rest...)
}

// CellValue converts a decoded JSON value into something a spreadsheet cell
// or a table can hold.
func CellValue(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return v.String()
		}
		return f
	case string, bool, float64, int, int64:
		return v
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		err := enc.Encode(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}

func WriteXLSX(path, sheet string, rows []core.Record, lead ...string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		err = f.DeleteSheet("Sheet1")
		if err != nil {
			return err
		}
	}

	columns := Columns(rows, lead...)
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		err = f.SetCellValue(sheet, cell, name)
		if err != nil {
			return err
		}
	}

	for r, row := range rows {
		for i, name := range columns {
			value, ok := row[name]
			if !ok || value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			err = f.SetCellValue(sheet, cell, CellValue(value))
			if err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	return f.SaveAs(path)
}

func WriteJSON(w io.Writer, v any) error {
	encoded, err := core.Encode(v)
	if err != nil {
		return err
	}
	_, err = w.Write(encoded)
	return err
}
