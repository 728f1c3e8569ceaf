package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"ird-scraper/lib/scrapers/ird/core"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testRows = []core.Record{
	{"Level 1": json.Number("1"), "RowNumber": json.Number("1"), "Amount": json.Number("1500.75"), "Remarks": nil},
	{"Level 1": json.Number("2"), "RowNumber": json.Number("2"), "Amount": json.Number("200"), "Remarks": "rent & utilities"},
}

func TestColumns(t *testing.T) {
	require.Equal(t,
		[]string{"Level 1", "Amount", "Remarks", "RowNumber"},
		Columns(testRows, "Level 1"),
	)
	require.Equal(t,
		[]string{"RowNumber", "Amount", "Level 1", "Remarks"},
		Columns(testRows, "RowNumber", "Missing"),
	)
	require.Empty(t, Columns(nil, "Level 1"))
}

func TestCellValue(t *testing.T) {
	require.Equal(t, 1500.75, CellValue(json.Number("1500.75")))
	require.Equal(t, "", CellValue(nil))
	require.Equal(t, "A", CellValue("A"))
	require.Equal(t, true, CellValue(true))
	require.Equal(t, `{"vat":"Y"}`, CellValue(map[string]any{"vat": "Y"}))
	require.Equal(t, `[1,2]`, CellValue([]any{json.Number("1"), json.Number("2")}))
	require.Equal(t, `{"trade_Name_Eng":"BHAT & SONS <PVT>"}`, CellValue(map[string]any{"trade_Name_Eng": "BHAT & SONS <PVT>"}))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tds.xlsx")

	err := WriteXLSX(path, "TDS", testRows, "Level 1")
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"TDS"}, f.GetSheetList())

	rows, err := f.GetRows("TDS")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Level 1", "Amount", "Remarks", "RowNumber"},
		{"1", "1500.75", "", "1"},
		{"2", "200", "rent & utilities", "2"},
	}, rows)
}

func TestWriteXLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	err := WriteXLSX(path, "", nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, testRows[1:])
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"rent & utilities"`)
	require.JSONEq(t, `[{"Level 1":2,"RowNumber":2,"Amount":200,"Remarks":"rent & utilities"}]`, buf.String())
}
