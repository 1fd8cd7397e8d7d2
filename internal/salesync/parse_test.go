package salesync

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParsePayloadCSV(t *testing.T) {
	body := []byte("Product Name,Quantity,Net Sales\nRetinol Serum,2,90.00\n\nVitamin C,1,45.00\n")

	rows, err := ParsePayload(body, "text/csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Retinol Serum", rows[0]["Product Name"])
	assert.Equal(t, "45.00", rows[1]["Net Sales"])
}

func TestParsePayloadCSVRaggedRows(t *testing.T) {
	body := []byte("Product Name,Quantity,Net Sales\nRetinol Serum,2\n")

	rows, err := ParsePayload(body, "text/csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// Short record pads missing trailing columns with empty strings.
	assert.Equal(t, "", rows[0]["Net Sales"])
}

func TestParsePayloadJSONArray(t *testing.T) {
	body := []byte(`[{"Product Name":"Retinol Serum","Quantity":2,"Net Sales":90.5,"Notes":null}]`)

	rows, err := ParsePayload(body, "application/json")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0]["Quantity"])
	assert.Equal(t, "90.5", rows[0]["Net Sales"])
	assert.Equal(t, "", rows[0]["Notes"])
}

func TestParsePayloadJSONWrapped(t *testing.T) {
	body := []byte(`{"rows":[{"Product Name":"Vitamin C"}]}`)

	rows, err := ParsePayload(body, "application/json")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vitamin C", rows[0]["Product Name"])

	body = []byte(`{"data":[{"Product Name":"Vitamin C"}]}`)
	rows, err = ParsePayload(body, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestParsePayloadXLSXMatchesCSV(t *testing.T) {
	records := [][]string{
		{"Product Name", "Quantity", "Net Sales"},
		{"Retinol Serum", "2", "90.00"},
		{"Vitamin C", "1", "45.00"},
	}

	csvBody := []byte("Product Name,Quantity,Net Sales\nRetinol Serum,2,90.00\nVitamin C,1,45.00\n")
	csvRows, err := ParsePayload(csvBody, "text/csv")
	require.NoError(t, err)
	require.Len(t, csvRows, 2)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &record))
	}
	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))

	// No content type: the zip magic bytes alone must select the xlsx path.
	xlsxRows, err := ParsePayload(workbook.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, csvRows, xlsxRows)
}

func TestParsePayloadHTMLGuard(t *testing.T) {
	_, err := ParsePayload([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"), "text/csv")
	assert.ErrorIs(t, err, ErrHTMLResponse)

	_, err = ParsePayload([]byte("Product Name\nSerum\n"), "text/html; charset=utf-8")
	assert.ErrorIs(t, err, ErrHTMLResponse)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("text/html", nil))
	assert.True(t, IsHTML("", []byte("  <html><head></head></html>")))
	assert.False(t, IsHTML("text/csv", []byte("a,b\n1,2\n")))
}

func TestHeaders(t *testing.T) {
	rows := []Row{{"b": "2", "a": "1", "c": "3"}}
	assert.Equal(t, []string{"a", "b", "c"}, Headers(rows))
	assert.Nil(t, Headers(nil))
}
