package source

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, sheet string, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestXLSXSourceReadsProductsSheet(t *testing.T) {
	reader := workbookBytes(t, "Products", [][]interface{}{
		{"psku *", "pname *", "pprice"},
		{"TSH-001", "Blue Tee", "29.99"},
		{"TSH-002", "Red Tee", ""},
	})

	src := NewXLSXSource(reader)
	headings, rows, images, err := src.Open()
	require.NoError(t, err)

	assert.Equal(t, []string{"psku", "pname", "pprice"}, headings, "required markers are stripped")
	require.Len(t, rows, 2)
	assert.Equal(t, "TSH-001", rows[0].Cells[0])
	assert.Empty(t, images)
	assert.NoError(t, src.Close())
}

func TestXLSXSourceFallsBackToFirstSheet(t *testing.T) {
	reader := workbookBytes(t, "Anything", [][]interface{}{
		{"psku", "pname"},
		{"TSH-001", "Blue Tee"},
	})

	src := NewXLSXSource(reader)
	headings, rows, _, err := src.Open()
	require.NoError(t, err)

	assert.Equal(t, []string{"psku", "pname"}, headings)
	require.Len(t, rows, 1)
}

func TestXLSXSourceRejectsGarbage(t *testing.T) {
	src := NewXLSXSource(bytes.NewReader([]byte("this is not a workbook")))

	_, _, _, err := src.Open()
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}
