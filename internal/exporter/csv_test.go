package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDocument() Document {
	return Document{
		Title:   "Top Crops in Punjab",
		Headers: []string{"Crop", "Total Production (Th. Tonnes)"},
		Rows: [][]string{
			{"Wheat", "31000.00"},
			{"Rice", "22800.00"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDocument(), WriteOptions{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Crop,Total Production (Th. Tonnes)", lines[0])
	assert.Equal(t, "Wheat,31000.00", lines[1])
}

func TestWriteCSVWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDocument(), WriteOptions{BOMPrefix: true}))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "crops.csv")
	require.NoError(t, WriteCSVFile(path, sampleDocument(), WriteOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Wheat,31000.00")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleDocument()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	assert.Equal(t, "Top Crops in Punjab", sheet)

	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Crop", header)

	value, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "31000.00", value)
}

func TestSanitizeSheetName(t *testing.T) {
	long := strings.Repeat("x", 40)
	assert.Len(t, sanitizeSheetName(long), 31)
	assert.Equal(t, "short", sanitizeSheetName("short"))
}
