package dataprocessing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writePopulationFixture builds a workbook shaped like the ONS mid-year
// estimates release: a contents sheet, then the persons sheet with title
// rows above the real header.
func writePopulationFixture(t *testing.T, sheetName string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Contents"))
	_, err := f.NewSheet(sheetName)
	require.NoError(t, err)

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheetName, cellRef, &row))
	}

	path := filepath.Join(t.TempDir(), "population_estimates.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestPopulationReader_ReadFile(t *testing.T) {
	path := writePopulationFixture(t, "MYE2 - Persons", [][]interface{}{
		{"Mid-2024 population estimates"},
		{},
		{"Code", "Name", "Geography", "All ages", "0", "1"},
		{"E92000001", "ENGLAND", "Country", "57,106,398", "1", "2"},
		{"E06000004", "Stockton-on-Tees", "Unitary Authority", "200,000", "1", "2"},
		{"E08000003", "Manchester", "Metropolitan District", "552,000", "1", "2"},
		{"W06000011", "Swansea", "Unitary Authority", "241,000", "1", "2"},
		{"S12000033", "Aberdeen City", "Council Area", "228,000", "1", "2"},
		{"N09000003", "Belfast", "District", "345,000", "1", "2"},
		{"E12000001", "NORTH EAST", "Region", "2,700,000", "1", "2"},
	})

	records, err := NewPopulationReader(nil).ReadFile(context.Background(), path)
	require.NoError(t, err)

	// Country and region codes filtered, only LA-level rows kept.
	require.Len(t, records, 5)

	byCode := make(map[string]int64)
	for _, rec := range records {
		byCode[rec.LACode] = rec.Population
	}
	assert.Equal(t, int64(200000), byCode["E06000004"])
	assert.Equal(t, int64(552000), byCode["E08000003"])
	assert.Equal(t, int64(241000), byCode["W06000011"])
	assert.Equal(t, int64(228000), byCode["S12000033"])
	assert.Equal(t, int64(345000), byCode["N09000003"])

	for _, rec := range records {
		if rec.LACode == "E06000004" {
			assert.Equal(t, "Stockton-on-Tees", rec.LAName)
		}
	}
}

func TestPopulationReader_ReadFile_SheetFallback(t *testing.T) {
	// No "MYE...Person" sheet; the population-ish name is picked instead.
	path := writePopulationFixture(t, "Population estimates", [][]interface{}{
		{"Area code", "Area name", "All ages"},
		{"E06000001", "Hartlepool", "92000"},
	})

	records, err := NewPopulationReader(nil).ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "E06000001", records[0].LACode)
	assert.Equal(t, int64(92000), records[0].Population)
}

func TestPopulationReader_ReadFile_SkipsBadRows(t *testing.T) {
	path := writePopulationFixture(t, "MYE2 - Persons", [][]interface{}{
		{"Code", "Name", "All ages"},
		{"E06000001", "Hartlepool", "92000"},
		{"E06000001", "Hartlepool again", "1"}, // duplicate code, first wins
		{"E06000002", "Middlesbrough", "not a number"},
		{"E06000003", "Redcar and Cleveland", "0"}, // non-positive skipped
	})

	records, err := NewPopulationReader(nil).ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(92000), records[0].Population)
}

func TestPopulationReader_ReadFile_NoTotalColumn(t *testing.T) {
	path := writePopulationFixture(t, "MYE2 - Persons", [][]interface{}{
		{"Code", "Name", "0", "1", "2"},
		{"E06000001", "Hartlepool", "1", "2", "3"},
	})

	_, err := NewPopulationReader(nil).ReadFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all ages total")
}

func TestPopulationReader_ReadFile_Missing(t *testing.T) {
	_, err := NewPopulationReader(nil).ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}
