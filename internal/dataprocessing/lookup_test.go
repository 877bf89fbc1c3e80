package dataprocessing

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeProvidersFixture builds a minimal CQC providers register workbook.
func writeProvidersFixture(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}

	path := filepath.Join(t.TempDir(), "GP providers.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestProvidersLoader_Load(t *testing.T) {
	path := writeProvidersFixture(t, [][]interface{}{
		{"Location ODS Code", "Location Name", "Location Local Authority", "Dormant (Y/N)"},
		{"A81001", "The Densham Surgery", "Stockton-on-Tees", "N"},
		{"A81002", "Queens Park Medical Centre", "Stockton-on-Tees", "N"},
		{"A81003", "Dormant Practice", "Hartlepool", "Y"},
		{"", "No Code Practice", "Hartlepool", "N"},
		{"A81001", "Duplicate Entry", "Middlesbrough", "N"},
	})

	table, err := NewProvidersLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, table, 2)

	// Dormant and code-less rows skipped; duplicates keep the first entry.
	assert.Equal(t, "Stockton-on-Tees", table["A81001"].LAName)
	assert.Equal(t, "Stockton-on-Tees", table["A81002"].LAName)
	assert.Empty(t, table["A81001"].LACode)
	_, dormant := table["A81003"]
	assert.False(t, dormant)
}

func TestProvidersLoader_Load_HeaderNotOnFirstRow(t *testing.T) {
	path := writeProvidersFixture(t, [][]interface{}{
		{"CQC GP providers extract"},
		{},
		{"Location ODS Code", "Location Local Authority"},
		{"B12345", "Leeds"},
	})

	table, err := NewProvidersLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Leeds", table["B12345"].LAName)
}

func TestProvidersLoader_Load_MissingColumns(t *testing.T) {
	path := writeProvidersFixture(t, [][]interface{}{
		{"Some Column", "Another Column"},
		{"x", "y"},
	})

	_, err := NewProvidersLoader(nil).Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Location ODS Code")
}

func TestProvidersLoader_Load_MissingFile(t *testing.T) {
	_, err := NewProvidersLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}

func TestPostcodeLoader_Load(t *testing.T) {
	csv := strings.Join([]string{
		"pcds,ladcd,ladnm",
		"TS18 1HU,E06000004,Stockton-on-Tees",
		"ts18 2aw,E06000004,Stockton-on-Tees",
		"TS26 8DB,E06000001,Hartlepool",
		"TS18 1HU,E08000003,Manchester", // duplicate postcode, first wins
	}, "\n")

	table, err := NewPostcodeLoader(nil).read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, table, 3)

	entry := table["TS181HU"]
	assert.Equal(t, "E06000004", entry.LACode)
	assert.Equal(t, "Stockton-on-Tees", entry.LAName)

	// Postcodes are normalized on load.
	assert.Equal(t, "E06000004", table["TS182AW"].LACode)
}

func TestPostcodeLoader_Load_MissingColumn(t *testing.T) {
	csv := "pcds,something\nTS18 1HU,x\n"

	_, err := NewPostcodeLoader(nil).read(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LA code")
}

func TestNormalizePostcode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m1 1ae", "M11AE"},
		{"M1 1AE", "M11AE"},
		{"M11AE", "M11AE"},
		{"  sw1a 2aa ", "SW1A2AA"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePostcode(tt.in))
	}
}
