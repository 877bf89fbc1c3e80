package dataprocessing

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workforceCSV = `PRAC_CODE,PRAC_NAME,PRAC_POSTCODE,TOTAL_GP_HC,TOTAL_GP_FTE
A81001,The Densham Surgery,TS18 1HU,5,3.5
A81002,Queens Park Medical Centre,TS18 2AW,10,"8.2"
A81003,Victoria Medical Practice,TS26 8DB,3,2.0
`

func TestWorkforceReader_Read(t *testing.T) {
	reader := NewWorkforceReader(nil)

	records, err := reader.Read(context.Background(), strings.NewReader(workforceCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "A81001", records[0].PracticeCode)
	assert.Equal(t, "TS181HU", records[0].Postcode)
	assert.Equal(t, 5.0, records[0].Headcount)
	assert.Equal(t, 3.5, records[0].FTE)
	assert.Equal(t, 8.2, records[1].FTE)
}

func TestWorkforceReader_Read_BOMAndVariantHeaders(t *testing.T) {
	// Headers vary between publication months; identification is by name.
	csv := "\uFEFFPRACTICE_CODE,TOTAL_GPS_HC,TOTAL_GPS_FTE\nB12345,7,6.1\n"

	records, err := NewWorkforceReader(nil).Read(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B12345", records[0].PracticeCode)
	assert.Equal(t, 7.0, records[0].Headcount)
	assert.Equal(t, 6.1, records[0].FTE)
	assert.Empty(t, records[0].Postcode)
}

func TestWorkforceReader_Read_SkipsAndDeduplicates(t *testing.T) {
	csv := strings.Join([]string{
		"PRAC_CODE,TOTAL_GP_HC,TOTAL_GP_FTE",
		"A1,1,0.8",
		",4,4.0",     // no practice code, skipped
		"A1,99,99.0", // duplicate code, first occurrence wins
		"A2,bad,-2",  // unparseable and negative values contribute zero
	}, "\n")

	records, err := NewWorkforceReader(nil).Read(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1.0, records[0].Headcount)
	assert.Equal(t, 0.8, records[0].FTE)
	assert.Equal(t, 0.0, records[1].Headcount)
	assert.Equal(t, 0.0, records[1].FTE)
}

func TestWorkforceReader_Read_MissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "no practice code column",
			csv:     "NAME,TOTAL_GP_HC,TOTAL_GP_FTE\nx,1,1\n",
			wantErr: "practice code",
		},
		{
			name:    "no headcount column",
			csv:     "PRAC_CODE,TOTAL_GP_FTE\nA1,1\n",
			wantErr: "GP headcount",
		},
		{
			name:    "no fte column",
			csv:     "PRAC_CODE,TOTAL_GP_HC\nA1,1\n",
			wantErr: "GP FTE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWorkforceReader(nil).Read(context.Background(), strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkforceReader_ReadFile_ZipArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "gp_workforce_practice.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	// Non-CSV member first; the reader must find the CSV.
	readme, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, err = readme.Write([]byte("practice level workforce"))
	require.NoError(t, err)

	member, err := zw.Create("General Practice Workforce Practice Level.csv")
	require.NoError(t, err)
	_, err = member.Write([]byte(workforceCSV))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	records, err := NewWorkforceReader(nil).ReadFile(context.Background(), zipPath)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestWorkforceReader_ReadFile_PlainCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "workforce.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(workforceCSV), 0644))

	records, err := NewWorkforceReader(nil).ReadFile(context.Background(), csvPath)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestWorkforceReader_ReadFile_Missing(t *testing.T) {
	_, err := NewWorkforceReader(nil).ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
