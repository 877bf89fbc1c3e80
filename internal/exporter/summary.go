package exporter

import (
	"strconv"

	"gpworkforce/pkg/contracts/domain"
)

// OutputHeaders is the external column contract of the summary CSV.
var OutputHeaders = []string{
	"LA_Code", "LA_Name", "Num_Practices", "GP_Headcount", "GP_FTE",
	"Population", "GP_HC_per_100k", "GP_FTE_per_100k",
}

// WriteSummary serializes output rows to the summary CSV. Rows without
// population data get empty Population and rate cells, not dropped rows.
func (w *CSVWriter) WriteSummary(filePath string, rows []domain.OutputRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, formatOutputRow(row))
	}
	return w.WriteSimpleCSV(filePath, OutputHeaders, records)
}

// formatOutputRow renders one output row. Headcount and FTE keep one
// decimal place, the derived rates keep one decimal place matching the
// published summaries.
func formatOutputRow(row domain.OutputRow) []string {
	record := []string{
		row.LACode,
		row.LAName,
		strconv.Itoa(row.NumPractices),
		strconv.FormatFloat(row.GPHeadcount, 'f', 1, 64),
		strconv.FormatFloat(row.GPFTE, 'f', 1, 64),
	}

	if row.Population != nil {
		record = append(record, strconv.FormatInt(*row.Population, 10))
	} else {
		record = append(record, "")
	}
	if row.HCPer100k != nil {
		record = append(record, strconv.FormatFloat(*row.HCPer100k, 'f', 1, 64))
	} else {
		record = append(record, "")
	}
	if row.FTEPer100k != nil {
		record = append(record, strconv.FormatFloat(*row.FTEPer100k, 'f', 1, 64))
	} else {
		record = append(record, "")
	}

	return record
}
