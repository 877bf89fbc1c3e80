package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "gpworkforce/internal/errors"
	"gpworkforce/pkg/contracts/domain"
)

// laCodePattern keeps only local-authority level GSS codes: English
// unitary/district/metropolitan/London boroughs plus Welsh, Scottish and
// Northern Irish council areas.
var laCodePattern = regexp.MustCompile(`^(E0[6-9]|W06|S12|N09)`)

// PopulationReader extracts per-local-authority population estimates from
// an ONS mid-year estimates workbook. The workbook layout shifts between
// releases, so the sheet, header row and columns are all found by sniffing
// rather than fixed positions.
type PopulationReader struct {
	logger *slog.Logger
}

// NewPopulationReader creates a population reader.
func NewPopulationReader(logger *slog.Logger) *PopulationReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PopulationReader{logger: logger}
}

// ReadFile parses the workbook at filePath.
func (r *PopulationReader) ReadFile(ctx context.Context, filePath string) ([]domain.PopulationRecord, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("failed to open population workbook %s", filePath), err)
	}
	defer f.Close()

	sheetName := choosePopulationSheet(f.GetSheetList())
	if sheetName == "" {
		return nil, apperrors.NewParsingError("population workbook has no sheets", nil)
	}

	r.logger.InfoContext(ctx, "reading population estimates",
		slog.String("file", filePath),
		slog.String("sheet", sheetName))

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("failed to read population sheet %s", sheetName), err)
	}

	records, err := parsePopulationRows(rows)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "population estimates loaded",
		slog.Int("local_authority_count", len(records)))

	return records, nil
}

// choosePopulationSheet picks the mid-year-estimate persons sheet:
// "MYE"+"PERSON" first, then anything population-ish, else the first sheet.
func choosePopulationSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, name := range sheets {
		upper := strings.ToUpper(name)
		if strings.Contains(upper, "MYE") && strings.Contains(upper, "PERSON") {
			return name
		}
	}
	for _, name := range sheets {
		upper := strings.ToUpper(name)
		if strings.Contains(upper, "POPULAT") || strings.Contains(upper, "ESTIMAT") ||
			strings.Contains(upper, "MYE2") {
			return name
		}
	}
	return sheets[0]
}

// parsePopulationRows locates the header row and the code/name/total
// columns, then extracts LA-level records.
func parsePopulationRows(rows [][]string) ([]domain.PopulationRecord, error) {
	headerRow := findPopulationHeader(rows)
	if headerRow == -1 {
		return nil, apperrors.NewMissingColumnError("population table", "area code")
	}

	idx := buildColumnIndex(rows[headerRow])

	codeCol := -1
	for name, i := range idx {
		if strings.Contains(name, "CODE") && !strings.Contains(name, "NAME") {
			if codeCol == -1 || i < codeCol {
				codeCol = i
			}
		}
	}
	if codeCol == -1 {
		codeCol = 0
	}

	nameCol, hasName := idx.findContaining("NAME")

	totalCol, ok := idx.findContaining("ALL", "AGE")
	if !ok {
		totalCol, ok = idx.find("ALL AGES", "ALL_AGES", "TOTAL")
	}
	if !ok {
		return nil, apperrors.NewMissingColumnError("population table", "all ages total")
	}

	var records []domain.PopulationRecord
	seen := make(map[string]bool)

	for _, row := range rows[headerRow+1:] {
		code := cell(row, codeCol)
		if !laCodePattern.MatchString(code) {
			continue
		}
		// LA codes are unique in the source; keep the first occurrence.
		if seen[code] {
			continue
		}

		population, err := parsePopulationValue(cell(row, totalCol))
		if err != nil || population <= 0 {
			continue
		}

		rec := domain.PopulationRecord{
			LACode:     code,
			Population: population,
		}
		if hasName {
			rec.LAName = cell(row, nameCol)
		}
		seen[code] = true
		records = append(records, rec)
	}

	return records, nil
}

// findPopulationHeader looks for the header row (a cell containing "CODE")
// within the first 15 rows, matching the ONS workbook layout.
func findPopulationHeader(rows [][]string) int {
	limit := len(rows)
	if limit > 15 {
		limit = 15
	}
	for i := 0; i < limit; i++ {
		for _, c := range rows[i] {
			if strings.Contains(strings.ToUpper(c), "CODE") {
				return i
			}
		}
	}
	return -1
}

// parsePopulationValue coerces an estimate cell to an integer count.
// ONS cells may carry thousands separators or fractional estimates.
func parsePopulationValue(s string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty population cell")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
