package dataprocessing

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	apperrors "gpworkforce/internal/errors"
	"gpworkforce/pkg/contracts/domain"
)

// workforceColumns holds the positions of the fields we extract from the
// practice-level workforce table.
type workforceColumns struct {
	practiceCode int
	headcount    int
	fte          int
	postcode     int // -1 when the table has no postcode column
}

// WorkforceReader extracts practice-level GP workforce records from the
// NHS Digital publication file, which arrives either as a raw CSV or as a
// ZIP whose first CSV member is the practice-level table.
type WorkforceReader struct {
	logger *slog.Logger
}

// NewWorkforceReader creates a workforce reader.
func NewWorkforceReader(logger *slog.Logger) *WorkforceReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkforceReader{logger: logger}
}

// ReadFile reads workforce records from filePath. ZIP archives are detected
// by attempting to open them as one; anything else is treated as CSV.
func (r *WorkforceReader) ReadFile(ctx context.Context, filePath string) ([]domain.WorkforceRecord, error) {
	if zr, err := zip.OpenReader(filePath); err == nil {
		defer zr.Close()
		return r.readArchive(ctx, &zr.Reader, filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open workforce file %s", filePath), err)
	}
	defer f.Close()

	r.logger.InfoContext(ctx, "workforce file is not a ZIP, reading as CSV",
		slog.String("file", filePath))
	return r.Read(ctx, f)
}

// readArchive reads the first CSV member of the archive.
func (r *WorkforceReader) readArchive(ctx context.Context, zr *zip.Reader, filePath string) ([]domain.WorkforceRecord, error) {
	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}

		r.logger.InfoContext(ctx, "reading workforce CSV from archive",
			slog.String("archive", filePath),
			slog.String("member", member.Name))

		rc, err := member.Open()
		if err != nil {
			return nil, apperrors.NewStorageError(
				fmt.Sprintf("failed to open archive member %s", member.Name), err)
		}
		defer rc.Close()

		return r.Read(ctx, rc)
	}

	return nil, apperrors.NewParsingError(
		fmt.Sprintf("no CSV found inside %s", filePath), nil)
}

// Read parses workforce records from a CSV stream. The practice code,
// headcount and FTE columns are identified by name rather than position,
// since column order varies between publication months.
func (r *WorkforceReader) Read(ctx context.Context, reader io.Reader) ([]domain.WorkforceRecord, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read workforce header row", err)
	}
	if len(headers) > 0 {
		headers[0] = stripBOM(headers[0])
	}

	cols, err := identifyWorkforceColumns(headers)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var records []domain.WorkforceRecord

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read workforce row", err)
		}

		code := cell(row, cols.practiceCode)
		if code == "" {
			continue
		}
		// Practice codes are unique within the publication; keep the first.
		if seen[code] {
			continue
		}
		seen[code] = true

		rec := domain.WorkforceRecord{
			PracticeCode: code,
			Headcount:    parseNumeric(cell(row, cols.headcount)),
			FTE:          parseNumeric(cell(row, cols.fte)),
		}
		if cols.postcode >= 0 {
			rec.Postcode = NormalizePostcode(cell(row, cols.postcode))
		}
		records = append(records, rec)
	}

	r.logger.InfoContext(ctx, "workforce records loaded",
		slog.Int("record_count", len(records)))

	return records, nil
}

// identifyWorkforceColumns locates the practice code, total GP headcount and
// total GP FTE columns: exact candidates first, then substring fallback.
func identifyWorkforceColumns(headers []string) (workforceColumns, error) {
	idx := buildColumnIndex(headers)
	var cols workforceColumns
	var ok bool

	cols.practiceCode, ok = idx.find("PRAC_CODE", "PRACTICE_CODE", "ORG_CODE", "ORGANISATION_CODE")
	if !ok {
		cols.practiceCode, ok = idx.findContaining("PRAC", "CODE")
	}
	if !ok {
		return cols, apperrors.NewMissingColumnError("workforce table", "practice code")
	}

	cols.headcount, ok = idx.find("TOTAL_GP_HC", "TOTAL_GPS_HC", "ALL_GP_HC", "TOTAL_HC_GPS")
	if !ok {
		cols.headcount, ok = idx.findContaining("GP", "HC", "TOTAL")
	}
	if !ok {
		cols.headcount, ok = idx.findContaining("GP", "HC")
	}
	if !ok {
		cols.headcount, ok = idx.findContaining("GP", "HEADCOUNT")
	}
	if !ok {
		return cols, apperrors.NewMissingColumnError("workforce table", "GP headcount")
	}

	cols.fte, ok = idx.find("TOTAL_GP_FTE", "TOTAL_GPS_FTE", "ALL_GP_FTE", "TOTAL_FTE_GPS")
	if !ok {
		cols.fte, ok = idx.findContaining("GP", "FTE", "TOTAL")
	}
	if !ok {
		cols.fte, ok = idx.findContaining("GP", "FTE")
	}
	if !ok {
		return cols, apperrors.NewMissingColumnError("workforce table", "GP FTE")
	}

	cols.postcode, ok = idx.find("PRAC_POSTCODE", "PRACTICE_POSTCODE", "POSTCODE")
	if !ok {
		if cols.postcode, ok = idx.findContaining("POSTCODE"); !ok {
			cols.postcode = -1
		}
	}

	return cols, nil
}

// parseNumeric coerces a cell to a non-negative float. Thousands separators
// are stripped; unparseable or negative values contribute zero.
func parseNumeric(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
