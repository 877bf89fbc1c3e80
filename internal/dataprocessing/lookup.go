package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "gpworkforce/internal/errors"
	"gpworkforce/pkg/contracts/domain"
)

// LookupTable maps a key (practice ODS code or normalized postcode) to its
// local authority. Many keys map to one authority.
type LookupTable map[string]domain.LookupEntry

// LookupLoader builds a LookupTable from a reference file. Both lookup
// variants (ODS-code based providers register, postcode based lookup CSV)
// implement it, so the pipeline is indifferent to the mapping strategy.
type LookupLoader interface {
	Load(ctx context.Context, filePath string) (LookupTable, error)
}

// ProvidersLoader reads the CQC GP providers register (XLSX) and maps
// practice ODS codes to local authority names. The register carries no GSS
// codes, so LookupEntry.LACode is left empty; the population merger
// backfills codes by name where it can.
type ProvidersLoader struct {
	logger *slog.Logger
}

// NewProvidersLoader creates an ODS-code lookup loader.
func NewProvidersLoader(logger *slog.Logger) *ProvidersLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProvidersLoader{logger: logger}
}

// Load parses the providers workbook. Dormant locations and rows without an
// ODS code are skipped; duplicate codes keep their first occurrence.
func (l *ProvidersLoader) Load(ctx context.Context, filePath string) (LookupTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("failed to open providers register %s", filePath), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("providers register has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read providers sheet", err)
	}

	headerRow, idx := findProvidersHeader(rows)
	if headerRow == -1 {
		return nil, apperrors.NewMissingColumnError("providers register", "Location ODS Code")
	}

	odsCol, _ := idx.findContaining("LOCATION", "ODS", "CODE")
	laCol, ok := idx.findContaining("LOCATION", "LOCAL", "AUTHORITY")
	if !ok {
		return nil, apperrors.NewMissingColumnError("providers register", "Location Local Authority")
	}
	dormantCol, hasDormant := idx.findContaining("DORMANT")

	table := make(LookupTable)
	for _, row := range rows[headerRow+1:] {
		code := cell(row, odsCol)
		if code == "" {
			continue
		}
		if hasDormant && strings.EqualFold(cell(row, dormantCol), "Y") {
			continue
		}
		laName := cell(row, laCol)
		if laName == "" {
			continue
		}
		// First occurrence wins for duplicated ODS codes.
		if _, exists := table[code]; exists {
			continue
		}
		table[code] = domain.LookupEntry{Key: code, LAName: laName}
	}

	l.logger.InfoContext(ctx, "providers register loaded",
		slog.String("file", filePath),
		slog.Int("practice_count", len(table)))

	return table, nil
}

// findProvidersHeader scans the first rows of the register for the header
// row containing the ODS code column.
func findProvidersHeader(rows [][]string) (int, columnIndex) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		idx := buildColumnIndex(rows[i])
		if _, ok := idx.findContaining("LOCATION", "ODS", "CODE"); ok {
			return i, idx
		}
	}
	return -1, nil
}

// PostcodeLoader reads a postcode-to-LA lookup CSV (ONS postcode directory
// extract) mapping normalized postcodes to local authority code and name.
type PostcodeLoader struct {
	logger *slog.Logger
}

// NewPostcodeLoader creates a postcode lookup loader.
func NewPostcodeLoader(logger *slog.Logger) *PostcodeLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostcodeLoader{logger: logger}
}

// Load parses the lookup CSV. Duplicate postcodes keep their first
// occurrence.
func (l *PostcodeLoader) Load(ctx context.Context, filePath string) (LookupTable, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("failed to open postcode lookup %s", filePath), err)
	}
	defer f.Close()

	table, err := l.read(f)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "postcode lookup loaded",
		slog.String("file", filePath),
		slog.Int("postcode_count", len(table)))

	return table, nil
}

func (l *PostcodeLoader) read(reader io.Reader) (LookupTable, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read postcode lookup header", err)
	}
	if len(headers) > 0 {
		headers[0] = stripBOM(headers[0])
	}

	idx := buildColumnIndex(headers)

	pcCol, ok := idx.find("PCDS", "PCD", "POSTCODE")
	if !ok {
		if pcCol, ok = idx.findContaining("POSTCODE"); !ok {
			return nil, apperrors.NewMissingColumnError("postcode lookup", "postcode")
		}
	}
	codeCol, ok := idx.find("LADCD", "LA_CODE", "LAD23CD", "LAD24CD")
	if !ok {
		if codeCol, ok = idx.findContaining("LA", "CODE"); !ok {
			return nil, apperrors.NewMissingColumnError("postcode lookup", "LA code")
		}
	}
	nameCol, ok := idx.find("LADNM", "LA_NAME", "LAD23NM", "LAD24NM")
	if !ok {
		if nameCol, ok = idx.findContaining("LA", "NAME"); !ok {
			return nil, apperrors.NewMissingColumnError("postcode lookup", "LA name")
		}
	}

	table := make(LookupTable)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read postcode lookup row", err)
		}

		postcode := NormalizePostcode(cell(row, pcCol))
		if postcode == "" {
			continue
		}
		if _, exists := table[postcode]; exists {
			continue
		}
		table[postcode] = domain.LookupEntry{
			Key:    postcode,
			LACode: cell(row, codeCol),
			LAName: cell(row, nameCol),
		}
	}

	return table, nil
}

// NormalizePostcode upper-cases a postcode and removes internal spaces so
// "m1 1ae", "M1 1AE" and "M11AE" all key the same lookup entry.
func NormalizePostcode(postcode string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(postcode)), " ", "")
}
