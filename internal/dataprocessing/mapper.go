package dataprocessing

import (
	"context"
	"log/slog"

	"gpworkforce/pkg/contracts/domain"
)

// KeyFunc extracts the lookup key from a workforce record. The ODS-code
// strategy keys on the practice code, the postcode strategy on the
// practice postcode.
type KeyFunc func(domain.WorkforceRecord) string

// PracticeCodeKey keys lookups by practice ODS code.
func PracticeCodeKey(rec domain.WorkforceRecord) string {
	return rec.PracticeCode
}

// PostcodeKey keys lookups by practice postcode.
func PostcodeKey(rec domain.WorkforceRecord) string {
	return rec.Postcode
}

// Mapper joins workforce records to local authorities through a lookup
// table. It never mutates its inputs.
type Mapper struct {
	keyFn  KeyFunc
	logger *slog.Logger
}

// NewMapper creates a mapper using the given key strategy.
func NewMapper(keyFn KeyFunc, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{keyFn: keyFn, logger: logger}
}

// Map joins each record to its local authority. Records whose key is absent
// from the lookup are dropped, never counted under a phantom authority;
// the number dropped is returned alongside the matches.
func (m *Mapper) Map(ctx context.Context, records []domain.WorkforceRecord, lookup LookupTable) ([]domain.MappedRecord, int) {
	mapped := make([]domain.MappedRecord, 0, len(records))
	unmatched := 0

	for _, rec := range records {
		entry, ok := lookup[m.keyFn(rec)]
		if !ok {
			unmatched++
			continue
		}
		mapped = append(mapped, domain.MappedRecord{
			Record: rec,
			LACode: entry.LACode,
			LAName: entry.LAName,
		})
	}

	m.logger.InfoContext(ctx, "practices mapped to local authorities",
		slog.Int("matched", len(mapped)),
		slog.Int("unmatched", unmatched),
		slog.Int("total", len(records)))

	return mapped, unmatched
}
