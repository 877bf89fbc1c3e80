package dataprocessing

import (
	"sort"
	"strings"

	"gpworkforce/pkg/contracts/domain"
)

// Aggregator accumulates per-local-authority totals from mapped workforce
// records. Accumulation is pure addition, so the result is independent of
// the order records are consumed in.
type Aggregator struct {
	byKey map[string]*domain.LocalAuthorityAggregate
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byKey: make(map[string]*domain.LocalAuthorityAggregate)}
}

// aggregateKey groups by GSS code when the lookup provided one, otherwise
// by case-folded authority name (the providers register carries names only).
func aggregateKey(laCode, laName string) string {
	if laCode != "" {
		return laCode
	}
	return strings.ToUpper(laName)
}

// Add accumulates one mapped record: +1 practice, summed headcount and FTE.
func (a *Aggregator) Add(rec domain.MappedRecord) {
	key := aggregateKey(rec.LACode, rec.LAName)
	agg, ok := a.byKey[key]
	if !ok {
		agg = &domain.LocalAuthorityAggregate{
			LACode: rec.LACode,
			LAName: rec.LAName,
		}
		a.byKey[key] = agg
	}
	agg.NumPractices++
	agg.GPHeadcount += rec.Record.Headcount
	agg.GPFTE += rec.Record.FTE
}

// AddAll accumulates a batch of mapped records.
func (a *Aggregator) AddAll(records []domain.MappedRecord) {
	for _, rec := range records {
		a.Add(rec)
	}
}

// Results returns one aggregate per distinct local authority, sorted by
// code then name for deterministic output.
func (a *Aggregator) Results() []domain.LocalAuthorityAggregate {
	out := make([]domain.LocalAuthorityAggregate, 0, len(a.byKey))
	for _, agg := range a.byKey {
		out = append(out, *agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LACode != out[j].LACode {
			return out[i].LACode < out[j].LACode
		}
		return out[i].LAName < out[j].LAName
	})

	return out
}

// Aggregate is a convenience wrapper grouping a full batch in one call.
func Aggregate(records []domain.MappedRecord) []domain.LocalAuthorityAggregate {
	agg := NewAggregator()
	agg.AddAll(records)
	return agg.Results()
}
