package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"gpworkforce/pkg/contracts/domain"
)

// ratePer100k is the denominator convention for the derived rate columns.
const ratePer100k = 100000

// PopulationMerger left-joins local authority aggregates against population
// estimates and derives the per-100k rate columns. A missing population row
// never fails the run; the affected output row simply has no rates.
type PopulationMerger struct {
	logger *slog.Logger
}

// NewPopulationMerger creates a merger.
func NewPopulationMerger(logger *slog.Logger) *PopulationMerger {
	if logger == nil {
		logger = slog.Default()
	}
	return &PopulationMerger{logger: logger}
}

// Merge produces one OutputRow per aggregate. Population rows are matched
// by GSS code when the aggregate has one, otherwise by case-insensitive
// authority name; a name match backfills the missing code. Rates are
// computed only when a matched population is positive.
func (m *PopulationMerger) Merge(ctx context.Context, aggregates []domain.LocalAuthorityAggregate, population []domain.PopulationRecord) []domain.OutputRow {
	byCode := make(map[string]domain.PopulationRecord, len(population))
	byName := make(map[string]domain.PopulationRecord, len(population))
	for _, rec := range population {
		if _, exists := byCode[rec.LACode]; !exists {
			byCode[rec.LACode] = rec
		}
		if rec.LAName != "" {
			key := strings.ToUpper(rec.LAName)
			if _, exists := byName[key]; !exists {
				byName[key] = rec
			}
		}
	}

	rows := make([]domain.OutputRow, 0, len(aggregates))
	missing := 0

	for _, agg := range aggregates {
		row := domain.OutputRow{
			LACode:       agg.LACode,
			LAName:       agg.LAName,
			NumPractices: agg.NumPractices,
			GPHeadcount:  agg.GPHeadcount,
			GPFTE:        agg.GPFTE,
		}

		pop, ok := matchPopulation(agg, byCode, byName)
		if ok {
			if row.LACode == "" {
				row.LACode = pop.LACode
			}
			p := pop.Population
			row.Population = &p
			if p > 0 {
				hc := agg.GPHeadcount / float64(p) * ratePer100k
				fte := agg.GPFTE / float64(p) * ratePer100k
				row.HCPer100k = &hc
				row.FTEPer100k = &fte
			}
		} else {
			missing++
		}

		rows = append(rows, row)
	}

	if missing > 0 {
		m.logger.WarnContext(ctx, "local authorities without population data",
			slog.Int("count", missing))
	}

	// Highest GP FTE first, matching the published summary ordering.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].GPFTE > rows[j].GPFTE
	})

	return rows
}

func matchPopulation(agg domain.LocalAuthorityAggregate, byCode, byName map[string]domain.PopulationRecord) (domain.PopulationRecord, bool) {
	if agg.LACode != "" {
		rec, ok := byCode[agg.LACode]
		return rec, ok
	}
	rec, ok := byName[strings.ToUpper(agg.LAName)]
	return rec, ok
}
