package dataprocessing

import (
	"context"
	"log/slog"

	"gpworkforce/pkg/contracts/domain"
)

// ColumnStats holds simple descriptive statistics for one numeric output
// column.
type ColumnStats struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// RunSummary describes a completed pipeline run.
type RunSummary struct {
	LocalAuthorities int           `json:"local_authorities"`
	MatchedPractices int           `json:"matched_practices"`
	Unmatched        int           `json:"unmatched_practices"`
	Stats            []ColumnStats `json:"stats"`
	TopByFTE         []string      `json:"top_by_fte"`
	BottomByFTE      []string      `json:"bottom_by_fte"`
}

// Summarize computes descriptive statistics over the output rows along with
// the top and bottom n local authorities by GP FTE. Rows are already sorted
// by GP FTE descending when they come out of the merger.
func Summarize(rows []domain.OutputRow, unmatched, n int) RunSummary {
	summary := RunSummary{
		LocalAuthorities: len(rows),
		Unmatched:        unmatched,
	}

	if len(rows) == 0 {
		return summary
	}

	numPractices := make([]float64, len(rows))
	headcount := make([]float64, len(rows))
	fte := make([]float64, len(rows))
	for i, row := range rows {
		summary.MatchedPractices += row.NumPractices
		numPractices[i] = float64(row.NumPractices)
		headcount[i] = row.GPHeadcount
		fte[i] = row.GPFTE
	}

	summary.Stats = []ColumnStats{
		columnStats("Num_Practices", numPractices),
		columnStats("GP_Headcount", headcount),
		columnStats("GP_FTE", fte),
	}

	if n > len(rows) {
		n = len(rows)
	}
	for i := 0; i < n; i++ {
		summary.TopByFTE = append(summary.TopByFTE, rows[i].LAName)
	}
	for i := len(rows) - n; i < len(rows); i++ {
		summary.BottomByFTE = append(summary.BottomByFTE, rows[i].LAName)
	}

	return summary
}

// LogSummary emits the run summary through the structured logger.
func LogSummary(ctx context.Context, logger *slog.Logger, summary RunSummary) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "run summary",
		slog.Int("local_authorities", summary.LocalAuthorities),
		slog.Int("matched_practices", summary.MatchedPractices),
		slog.Int("unmatched_practices", summary.Unmatched))

	for _, st := range summary.Stats {
		logger.InfoContext(ctx, "column statistics",
			slog.String("column", st.Column),
			slog.Float64("min", st.Min),
			slog.Float64("max", st.Max),
			slog.Float64("mean", st.Mean))
	}

	logger.InfoContext(ctx, "local authorities by GP FTE",
		slog.Any("top", summary.TopByFTE),
		slog.Any("bottom", summary.BottomByFTE))
}

func columnStats(name string, values []float64) ColumnStats {
	st := ColumnStats{Column: name, Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Mean = sum / float64(len(values))
	return st
}
