// Package dataprocessing implements the core transform of the GP workforce
// pipeline: reading the practice-level workforce table, mapping practices to
// local authorities, aggregating per-authority totals and merging in ONS
// population estimates.
//
// # Architecture
//
// The package is organized around the pipeline stages:
//
// 1. Workforce reader: extracts practice records from the NHS Digital CSV/ZIP
// 2. Lookup loaders: build the practice-or-postcode to local-authority map
// 3. Mapper: joins workforce records to local authorities
// 4. Aggregator: accumulates per-authority totals
// 5. Population reader + merger: left-joins ONS estimates and derives rates
//
// # Data Flow
//
//	Workforce CSV → WorkforceRecords → Mapper → Aggregator → Merger → OutputRows
//
// # Error Handling
//
// Unreadable inputs and missing required columns are fatal and abort the
// run. Unmatched practices and missing population rows are recoverable:
// unmatched records are dropped and counted, missing population leaves the
// derived rates unset.
package dataprocessing
