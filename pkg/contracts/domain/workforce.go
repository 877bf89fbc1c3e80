package domain

// WorkforceRecord represents one GP practice row from the NHS Digital
// practice-level workforce publication.
type WorkforceRecord struct {
	PracticeCode string  `json:"practice_code" csv:"Practice_Code" validate:"required"`
	Postcode     string  `json:"postcode,omitempty" csv:"Postcode"`
	Headcount    float64 `json:"headcount" csv:"GP_Headcount" validate:"min=0"`
	FTE          float64 `json:"fte" csv:"GP_FTE" validate:"min=0"`
}

// LookupEntry maps a lookup key (practice ODS code or postcode) to a
// local authority. Many keys map onto one local authority.
type LookupEntry struct {
	Key    string `json:"key" validate:"required"`
	LACode string `json:"la_code"`
	LAName string `json:"la_name" validate:"required"`
}

// MappedRecord is a workforce record joined to its local authority.
type MappedRecord struct {
	Record WorkforceRecord `json:"record"`
	LACode string          `json:"la_code"`
	LAName string          `json:"la_name"`
}

// LocalAuthorityAggregate holds the per-local-authority totals produced by
// grouping mapped workforce records.
type LocalAuthorityAggregate struct {
	LACode       string  `json:"la_code" csv:"LA_Code"`
	LAName       string  `json:"la_name" csv:"LA_Name"`
	NumPractices int     `json:"num_practices" csv:"Num_Practices" validate:"min=0"`
	GPHeadcount  float64 `json:"gp_headcount" csv:"GP_Headcount"`
	GPFTE        float64 `json:"gp_fte" csv:"GP_FTE"`
}

// PopulationRecord represents an ONS mid-year population estimate for one
// local authority.
type PopulationRecord struct {
	LACode     string `json:"la_code" csv:"LA_Code" validate:"required"`
	LAName     string `json:"la_name,omitempty" csv:"LA_Name"`
	Population int64  `json:"population" csv:"Population" validate:"gt=0"`
}

// OutputRow is a LocalAuthorityAggregate left-joined with population data.
// The per-100k rates are nil when no positive population figure exists for
// the local authority; the row is still emitted.
type OutputRow struct {
	LACode       string   `json:"la_code" csv:"LA_Code"`
	LAName       string   `json:"la_name" csv:"LA_Name"`
	NumPractices int      `json:"num_practices" csv:"Num_Practices"`
	GPHeadcount  float64  `json:"gp_headcount" csv:"GP_Headcount"`
	GPFTE        float64  `json:"gp_fte" csv:"GP_FTE"`
	Population   *int64   `json:"population,omitempty" csv:"Population"`
	HCPer100k    *float64 `json:"gp_hc_per_100k,omitempty" csv:"GP_HC_per_100k"`
	FTEPer100k   *float64 `json:"gp_fte_per_100k,omitempty" csv:"GP_FTE_per_100k"`
}
