// pkg/model/cleaning.go
package model

// CleaningOperation represents a single best-effort fallback taken while cleaning a row
type CleaningOperation struct {
	RowIndex          int    // Position of the row in the source
	ColumnName        string // Column that was cleaned
	OriginalValue     string // Raw cell text (may be empty)
	CleaningOperation string // Type of cleaning performed (e.g., "details_default")
	CleaningReason    string // Reason for cleaning (e.g., "literal_syntax")
}

// Cleaning operation types
const (
	OpDetailsDefault   = "details_default"
	OpPFASValuesSkip   = "pfas_values_skipped"
	ReasonNotMapping   = "not_mapping"
	ReasonNotSequence  = "not_sequence"
	ReasonLiteralError = "literal_syntax"
)

// Details is the fixed record extracted from the semi-structured details field
type Details struct {
	Status       string // Defaults to "Unknown"
	ClosureYear  string // Four digits, or "" when absent
	PFASProduced string // Raw text, may be blank when present
	LastChecked  string // "" when absent

	// Set when a produced substance is present, even a blank one
	HasPFASProduced bool
}

// SetPFASProduced records a present produced substance
func (d *Details) SetPFASProduced(v string) {
	d.PFASProduced = v
	d.HasPFASProduced = true
}

// DefaultStatus is used whenever the details literal does not provide one
const DefaultStatus = "Unknown"

// DefaultDetails returns the record used when nothing can be extracted
func DefaultDetails() Details {
	return Details{Status: DefaultStatus}
}

// CleanRow is an input row after field normalization and identity assignment
type CleanRow struct {
	Row
	Details
	Label  string // Node labels, e.g. "Site:KnownUser"
	SiteID string
}

// IsMeasurement reports whether the row describes a measurement event
func (r CleanRow) IsMeasurement() bool {
	return r.Value(ColCategory) == CategoryMeasurement
}

// CategoryMeasurement is the exact category value of measurement rows
const CategoryMeasurement = "Measurement"
