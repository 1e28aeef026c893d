// pkg/model/metadata.go
package model

// Input column names read from the source table
const (
	ColDetails      = "details"
	ColCategory     = "category"
	ColName         = "name"
	ColLat          = "lat"
	ColLon          = "lon"
	ColCity         = "city"
	ColCountry      = "country"
	ColSector       = "sector"
	ColDate         = "date"
	ColMatrix       = "matrix"
	ColPFASSum      = "pfas_sum"
	ColUnit         = "unit"
	ColPFASValues   = "pfas_values"
	ColPFASProduced = "pfas_produced"
	ColLastChecked  = "last_checked"
	ColClosureYear  = "closure_year"
)

// RequiredColumns lists the columns every input table is expected to carry
var RequiredColumns = []string{
	ColDetails, ColCategory, ColName, ColLat, ColCity, ColCountry,
	ColSector, ColLon, ColDate, ColMatrix, ColPFASSum, ColUnit, ColPFASValues,
}

// Table holds the rows of an input file together with its header
type Table struct {
	Source  string   // Where the table was read from
	Columns []string // Header in file order
	Rows    []Row
}

// Row is a single input record. Absent (null) cells are not stored.
type Row struct {
	Index  int               // Zero-based position in the original, unfiltered input
	Values map[string]string // Present cells keyed by column name
}

// NewRow creates an empty row at the given source position
func NewRow(index int) Row {
	return Row{Index: index, Values: make(map[string]string)}
}

// Get returns the cell value and whether it is present
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Value returns the cell value, or "" when the cell is absent
func (r Row) Value(column string) string {
	return r.Values[column]
}

// Has reports whether the cell is present
func (r Row) Has(column string) bool {
	_, ok := r.Values[column]
	return ok
}

// HasColumn reports whether the table header contains a column
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the header position of a column
// Returns -1 if column not found
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// MissingColumns returns the required columns absent from the header
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}
