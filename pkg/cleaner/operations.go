// pkg/cleaner/operations.go
package cleaner

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/David-Botos/pfas-graph/pkg/converter"
	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Keys read from the details literal
const (
	keyStatus       = "Status"
	keyStatusLower  = "status"
	keyPFASProduced = "PFAS produced"
	keyLastChecked  = "status last_checked"
)

// ErrNotMapping is returned when details parse to a literal that is not a dict
var ErrNotMapping = errors.New("details literal is not a mapping")

var closureYearPattern = regexp.MustCompile(`(?i)(?:Closed in|stopped in|stop for|end of)\s+(\d{4})`)

// NormalizeDetails extracts the fixed details record from raw text.
// The returned record is always usable: on error it holds the defaults plus
// any closure year found in the text.
func NormalizeDetails(raw string) (model.Details, error) {
	details := model.DefaultDetails()
	if year, ok := ExtractClosureYear(raw); ok {
		details.ClosureYear = year
	}

	value, err := converter.ParseLiteral(raw)
	if err != nil {
		return details, fmt.Errorf("failed to parse details: %w", err)
	}
	d, ok := converter.AsMapping(value)
	if !ok {
		return details, fmt.Errorf("%w: got %s", ErrNotMapping, converter.TypeName(value))
	}

	if v, ok := d.Get(keyStatus); ok {
		details.Status = literalText(v)
	} else if v, ok := d.Get(keyStatusLower); ok {
		details.Status = literalText(v)
	}
	if v, ok := d.Get(keyPFASProduced); ok && v != nil {
		details.SetPFASProduced(converter.Str(v))
	}
	if v, ok := d.Get(keyLastChecked); ok {
		details.LastChecked = literalText(v)
	}

	return details, nil
}

// ExtractClosureYear returns the year of the first closure phrase in text
func ExtractClosureYear(text string) (string, bool) {
	m := closureYearPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// literalText renders a literal value as cell text; None is absent
func literalText(v any) string {
	if v == nil {
		return ""
	}
	return converter.Str(v)
}
