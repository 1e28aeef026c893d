// pkg/converter/converter.go
package converter

import (
	"errors"
	"math/big"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// TypeConverter handles null detection and numeric normalization of input cells
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Cell texts treated as missing values
	NullTokens []string
	// Whether to rewrite all-numeric columns into their canonical numeric text
	InferNumeric bool
}

// DefaultNullTokens are the cell texts read as missing by default
var DefaultNullTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NullTokens:   DefaultNullTokens,
		InferNumeric: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// ColumnKind is the inferred type of an input column
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindFloat
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

var (
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// IsNull reports whether a raw cell text denotes a missing value
func (c *TypeConverter) IsNull(raw string) bool {
	for _, token := range c.config.NullTokens {
		if raw == token {
			return true
		}
	}
	return false
}

// NormalizeTable removes null cells from every row and, when enabled, rewrites
// columns whose present cells are all numeric. Integer columns with no missing
// cells keep integer text; any other numeric column is rendered as floats.
func (c *TypeConverter) NormalizeTable(table *model.Table) map[string]ColumnKind {
	for _, row := range table.Rows {
		for col, v := range row.Values {
			if c.IsNull(v) {
				delete(row.Values, col)
			}
		}
	}

	kinds := make(map[string]ColumnKind, len(table.Columns))
	for _, col := range table.Columns {
		kind := KindText
		if c.config.InferNumeric {
			kind = c.inferKind(table, col)
		}
		kinds[col] = kind
		if kind == KindText {
			continue
		}

		for _, row := range table.Rows {
			v, ok := row.Values[col]
			if !ok {
				continue
			}
			row.Values[col] = formatNumeric(v, kind)
		}
		c.logger.Debug("Normalized numeric column",
			zap.String("column", col),
			zap.Stringer("kind", kind))
	}
	return kinds
}

func (c *TypeConverter) inferKind(table *model.Table, col string) ColumnKind {
	present, missing := 0, false
	integral := true
	for _, row := range table.Rows {
		v, ok := row.Values[col]
		if !ok {
			missing = true
			continue
		}
		if !numericPattern.MatchString(v) {
			return KindText
		}
		if !integerPattern.MatchString(v) {
			integral = false
		}
		present++
	}

	switch {
	case present == 0:
		return KindText
	case integral && !missing:
		return KindInteger
	default:
		return KindFloat
	}
}

func formatNumeric(v string, kind ColumnKind) string {
	if kind == KindInteger {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return v
		}
		return n.String()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return v
	}
	return FormatFloat(f)
}
