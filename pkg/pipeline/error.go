package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionAbort indicates the run should be aborted
	ActionAbort
)

// String returns a string representation of the action
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionAbort:
		return "Abort"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryParseFallback
	ErrorCategoryRowLevel
	ErrorCategorySource
	ErrorCategorySink
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryParseFallback:
		return "ParseFallback"
	case ErrorCategoryRowLevel:
		return "RowLevel"
	case ErrorCategorySource:
		return "Source"
	case ErrorCategorySink:
		return "Sink"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a run
type ErrorRecord struct {
	Category    ErrorCategory
	TableName   string
	RowIndex    int // -1 when the error is not tied to a row
	ColumnName  string
	SourceValue string
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		RowIndex:    -1,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategorySource,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// FromCleaningOperation converts a row fallback into an error record
func FromCleaningOperation(op model.CleaningOperation) ErrorRecord {
	err := fmt.Errorf("%s: %s", op.CleaningOperation, op.CleaningReason)
	return NewErrorRecord(err, fallbackCategory(op)).
		WithRow(op.RowIndex).
		WithColumn(op.ColumnName, op.OriginalValue)
}

// fallbackCategory classifies a cleaning operation. A skipped pfas_values
// cell drops every edge of its row.
func fallbackCategory(op model.CleaningOperation) ErrorCategory {
	if op.CleaningOperation == model.OpPFASValuesSkip {
		return ErrorCategoryRowLevel
	}
	return ErrorCategoryParseFallback
}

// WithTable adds table information to the error record
func (r ErrorRecord) WithTable(table string) ErrorRecord {
	r.TableName = table
	return r
}

// WithRow adds row information to the error record
func (r ErrorRecord) WithRow(index int) ErrorRecord {
	r.RowIndex = index
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(columnName, sourceValue string) ErrorRecord {
	r.ColumnName = columnName
	r.SourceValue = sourceValue
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.TableName != "" {
		sb.WriteString(fmt.Sprintf("Table: %s ", r.TableName))
	}

	if r.RowIndex >= 0 {
		sb.WriteString(fmt.Sprintf("Row: %d ", r.RowIndex))
	}

	if r.ColumnName != "" {
		sb.WriteString(fmt.Sprintf("Column: %s ", r.ColumnName))
		if r.SourceValue != "" {
			sb.WriteString(fmt.Sprintf("Value: %q ", r.SourceValue))
		}
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return strings.TrimSpace(sb.String())
}

// ErrorHandler manages error handling during a run
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		maxSamples:   5, // Store up to 5 sample errors per category
	}
}

// HandleError records an error and determines the action to take
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning, ErrorCategoryParseFallback, ErrorCategoryRowLevel:
		return ActionContinue

	case ErrorCategorySource, ErrorCategorySink, ErrorCategoryCritical:
		if eh.logger != nil {
			eh.logger.Error("Aborting run",
				zap.String("category", record.Category.String()),
				zap.String("record", record.String()))
		}
		return ActionAbort

	default:
		return ActionContinue
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}

	if eh.logger == nil {
		return
	}

	// Row fallbacks are routine and stay at debug
	var level zapcore.Level
	switch record.Category {
	case ErrorCategoryParseFallback, ErrorCategoryRowLevel:
		level = zap.DebugLevel
	case ErrorCategoryWarning:
		level = zap.WarnLevel
	case ErrorCategorySource, ErrorCategorySink, ErrorCategoryCritical:
		level = zap.ErrorLevel
	default:
		level = zap.InfoLevel
	}

	fields := []zap.Field{
		zap.String("category", record.Category.String()),
		zap.String("error", record.Message),
		zap.Bool("recoverable", record.Recoverable),
	}
	if record.TableName != "" {
		fields = append(fields, zap.String("table", record.TableName))
	}
	if record.RowIndex >= 0 {
		fields = append(fields, zap.Int("row", record.RowIndex))
	}
	if record.ColumnName != "" {
		fields = append(fields, zap.String("column", record.ColumnName))
	}
	eh.logger.Log(level, "Run error", fields...)
}

// GetErrorSummary returns the number of errors recorded per category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}

	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		categorySamples := make([]ErrorRecord, len(records))
		copy(categorySamples, records)
		samples[category] = categorySamples
	}

	return samples
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
