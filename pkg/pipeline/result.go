package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier for a run
func NewRunID() string {
	return uuid.New().String()
}

// TableResult represents the outcome of writing one output table
type TableResult struct {
	Name     string
	Key      string
	Rows     int
	Bytes    int64
	ETag     string
	Verified bool
}

// RunResult represents the result of a single run
type RunResult struct {
	RunID           string
	Input           string
	Output          string
	Success         bool
	RowsRead        int
	MeasurementRows int
	Tables          []TableResult
	Fallbacks       map[string]int // column -> rows that fell back
	Errors          []ErrorRecord
	SummaryKey      string
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// NewRunResult initializes a run result
func NewRunResult(runID, input, output string) *RunResult {
	return &RunResult{
		RunID:     runID,
		Input:     input,
		Output:    output,
		StartTime: time.Now(),
		Tables:    make([]TableResult, 0),
		Fallbacks: make(map[string]int),
		Errors:    make([]ErrorRecord, 0),
	}
}

// Complete marks the run as complete and calculates duration
func (r *RunResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddTable appends a written table
func (r *RunResult) AddTable(table TableResult) {
	r.Tables = append(r.Tables, table)
}

// Table looks up a written table by name
func (r *RunResult) Table(name string) (TableResult, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableResult{}, false
}

// MarkVerified flags a written table as verified
func (r *RunResult) MarkVerified(name string) {
	for i := range r.Tables {
		if r.Tables[i].Name == name {
			r.Tables[i].Verified = true
		}
	}
}

// AddFallback counts a row that fell back while cleaning column
func (r *RunResult) AddFallback(column string) {
	r.Fallbacks[column]++
}

// AddError adds an error to the result
func (r *RunResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
	r.Success = false
}

// HasErrors checks if any errors occurred
func (r *RunResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// TotalRows returns the number of records written across all tables
func (r *RunResult) TotalRows() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Rows
	}
	return total
}

// TotalBytes returns the number of bytes written across all tables
func (r *RunResult) TotalBytes() int64 {
	var total int64
	for _, t := range r.Tables {
		total += t.Bytes
	}
	return total
}
