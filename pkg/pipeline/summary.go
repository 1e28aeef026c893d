package pipeline

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ContentTypeYAML is the content type of the stored run summary
const ContentTypeYAML = "application/yaml"

// TableSummary describes one written table in the run summary
type TableSummary struct {
	Name     string `yaml:"name"`
	Key      string `yaml:"key"`
	Rows     int    `yaml:"rows"`
	Bytes    int64  `yaml:"size_bytes"`
	Checksum string `yaml:"checksum,omitempty"`
	Verified bool   `yaml:"verified"`
}

// ErrorSample is one recorded error in the run summary
type ErrorSample struct {
	Table   string `yaml:"table,omitempty"`
	Row     int    `yaml:"row"` // -1 when not tied to a row
	Column  string `yaml:"column,omitempty"`
	Value   string `yaml:"value,omitempty"`
	Message string `yaml:"message"`
}

// RunSummary is the document stored alongside the output tables
type RunSummary struct {
	RunID      string         `yaml:"run_id"`
	Input      string         `yaml:"input"`
	Output     string         `yaml:"output"`
	StartedAt  time.Time      `yaml:"started_at"`
	FinishedAt time.Time      `yaml:"finished_at"`
	Duration   string         `yaml:"duration"`
	RowsRead   int            `yaml:"rows_read"`
	Tables     []TableSummary `yaml:"tables"`
	Fallbacks  map[string]int `yaml:"fallbacks,omitempty"`

	// Up to five samples per error category, keyed by category name
	ErrorSamples map[string][]ErrorSample `yaml:"error_samples,omitempty"`
}

// NewRunSummary builds a summary from a completed run result
func NewRunSummary(result *RunResult) *RunSummary {
	s := &RunSummary{
		RunID:      result.RunID,
		Input:      result.Input,
		Output:     result.Output,
		StartedAt:  result.StartTime,
		FinishedAt: result.EndTime,
		Duration:   result.Duration.String(),
		RowsRead:   result.RowsRead,
		Tables:     make([]TableSummary, 0, len(result.Tables)),
	}
	for _, t := range result.Tables {
		s.Tables = append(s.Tables, TableSummary{
			Name:     t.Name,
			Key:      t.Key,
			Rows:     t.Rows,
			Bytes:    t.Bytes,
			Checksum: t.ETag,
			Verified: t.Verified,
		})
	}
	if len(result.Fallbacks) > 0 {
		s.Fallbacks = make(map[string]int, len(result.Fallbacks))
		for col, n := range result.Fallbacks {
			s.Fallbacks[col] = n
		}
	}
	return s
}

// WithErrorSamples adds the handler's sampled errors to the summary
func (s *RunSummary) WithErrorSamples(samples map[ErrorCategory][]ErrorRecord) *RunSummary {
	if len(samples) == 0 {
		return s
	}
	s.ErrorSamples = make(map[string][]ErrorSample, len(samples))
	for category, records := range samples {
		out := make([]ErrorSample, 0, len(records))
		for _, r := range records {
			out = append(out, ErrorSample{
				Table:   r.TableName,
				Row:     r.RowIndex,
				Column:  r.ColumnName,
				Value:   r.SourceValue,
				Message: r.Message,
			})
		}
		s.ErrorSamples[category.String()] = out
	}
	return s
}

// ToYAML serializes the summary
func (s *RunSummary) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return data, nil
}

// ParseRunSummary decodes a summary written by ToYAML
func ParseRunSummary(data []byte) (*RunSummary, error) {
	var s RunSummary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return &s, nil
}
