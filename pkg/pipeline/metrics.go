package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Pipeline stages, in execution order
const (
	StageRead      = "read"
	StageNormalize = "normalize"
	StageClean     = "clean"
	StageBuild     = "build"
	StageWrite     = "write"
	StageVerify    = "verify"
	StageSummary   = "summary"
)

// RunMetrics tracks metrics for a run
type RunMetrics struct {
	mu                sync.Mutex
	logger            *zap.Logger
	StartTime         time.Time
	EndTime           time.Time
	RowsRead          int
	NumericColumns    int
	RowsCleaned       int
	MeasurementRows   int
	TableRows         map[string]int
	TableBytes        map[string]int64
	tableOrder        []string
	FallbacksByColumn map[string]int
	ErrorCounts       map[ErrorCategory]int
	StageDurations    map[string]time.Duration
	stageOrder        []string
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		StartTime:         time.Now(),
		TableRows:         make(map[string]int),
		TableBytes:        make(map[string]int64),
		FallbacksByColumn: make(map[string]int),
		ErrorCounts:       make(map[ErrorCategory]int),
		StageDurations:    make(map[string]time.Duration),
		logger:            logger,
	}
}

// TimeStage starts timing stage; the returned func records the elapsed time
func (m *RunMetrics) TimeStage(stage string) func() {
	start := time.Now()
	return func() {
		m.RecordStage(stage, time.Since(start))
	}
}

// RecordStage adds d to the time spent in stage
func (m *RunMetrics) RecordStage(stage string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.StageDurations[stage]; !ok {
		m.stageOrder = append(m.stageOrder, stage)
	}
	m.StageDurations[stage] += d

	if m.logger != nil {
		m.logger.Debug("Stage completed",
			zap.String("stage", stage),
			zap.Duration("duration", d))
	}
}

// RecordRead records the size of the input table
func (m *RunMetrics) RecordRead(rows, numericColumns int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RowsRead = rows
	m.NumericColumns = numericColumns
}

// RecordCleaned records how many rows were cleaned and how many are measurements
func (m *RunMetrics) RecordCleaned(rows, measurements int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RowsCleaned = rows
	m.MeasurementRows = measurements
}

// RecordFallback counts a row fallback against its column and category
func (m *RunMetrics) RecordFallback(op model.CleaningOperation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FallbacksByColumn[op.ColumnName]++
	m.ErrorCounts[fallbackCategory(op)]++
}

// RecordTable records a written table
func (m *RunMetrics) RecordTable(name string, rows int, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.TableRows[name]; !ok {
		m.tableOrder = append(m.tableOrder, name)
	}
	m.TableRows[name] = rows
	m.TableBytes[name] = bytes
}

// RecordError records an error occurrence by category
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ErrorCounts[category]++
}

// Complete marks the run as complete
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()

	if m.logger != nil {
		m.logger.Info("Run metrics",
			zap.Duration("duration", m.Duration()),
			zap.Int("rowsRead", m.RowsRead),
			zap.Int("measurementRows", m.MeasurementRows),
			zap.Int64("bytesWritten", m.totalBytes()),
			zap.Int("fallbacks", m.ErrorCounts[ErrorCategoryParseFallback]))
	}
}

// Duration returns the total duration of the run
func (m *RunMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// CalculateThroughput returns input rows per second
func (m *RunMetrics) CalculateThroughput() float64 {
	seconds := m.Duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(m.RowsRead) / seconds
}

func (m *RunMetrics) totalBytes() int64 {
	var total int64
	for _, b := range m.TableBytes {
		total += b
	}
	return total
}

// formatBytes converts bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// GenerateMetricsReport creates a plain-text metrics report
func (m *RunMetrics) GenerateMetricsReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
Run Metrics Report
==================
Duration:                %s
Start Time:              %s
End Time:                %s

Input Summary
-------------
Rows Read:               %d
Numeric Columns:         %d
Measurement Rows:        %d (%.1f%%)
Average Throughput:      %.2f rows/sec

Output Summary
--------------
Bytes Written:           %s
`,
		formatDuration(m.Duration()),
		m.StartTime.Format(time.RFC3339),
		m.EndTime.Format(time.RFC3339),
		m.RowsRead,
		m.NumericColumns,
		m.MeasurementRows, getPercentage(float64(m.MeasurementRows), float64(m.RowsCleaned)),
		m.CalculateThroughput(),
		formatBytes(m.totalBytes()),
	))

	for _, name := range m.tableOrder {
		sb.WriteString(fmt.Sprintf("- %s: %d rows, %s\n", name, m.TableRows[name], formatBytes(m.TableBytes[name])))
	}

	if len(m.stageOrder) > 0 {
		sb.WriteString("\nStage Timings\n-------------\n")
		for _, stage := range m.stageOrder {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", stage, formatDuration(m.StageDurations[stage])))
		}
	}

	if len(m.FallbacksByColumn) > 0 {
		sb.WriteString("\nParse Fallbacks\n---------------\n")
		for _, col := range sortedKeys(m.FallbacksByColumn) {
			count := m.FallbacksByColumn[col]
			sb.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", col, count, getPercentage(float64(count), float64(m.RowsCleaned))))
		}
	}

	if len(m.ErrorCounts) > 0 {
		sb.WriteString("\nError Distribution\n------------------\n")
		total := 0
		for _, count := range m.ErrorCounts {
			total += count
		}
		for category := ErrorCategoryNone; category <= ErrorCategoryCritical; category++ {
			if count, ok := m.ErrorCounts[category]; ok {
				sb.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", category, count, getPercentage(float64(count), float64(total))))
			}
		}
	}

	return sb.String()
}

// ToYAML serializes metrics to YAML
func (m *RunMetrics) ToYAML() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stages := make(map[string]string, len(m.StageDurations))
	for stage, d := range m.StageDurations {
		stages[stage] = d.String()
	}
	errorCounts := make(map[string]int, len(m.ErrorCounts))
	for category, count := range m.ErrorCounts {
		errorCounts[category.String()] = count
	}

	return yaml.Marshal(struct {
		Duration          string            `yaml:"duration"`
		RowsRead          int               `yaml:"rows_read"`
		MeasurementRows   int               `yaml:"measurement_rows"`
		TableRows         map[string]int    `yaml:"table_rows"`
		BytesWritten      int64             `yaml:"bytes_written"`
		Throughput        float64           `yaml:"throughput"`
		FallbacksByColumn map[string]int    `yaml:"fallbacks_by_column,omitempty"`
		ErrorCounts       map[string]int    `yaml:"error_counts,omitempty"`
		Stages            map[string]string `yaml:"stages,omitempty"`
	}{
		Duration:          formatDuration(m.Duration()),
		RowsRead:          m.RowsRead,
		MeasurementRows:   m.MeasurementRows,
		TableRows:         m.TableRows,
		BytesWritten:      m.totalBytes(),
		Throughput:        m.CalculateThroughput(),
		FallbacksByColumn: m.FallbacksByColumn,
		ErrorCounts:       errorCounts,
		Stages:            stages,
	})
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
