package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// TableReader loads a previously written table back
type TableReader interface {
	ReadTable(ctx context.Context, name string) (model.OutputTable, error)
}

// RecordDiscrepancy represents a difference between a produced and a stored record
type RecordDiscrepancy struct {
	Record      int
	ColumnName  string
	Expected    string
	Actual      string
	Discrepancy string
}

// VerificationReport contains the results of a table verification
type VerificationReport struct {
	Table               string
	VerificationTime    time.Time
	HeaderMatches       bool
	RowCountMatches     bool
	ExpectedRowCount    int
	ActualRowCount      int
	SampleSize          int
	SampleDiscrepancies []RecordDiscrepancy
	Duration            time.Duration
}

// OK reports whether the stored table matched what was produced
func (r *VerificationReport) OK() bool {
	return r.HeaderMatches && r.RowCountMatches && len(r.SampleDiscrepancies) == 0
}

// Verifier reads written tables back and compares them with what was produced
type Verifier struct {
	reader  TableReader
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(reader TableReader, logger *zap.Logger) *Verifier {
	return &Verifier{
		reader:  reader,
		logger:  logger,
		timeout: time.Minute * 5, // Default 5-minute timeout
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyTable reads expected.Name back and checks header, record count and a sample of records
func (v *Verifier) VerifyTable(ctx context.Context, expected model.OutputTable) (*VerificationReport, error) {
	startTime := time.Now()
	report := &VerificationReport{
		Table:            expected.Name,
		VerificationTime: startTime,
		ExpectedRowCount: len(expected.Records),
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	actual, err := v.reader.ReadTable(ctx, expected.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", expected.Name, err)
	}

	report.HeaderMatches = slices.Equal(expected.Columns, actual.Columns)
	report.ActualRowCount = len(actual.Records)
	report.RowCountMatches = report.ExpectedRowCount == report.ActualRowCount

	if !report.HeaderMatches {
		v.logger.Warn("Header mismatch",
			zap.String("table", expected.Name),
			zap.Strings("expected", expected.Columns),
			zap.Strings("actual", actual.Columns))
	}

	if report.RowCountMatches {
		v.logger.Debug("Row count verification successful",
			zap.String("table", expected.Name),
			zap.Int("count", report.ActualRowCount))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("table", expected.Name),
			zap.Int("expectedCount", report.ExpectedRowCount),
			zap.Int("actualCount", report.ActualRowCount),
			zap.Int("difference", report.ExpectedRowCount-report.ActualRowCount))
	}

	// Sample records only when the shapes agree
	if report.HeaderMatches && report.RowCountMatches {
		report.SampleSize = calculateSampleSize(report.ExpectedRowCount)
		report.SampleDiscrepancies = compareRecords(expected, actual, report.SampleSize)
	}

	report.Duration = time.Since(startTime)
	return report, nil
}

// VerifyTables verifies every table and returns one report per table
func (v *Verifier) VerifyTables(ctx context.Context, tables []model.OutputTable) ([]*VerificationReport, error) {
	reports := make([]*VerificationReport, 0, len(tables))
	failed := 0
	for _, table := range tables {
		report, err := v.VerifyTable(ctx, table)
		if err != nil {
			return reports, err
		}
		if !report.OK() {
			failed++
		}
		reports = append(reports, report)
	}

	v.logger.Info("Verification completed",
		zap.Int("tables", len(reports)),
		zap.Int("failed", failed))

	return reports, nil
}

// calculateSampleSize determines appropriate sample size based on table size
func calculateSampleSize(rowCount int) int {
	switch {
	case rowCount <= 0:
		return 0
	case rowCount < 100:
		return rowCount // Sample all rows for small tables
	case rowCount < 1000:
		return 100
	case rowCount < 10000:
		return 500
	case rowCount < 100000:
		return 1000
	default:
		return 2000
	}
}

// compareRecords compares size records spread evenly across both tables
func compareRecords(expected, actual model.OutputTable, size int) []RecordDiscrepancy {
	var discrepancies []RecordDiscrepancy
	if size <= 0 {
		return discrepancies
	}

	step := len(expected.Records) / size
	for i := 0; i < size; i++ {
		idx := i * step
		want, got := expected.Records[idx], actual.Records[idx]
		if len(want) != len(got) {
			discrepancies = append(discrepancies, RecordDiscrepancy{
				Record:      idx,
				Expected:    fmt.Sprintf("%d fields", len(want)),
				Actual:      fmt.Sprintf("%d fields", len(got)),
				Discrepancy: "Field count mismatch",
			})
			continue
		}
		for c := range want {
			if want[c] != got[c] {
				discrepancies = append(discrepancies, RecordDiscrepancy{
					Record:      idx,
					ColumnName:  expected.Columns[c],
					Expected:    want[c],
					Actual:      got[c],
					Discrepancy: "Value mismatch",
				})
			}
		}
	}

	return discrepancies
}
