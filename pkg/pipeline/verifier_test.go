package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

type mapReader map[string]model.OutputTable

func (m mapReader) ReadTable(_ context.Context, name string) (model.OutputTable, error) {
	t, ok := m[name]
	if !ok {
		return model.OutputTable{}, errors.New("not found")
	}
	return t, nil
}

func TestVerifyTable(t *testing.T) {
	expected := model.OutputTable{
		Name:    "edges_production_direct.csv",
		Columns: []string{"site_id", "substance"},
		Records: [][]string{{"a_1", "PFOA"}, {"b_2", "PFOS"}},
	}

	tests := []struct {
		name       string
		stored     model.OutputTable
		wantOK     bool
		wantHeader bool
		wantCount  bool
		wantDiffs  int
	}{
		{"identical", expected, true, true, true, 0},
		{
			"value changed",
			model.OutputTable{Columns: expected.Columns, Records: [][]string{{"a_1", "PFOA"}, {"b_2", "PFNA"}}},
			false, true, true, 1,
		},
		{
			"record dropped",
			model.OutputTable{Columns: expected.Columns, Records: expected.Records[:1]},
			false, true, false, 0,
		},
		{
			"header changed",
			model.OutputTable{Columns: []string{"site", "substance"}, Records: expected.Records},
			false, false, true, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(mapReader{expected.Name: tt.stored}, zaptest.NewLogger(t))
			report, err := v.VerifyTable(context.Background(), expected)
			if err != nil {
				t.Fatalf("VerifyTable error: %v", err)
			}
			if report.OK() != tt.wantOK || report.HeaderMatches != tt.wantHeader || report.RowCountMatches != tt.wantCount {
				t.Errorf("report = %+v", report)
			}
			if len(report.SampleDiscrepancies) != tt.wantDiffs {
				t.Errorf("discrepancies = %+v", report.SampleDiscrepancies)
			}
		})
	}
}

func TestVerifyTablesReadError(t *testing.T) {
	v := NewVerifier(mapReader{}, zaptest.NewLogger(t))
	_, err := v.VerifyTables(context.Background(), []model.OutputTable{{Name: "nodes_substances.csv"}})
	if err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestCalculateSampleSize(t *testing.T) {
	tests := map[int]int{0: 0, 1: 1, 99: 99, 100: 100, 5000: 500, 50000: 1000, 500000: 2000}
	for rows, want := range tests {
		if got := calculateSampleSize(rows); got != want {
			t.Errorf("calculateSampleSize(%d) = %d, want %d", rows, got, want)
		}
	}
}

func TestCompareRecordsSpreadsSample(t *testing.T) {
	expected := model.OutputTable{Columns: []string{"name"}}
	actual := model.OutputTable{Columns: []string{"name"}}
	for i := 0; i < 300; i++ {
		expected.Records = append(expected.Records, []string{"x"})
		actual.Records = append(actual.Records, []string{"x"})
	}
	// Record 297 is the last one sampled with 100 samples over 300 records
	actual.Records[297] = []string{"y"}
	actual.Records[298] = []string{"y"}

	diffs := compareRecords(expected, actual, 100)
	if len(diffs) != 1 || diffs[0].Record != 297 || diffs[0].ColumnName != "name" {
		t.Errorf("diffs = %+v", diffs)
	}
}

func TestMetricsToYAML(t *testing.T) {
	m := NewRunMetrics(zaptest.NewLogger(t))
	m.RecordRead(3, 2)
	m.RecordCleaned(3, 2)
	m.RecordFallback(model.CleaningOperation{ColumnName: model.ColDetails})
	m.RecordFallback(model.CleaningOperation{ColumnName: model.ColPFASValues, CleaningOperation: model.OpPFASValuesSkip})
	m.RecordTable("nodes_substances.csv", 2, 20)
	m.RecordError(ErrorCategorySink)
	m.RecordStage(StageRead, 0)
	m.Complete()

	data, err := m.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML error: %v", err)
	}
	var out struct {
		RowsRead     int            `yaml:"rows_read"`
		BytesWritten int64          `yaml:"bytes_written"`
		TableRows    map[string]int `yaml:"table_rows"`
		Fallbacks    map[string]int `yaml:"fallbacks_by_column"`
		ErrorCounts  map[string]int `yaml:"error_counts"`
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("yaml.Unmarshal error: %v", err)
	}
	if out.RowsRead != 3 || out.BytesWritten != 20 || out.TableRows["nodes_substances.csv"] != 2 {
		t.Errorf("decoded = %+v", out)
	}
	if out.Fallbacks["details"] != 1 || out.ErrorCounts["ParseFallback"] != 1 || out.ErrorCounts["RowLevel"] != 1 || out.ErrorCounts["Sink"] != 1 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatBytes(512); got != "512 B" {
		t.Errorf("formatBytes(512) = %q", got)
	}
	if got := formatBytes(2048); got != "2.00 KB" {
		t.Errorf("formatBytes(2048) = %q", got)
	}
	if got := getPercentage(1, 0); got != 0 {
		t.Errorf("getPercentage(1, 0) = %v", got)
	}
}
