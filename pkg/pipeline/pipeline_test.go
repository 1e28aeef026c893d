package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/pfas-graph/pkg/cleaner"
	"github.com/David-Botos/pfas-graph/pkg/connector"
	"github.com/David-Botos/pfas-graph/pkg/converter"
	"github.com/David-Botos/pfas-graph/pkg/graph"
	"github.com/David-Botos/pfas-graph/pkg/model"
	"github.com/David-Botos/pfas-graph/pkg/storage"
)

const inputHeader = "details,category,name,lat,city,country,sector,lon,date,matrix,pfas_sum,unit,pfas_values,pfas_produced\n"

const sampleInput = inputHeader +
	`"Status: Closed, Closed in 2014",Known PFAS user,Acme Plant,45.0,Lyon,France,Chemicals,4.8,,,,,[],PFOA` + "\n" +
	`"{'Status': 'Active', 'PFAS produced': None}",Measurement,Acme Plant,45.0,Lyon,France,Chemicals,4.8,2020-05-01,water,12.5,ng/l,"[{'substance': 'PFOS', 'value': 3.2}, {'substance': 'PFOA', 'value': None}]",` + "\n" +
	`,Measurement,Beta Site,,Oslo,Norway,,,2021,soil,,,not a list,` + "\n"

type stringSource struct {
	data string
	err  error
}

func (s stringSource) Read(ctx context.Context) (*model.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return connector.ReadTable(ctx, strings.NewReader(s.data))
}

func (s stringSource) Location() string {
	return "test.csv"
}

// failingSink fails writes of one table and can tamper with read-back tables
type failingSink struct {
	*connector.StoreSink
	failOn   string
	truncate string
}

func (s *failingSink) WriteTable(ctx context.Context, t model.OutputTable) (storage.Info, error) {
	if t.Name == s.failOn {
		return storage.Info{}, errors.New("disk full")
	}
	return s.StoreSink.WriteTable(ctx, t)
}

func (s *failingSink) ReadTable(ctx context.Context, name string) (model.OutputTable, error) {
	t, err := s.StoreSink.ReadTable(ctx, name)
	if err == nil && name == s.truncate && len(t.Records) > 0 {
		t.Records = t.Records[:len(t.Records)-1]
	}
	return t, err
}

func newTestPipeline(t *testing.T, source connector.Source, sink connector.Sink) *Pipeline {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dc, err := cleaner.NewDataCleaner(logger)
	if err != nil {
		t.Fatalf("NewDataCleaner error: %v", err)
	}
	return NewPipeline(
		source,
		sink,
		converter.NewTypeConverter(logger),
		dc,
		graph.NewBuilder(logger),
		logger,
	).WithRunID("run-1")
}

func newMemorySink(t *testing.T) (*storage.MemoryStore, *connector.StoreSink) {
	store := storage.NewMemoryStore()
	return store, connector.NewStoreSink(store, nil, "run-1", zaptest.NewLogger(t))
}

func mustObject(t *testing.T, store *storage.MemoryStore, key string) string {
	t.Helper()
	b, ok := store.Bytes(key)
	if !ok {
		t.Fatalf("object %s not written", key)
	}
	return string(b)
}

func TestRunEndToEnd(t *testing.T) {
	store, sink := newMemorySink(t)
	p := newTestPipeline(t, stringSource{data: sampleInput}, sink)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.Success || result.RowsRead != 3 || result.MeasurementRows != 2 {
		t.Errorf("result = %+v", result)
	}

	want := map[string]string{
		graph.TableSites: "site_id,node_labels,name,city,country,status,closure_year,pfas_produced,last_checked,sector,lat,lon\n" +
			"acme_plant_45.0,Site:KnownUser,Acme Plant,Lyon,France,Unknown,2014,PFOA,,Chemicals,45.0,4.8\n" +
			"beta_site_oslo,Site,Beta Site,Oslo,Norway,Unknown,,,,,,\n",
		graph.TableMeasurements: "meas_id,site_id,date,matrix,pfas_sum,unit\n" +
			"meas_1,acme_plant_45.0,2020-05-01,water,12.5,ng/l\n" +
			"meas_2,beta_site_oslo,2021,soil,,\n",
		graph.TableSubstances:  "name\nPFOA\nPFOS\n",
		graph.TableDetections:  "meas_id,substance,value\nmeas_1,PFOS,3.2\nmeas_1,PFOA,\n",
		graph.TableProductions: "site_id,substance\nacme_plant_45.0,PFOA\n",
	}
	for name, body := range want {
		if got := mustObject(t, store, name); got != body {
			t.Errorf("%s =\n%s\nwant\n%s", name, got, body)
		}
	}

	if len(result.Tables) != len(graph.TableNames) {
		t.Fatalf("got %d tables, want %d", len(result.Tables), len(graph.TableNames))
	}
	for i, name := range graph.TableNames {
		if result.Tables[i].Name != name {
			t.Errorf("table %d = %s, want %s", i, result.Tables[i].Name, name)
		}
	}
	if tr, ok := result.Table(graph.TableDetections); !ok || tr.Rows != 2 || tr.Bytes == 0 || tr.ETag == "" {
		t.Errorf("detections result = %+v, %v", tr, ok)
	}

	if result.Fallbacks[model.ColDetails] != 1 || result.Fallbacks[model.ColPFASValues] != 1 {
		t.Errorf("fallbacks = %v", result.Fallbacks)
	}
	summary := p.GetErrorSummary()
	if summary[ErrorCategoryParseFallback] != 1 || summary[ErrorCategoryRowLevel] != 1 {
		t.Errorf("error summary = %v", summary)
	}
	if result.SummaryKey != "" {
		t.Errorf("summary written without a key: %q", result.SummaryKey)
	}
}

func TestRunAcmePlant(t *testing.T) {
	// An integer column with a gap is rendered as floats
	input := inputHeader +
		`"Status: Closed, Closed in 2014",Known PFAS user,Acme Plant,45,,,,,,,,,[],PFOA` + "\n" +
		`,Known PFAS user,Other,,Paris,,,,,,,,,` + "\n"

	store, sink := newMemorySink(t)
	if _, err := newTestPipeline(t, stringSource{data: input}, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	sites := mustObject(t, store, graph.TableSites)
	if !strings.Contains(sites, "\nacme_plant_45.0,Site:KnownUser,Acme Plant,,,Unknown,2014,PFOA,,,45.0,\n") {
		t.Errorf("sites =\n%s", sites)
	}
	if got := mustObject(t, store, graph.TableSubstances); got != "name\nPFOA\n" {
		t.Errorf("substances = %q", got)
	}
	if got := mustObject(t, store, graph.TableProductions); got != "site_id,substance\nacme_plant_45.0,PFOA\n" {
		t.Errorf("productions = %q", got)
	}
	if got := mustObject(t, store, graph.TableDetections); got != "meas_id,substance,value\n" {
		t.Errorf("detections = %q", got)
	}
}

func TestRunBlankProducedSubstance(t *testing.T) {
	input := inputHeader +
		`"{'PFAS produced': '  ', 'Status': 'Active'}",Known PFAS user,X Y,,Paris,,,,,,,,[],` + "\n" +
		`,PFAS production facility,Zeta,,Rome,,,,,,,,,PFOA` + "\n"

	store, sink := newMemorySink(t)
	p := newTestPipeline(t, stringSource{data: input}, sink).WithVerification(true)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	want := map[string]string{
		graph.TableSites: "site_id,node_labels,name,city,country,status,closure_year,pfas_produced,last_checked,sector,lat,lon\n" +
			"x_y_paris,Site:KnownUser,X Y,Paris,,Active,,\"  \",,,,\n" +
			"zeta_rome,Site:ProductionFacility,Zeta,Rome,,Unknown,,PFOA,,,,\n",
		graph.TableSubstances:  "name\n\"\"\nPFOA\n",
		graph.TableProductions: "site_id,substance\nx_y_paris,\nzeta_rome,PFOA\n",
	}
	for name, body := range want {
		if got := mustObject(t, store, name); got != body {
			t.Errorf("%s =\n%s\nwant\n%s", name, got, body)
		}
	}
}

func TestRunHeaderOnly(t *testing.T) {
	store, sink := newMemorySink(t)
	p := newTestPipeline(t, stringSource{data: inputHeader}, sink)
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.TotalRows() != 0 {
		t.Errorf("wrote %d records, want 0", result.TotalRows())
	}
	if got := mustObject(t, store, graph.TableSubstances); got != "name\n" {
		t.Errorf("substances = %q", got)
	}
	if got := mustObject(t, store, graph.TableProductions); got != "site_id,substance\n" {
		t.Errorf("productions = %q", got)
	}
	if !result.Success || p.GetErrorSummary()[ErrorCategoryWarning] != 1 {
		t.Errorf("success = %v, errors = %v", result.Success, p.GetErrorSummary())
	}
}

func TestRunAborts(t *testing.T) {
	sentinel := errors.New("no such file")

	tests := []struct {
		name     string
		source   stringSource
		category ErrorCategory
		contains string
	}{
		{"source error", stringSource{err: sentinel}, ErrorCategorySource, "failed to read input"},
		{"missing columns", stringSource{data: "name,lat\nA,1\n"}, ErrorCategorySource, "missing required columns: details, category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, sink := newMemorySink(t)
			p := newTestPipeline(t, tt.source, sink)

			result, err := p.Run(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %v, want it to contain %q", err, tt.contains)
			}
			if result.Success || len(result.Errors) != 1 || result.Errors[0].Category != tt.category {
				t.Errorf("result = %+v", result)
			}
			if p.GetErrorSummary()[tt.category] != 1 {
				t.Errorf("error summary = %v", p.GetErrorSummary())
			}
			infos, _ := store.List(context.Background(), "")
			if len(infos) != 0 {
				t.Errorf("wrote %d objects after abort", len(infos))
			}
		})
	}

	t.Run("wraps source error", func(t *testing.T) {
		_, sink := newMemorySink(t)
		_, err := newTestPipeline(t, stringSource{err: sentinel}, sink).Run(context.Background())
		if !errors.Is(err, sentinel) {
			t.Errorf("error %v does not wrap the source error", err)
		}
	})
}

func TestRunSinkFailure(t *testing.T) {
	store, base := newMemorySink(t)
	sink := &failingSink{StoreSink: base, failOn: graph.TableSubstances}
	p := newTestPipeline(t, stringSource{data: sampleInput}, sink)

	result, err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("error = %v, want disk full", err)
	}
	if len(result.Tables) != 2 {
		t.Errorf("got %d tables written, want 2", len(result.Tables))
	}
	if result.Errors[0].TableName != graph.TableSubstances || result.Errors[0].Category != ErrorCategorySink {
		t.Errorf("error record = %+v", result.Errors[0])
	}
	if _, ok := store.Bytes(graph.TableDetections); ok {
		t.Errorf("tables after the failure were written")
	}
}

func TestRunVerificationAndSummary(t *testing.T) {
	store, sink := newMemorySink(t)
	p := newTestPipeline(t, stringSource{data: sampleInput}, sink).
		WithVerification(true).
		WithSummary("run_summary.yaml")

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	for _, tr := range result.Tables {
		if !tr.Verified {
			t.Errorf("%s not verified", tr.Name)
		}
	}
	if result.SummaryKey != "run_summary.yaml" {
		t.Errorf("summary key = %q", result.SummaryKey)
	}

	summary, err := ParseRunSummary([]byte(mustObject(t, store, "run_summary.yaml")))
	if err != nil {
		t.Fatalf("ParseRunSummary error: %v", err)
	}
	if summary.RunID != "run-1" || summary.Input != "test.csv" || summary.RowsRead != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Tables) != 5 || summary.Tables[2].Name != graph.TableSubstances || summary.Tables[2].Rows != 2 {
		t.Errorf("summary tables = %+v", summary.Tables)
	}
	if !summary.Tables[0].Verified || summary.Tables[0].Checksum == "" {
		t.Errorf("summary table = %+v", summary.Tables[0])
	}
	if summary.Fallbacks[model.ColDetails] != 1 {
		t.Errorf("summary fallbacks = %v", summary.Fallbacks)
	}

	wantSamples := map[string][]ErrorSample{
		"ParseFallback": {{Row: 0, Column: model.ColDetails, Value: "Status: Closed, Closed in 2014", Message: "details_default: literal_syntax"}},
		"RowLevel":      {{Row: 2, Column: model.ColPFASValues, Value: "not a list", Message: "pfas_values_skipped: literal_syntax"}},
	}
	if !reflect.DeepEqual(summary.ErrorSamples, wantSamples) {
		t.Errorf("error samples = %+v", summary.ErrorSamples)
	}
}

func TestRunVerificationMismatch(t *testing.T) {
	_, base := newMemorySink(t)
	sink := &failingSink{StoreSink: base, truncate: graph.TableDetections}
	p := newTestPipeline(t, stringSource{data: sampleInput}, sink).WithVerification(true)

	result, err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "verification failed for "+graph.TableDetections) {
		t.Fatalf("error = %v", err)
	}
	if tr, _ := result.Table(graph.TableSites); !tr.Verified {
		t.Errorf("sites should still be verified")
	}
	if tr, _ := result.Table(graph.TableDetections); tr.Verified {
		t.Errorf("detections should not be verified")
	}
}

func TestRunCancelled(t *testing.T) {
	_, sink := newMemorySink(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestPipeline(t, stringSource{data: sampleInput}, sink).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if result.Success {
		t.Errorf("cancelled run reported success")
	}
}

func TestGenerateReport(t *testing.T) {
	_, sink := newMemorySink(t)
	p := newTestPipeline(t, stringSource{data: sampleInput}, sink)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	report := p.GenerateReport()
	for _, want := range []string{
		"Rows Read:               3",
		"Measurement Rows:        2",
		"- " + graph.TableDetections + ": 2 rows",
		"- details: 1",
		"- pfas_values: 1",
		"- ParseFallback: 1",
		"- RowLevel: 1",
		"- " + StageRead + ":",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
