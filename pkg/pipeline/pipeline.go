package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/cleaner"
	"github.com/David-Botos/pfas-graph/pkg/connector"
	"github.com/David-Botos/pfas-graph/pkg/converter"
	"github.com/David-Botos/pfas-graph/pkg/graph"
	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Pipeline orchestrates one run: read the input table, normalize and clean
// it, build the graph and write the five output tables to the sink.
type Pipeline struct {
	source        connector.Source
	sink          connector.Sink
	typeConverter *converter.TypeConverter
	dataCleaner   *cleaner.DataCleaner
	builder       *graph.Builder
	verifier      *Verifier
	errorHandler  *ErrorHandler
	metrics       *RunMetrics
	logger        *zap.Logger
	runID         string
	summaryKey    string
}

// NewPipeline creates a pipeline with a fresh run id
func NewPipeline(
	source connector.Source,
	sink connector.Sink,
	typeConverter *converter.TypeConverter,
	dataCleaner *cleaner.DataCleaner,
	builder *graph.Builder,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		source:        source,
		sink:          sink,
		typeConverter: typeConverter,
		dataCleaner:   dataCleaner,
		builder:       builder,
		errorHandler:  NewErrorHandler(logger.Named("errors")),
		metrics:       NewRunMetrics(logger.Named("metrics")),
		logger:        logger,
		runID:         NewRunID(),
	}
}

// WithRunID overrides the generated run id
func (p *Pipeline) WithRunID(runID string) *Pipeline {
	p.runID = runID
	return p
}

// WithVerification enables reading every table back after it is written
func (p *Pipeline) WithVerification(enabled bool) *Pipeline {
	if enabled {
		p.verifier = NewVerifier(p.sink, p.logger.Named("verifier"))
	} else {
		p.verifier = nil
	}
	return p
}

// WithSummary stores a YAML run summary under name; empty disables it
func (p *Pipeline) WithSummary(name string) *Pipeline {
	p.summaryKey = name
	return p
}

// RunID returns the id stamped on this run's logs and objects
func (p *Pipeline) RunID() string {
	return p.runID
}

// GetMetrics returns the run metrics
func (p *Pipeline) GetMetrics() *RunMetrics {
	return p.metrics
}

// GetErrorSummary returns error counts by category
func (p *Pipeline) GetErrorSummary() map[ErrorCategory]int {
	return p.errorHandler.GetErrorSummary()
}

// GenerateReport returns the plain-text metrics report
func (p *Pipeline) GenerateReport() string {
	return p.metrics.GenerateMetricsReport()
}

// Run executes the pipeline. Row-level parse failures are absorbed and
// counted; source, sink and verification failures abort the run and are
// returned together with the partial result.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	result := NewRunResult(p.runID, p.source.Location(), p.sink.Location())
	logger := p.logger.With(zap.String("runID", p.runID))

	logger.Info("Starting run",
		zap.String("input", result.Input),
		zap.String("output", result.Output))

	// 1. Read the input table
	stop := p.metrics.TimeStage(StageRead)
	table, err := p.source.Read(ctx)
	stop()
	if err != nil {
		return p.abort(result, ErrorCategorySource, WrapError(err, "failed to read input"))
	}

	if missing := table.MissingColumns(model.RequiredColumns); len(missing) > 0 {
		err := fmt.Errorf("input %s is missing required columns: %s", result.Input, strings.Join(missing, ", "))
		return p.abort(result, ErrorCategorySource, err)
	}
	result.RowsRead = len(table.Rows)
	if result.RowsRead == 0 {
		p.warn(fmt.Errorf("input %s has no data rows", result.Input))
	}

	// 2. Null tokens and numeric columns
	stop = p.metrics.TimeStage(StageNormalize)
	kinds := p.typeConverter.NormalizeTable(table)
	stop()
	numeric := 0
	for _, kind := range kinds {
		if kind != converter.KindText {
			numeric++
		}
	}
	p.metrics.RecordRead(len(table.Rows), numeric)

	// 3. Details, identity and labels
	stop = p.metrics.TimeStage(StageClean)
	rows, fallbacks, err := p.dataCleaner.CleanRows(table)
	stop()
	if err != nil {
		return p.abort(result, ErrorCategoryCritical, WrapError(err, "failed to clean rows"))
	}

	// 4. Entities and relationships
	stop = p.metrics.TimeStage(StageBuild)
	g, skipped := p.builder.Build(rows)
	stop()

	for _, op := range append(fallbacks, skipped...) {
		p.recordFallback(result, op)
	}
	result.MeasurementRows = len(g.Measurements)
	p.metrics.RecordCleaned(len(rows), len(g.Measurements))

	// 5. Output tables
	tables := graph.Tables(g)
	stop = p.metrics.TimeStage(StageWrite)
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			stop()
			return p.abort(result, ErrorCategoryCritical, WrapError(err, "run cancelled"))
		}
		info, err := p.sink.WriteTable(ctx, t)
		if err != nil {
			stop()
			record := NewErrorRecord(WrapError(err, "failed to write "+t.Name), ErrorCategorySink).WithTable(t.Name)
			return p.abortWith(result, record)
		}
		result.AddTable(TableResult{
			Name:  t.Name,
			Key:   info.Key,
			Rows:  len(t.Records),
			Bytes: info.Size,
			ETag:  info.ETag,
		})
		p.metrics.RecordTable(t.Name, len(t.Records), info.Size)
	}
	stop()

	// 6. Optional read-back verification
	if p.verifier != nil {
		stop = p.metrics.TimeStage(StageVerify)
		err := p.verify(ctx, result, tables)
		stop()
		if err != nil {
			return p.abort(result, ErrorCategorySink, err)
		}
	}

	result.Complete(true)

	// 7. Optional run summary
	if p.summaryKey != "" {
		stop = p.metrics.TimeStage(StageSummary)
		err := p.writeSummary(ctx, result)
		stop()
		if err != nil {
			return p.abort(result, ErrorCategorySink, err)
		}
	}

	p.metrics.Complete()

	logger.Info("Run completed",
		zap.Int("rowsRead", result.RowsRead),
		zap.Int("measurementRows", result.MeasurementRows),
		zap.Int("tables", len(result.Tables)),
		zap.Int("recordsWritten", result.TotalRows()),
		zap.Int64("bytesWritten", result.TotalBytes()),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (p *Pipeline) warn(err error) {
	p.metrics.RecordError(ErrorCategoryWarning)
	p.errorHandler.HandleError(NewErrorRecord(err, ErrorCategoryWarning))
}

func (p *Pipeline) recordFallback(result *RunResult, op model.CleaningOperation) {
	result.AddFallback(op.ColumnName)
	p.metrics.RecordFallback(op)
	p.errorHandler.HandleError(FromCleaningOperation(op))
}

func (p *Pipeline) verify(ctx context.Context, result *RunResult, tables []model.OutputTable) error {
	reports, err := p.verifier.VerifyTables(ctx, tables)
	if err != nil {
		return WrapError(err, "verification failed")
	}

	var failed []string
	for _, report := range reports {
		if report.OK() {
			result.MarkVerified(report.Table)
			continue
		}
		failed = append(failed, report.Table)
	}
	if len(failed) > 0 {
		return fmt.Errorf("verification failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

func (p *Pipeline) writeSummary(ctx context.Context, result *RunResult) error {
	data, err := NewRunSummary(result).
		WithErrorSamples(p.errorHandler.GetErrorSamples()).
		ToYAML()
	if err != nil {
		return err
	}
	info, err := p.sink.WriteDocument(ctx, p.summaryKey, data, ContentTypeYAML)
	if err != nil {
		return WrapError(err, "failed to write run summary")
	}
	result.SummaryKey = info.Key
	return nil
}

func (p *Pipeline) abort(result *RunResult, category ErrorCategory, err error) (*RunResult, error) {
	return p.abortWith(result, NewErrorRecord(err, category))
}

func (p *Pipeline) abortWith(result *RunResult, record ErrorRecord) (*RunResult, error) {
	result.AddError(record)
	p.metrics.RecordError(record.Category)
	p.errorHandler.HandleError(record)
	result.Complete(false)
	p.metrics.Complete()
	return result, record.Error
}
