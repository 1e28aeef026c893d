package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/cleaner"
	"github.com/David-Botos/pfas-graph/pkg/config"
	"github.com/David-Botos/pfas-graph/pkg/connector"
	"github.com/David-Botos/pfas-graph/pkg/converter"
	"github.com/David-Botos/pfas-graph/pkg/graph"
	"github.com/David-Botos/pfas-graph/pkg/pipeline"
	"github.com/David-Botos/pfas-graph/pkg/storage"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pfas-graph: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pfas-graph",
		Usage: "turn a PFAS site CSV into graph node and edge tables",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "env-file", Usage: "load environment variables from `FILE` (default ./.env when present)"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: config.DefaultInputPath, Usage: "input CSV `PATH`"},
			&cli.StringFlag{Name: "output-driver", Value: string(storage.DriverFilesystem), Usage: "output storage: fs, s3 or memory"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Value: ".", Usage: "output `DIR` for the fs driver"},
			&cli.StringFlag{Name: "output-prefix", Usage: "key `PREFIX` for every output object"},
			&cli.StringFlag{Name: "s3-bucket", Usage: "S3 `BUCKET` for the s3 driver"},
			&cli.StringFlag{Name: "s3-region", Value: storage.DefaultS3Region, Usage: "S3 `REGION`"},
			&cli.StringFlag{Name: "s3-endpoint", Usage: "custom S3 endpoint `URL`, e.g. MinIO"},
			&cli.BoolFlag{Name: "s3-path-style", Usage: "use path-style S3 addressing"},
			&cli.StringFlag{Name: "summary-key", Usage: "write a YAML run summary under `NAME`"},
			&cli.BoolFlag{Name: "verify", Usage: "read every table back after writing it"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Value: "json", Usage: "json or console"},
			&cli.BoolFlag{Name: "report", Usage: "print the metrics report when the run ends"},
		},
		Action: runAction,
	}
}

// applyFlags copies explicitly set flags over the environment configuration
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("input") {
		cfg.InputPath = c.String("input")
	}
	if c.IsSet("output-driver") {
		cfg.Output.Driver = c.String("output-driver")
	}
	if c.IsSet("output-dir") {
		cfg.Output.Dir = c.String("output-dir")
	}
	if c.IsSet("output-prefix") {
		cfg.Output.Prefix = c.String("output-prefix")
	}
	if c.IsSet("s3-bucket") {
		cfg.Output.S3.Bucket = c.String("s3-bucket")
	}
	if c.IsSet("s3-region") {
		cfg.Output.S3.Region = c.String("s3-region")
	}
	if c.IsSet("s3-endpoint") {
		cfg.Output.S3.Endpoint = c.String("s3-endpoint")
	}
	if c.IsSet("s3-path-style") {
		cfg.Output.S3.PathStyle = c.Bool("s3-path-style")
	}
	if c.IsSet("summary-key") {
		cfg.SummaryKey = c.String("summary-key")
	}
	if c.IsSet("verify") {
		cfg.Verify = c.Bool("verify")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.LoadConfigWithOverrides(func(cfg *config.Config) {
		applyFlags(c, cfg)
	}, c.StringSlice("env-file")...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := config.NewLoggerFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	p, err := newPipeline(c.Context, cfg, logger)
	if err != nil {
		logger.Error("Failed to set up run", zap.Error(err))
		return err
	}

	result, err := p.Run(c.Context)
	if c.Bool("report") {
		fmt.Fprint(c.App.Writer, p.GenerateReport())
	}
	if err != nil {
		logger.Error("Run failed", zap.String("runID", p.RunID()), zap.Error(err))
		return err
	}

	logger.Info("Wrote graph tables",
		zap.String("runID", result.RunID),
		zap.String("output", result.Output),
		zap.Int("tables", len(result.Tables)))
	return nil
}

// newPipeline wires the source, sink and stages described by cfg
func newPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	runID := pipeline.NewRunID()
	runLogger := logger.With(zap.String("runID", runID))

	factory := connector.NewConnectorFactory(cfg, runLogger.Named("connector"))
	source, sink, err := factory.CreateAll(ctx, runID)
	if err != nil {
		return nil, err
	}

	dataCleaner, err := cleaner.NewDataCleaner(runLogger.Named("cleaner"))
	if err != nil {
		return nil, err
	}

	p := pipeline.NewPipeline(
		source,
		sink,
		converter.NewTypeConverter(runLogger.Named("converter")),
		dataCleaner,
		graph.NewBuilder(runLogger.Named("graph")),
		logger.Named("pipeline"),
	)

	return p.WithRunID(runID).
		WithVerification(cfg.Verify).
		WithSummary(cfg.SummaryKey), nil
}
