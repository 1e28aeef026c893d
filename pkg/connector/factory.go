// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/config"
	"github.com/David-Botos/pfas-graph/pkg/storage"
)

// ConnectorFactory creates the input source and output sink from configuration
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource creates the CSV source for the configured input path
func (f *ConnectorFactory) CreateSource() *CSVSource {
	f.logger.Info("Creating CSV source", zap.String("path", f.cfg.InputPath))
	return NewCSVSource(f.cfg.InputPath, f.logger.Named("csv-source"))
}

// CreateSink opens the configured storage backend and wraps it in a sink
func (f *ConnectorFactory) CreateSink(ctx context.Context, runID string) (*StoreSink, error) {
	f.logger.Info("Creating output sink",
		zap.String("driver", f.cfg.Output.Driver),
		zap.String("prefix", f.cfg.Output.Prefix))

	store, err := storage.Open(ctx, f.cfg.Output.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", f.cfg.Output.Driver, err)
	}

	return NewStoreSink(store, f.cfg.Output.Key, runID, f.logger.Named("sink")), nil
}

// CreateAll creates both the source and the sink
func (f *ConnectorFactory) CreateAll(ctx context.Context, runID string) (*CSVSource, *StoreSink, error) {
	sink, err := f.CreateSink(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return f.CreateSource(), sink, nil
}
