// pkg/connector/sink.go
package connector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/model"
	"github.com/David-Botos/pfas-graph/pkg/storage"
)

// Metadata keys stamped on every stored object
const (
	MetaRunID = "run-id"
	MetaRows  = "rows"
)

// ContentTypeCSV is the content type of stored tables
const ContentTypeCSV = "text/csv"

// StoreSink writes tables to a storage backend under an optional key prefix
type StoreSink struct {
	store  storage.Store
	keyFor func(name string) string
	runID  string
	logger *zap.Logger
}

// NewStoreSink creates a sink writing to store. keyFor maps object names to
// storage keys; nil stores objects under their name.
func NewStoreSink(store storage.Store, keyFor func(string) string, runID string, logger *zap.Logger) *StoreSink {
	if keyFor == nil {
		keyFor = func(name string) string { return name }
	}
	return &StoreSink{
		store:  store,
		keyFor: keyFor,
		runID:  runID,
		logger: logger,
	}
}

// Location describes the backend and the key of an empty name
func (s *StoreSink) Location() string {
	return fmt.Sprintf("%s:%s", s.store.Driver(), s.keyFor(""))
}

// WriteTable encodes and stores a table, replacing any previous version
func (s *StoreSink) WriteTable(ctx context.Context, table model.OutputTable) (storage.Info, error) {
	body, err := EncodeTable(table)
	if err != nil {
		return storage.Info{}, err
	}

	key := s.keyFor(table.Name)
	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutOptions{
		ContentType: ContentTypeCSV,
		Metadata: map[string]string{
			MetaRunID: s.runID,
			MetaRows:  strconv.Itoa(len(table.Records)),
		},
	})
	if err != nil {
		return storage.Info{}, fmt.Errorf("failed to store %s: %w", key, err)
	}

	s.logger.Info("Wrote table",
		zap.String("key", key),
		zap.Int("rows", len(table.Records)),
		zap.Int64("bytes", info.Size))
	return info, nil
}

// ReadTable loads and decodes a stored table
func (s *StoreSink) ReadTable(ctx context.Context, name string) (model.OutputTable, error) {
	key := s.keyFor(name)
	_, rc, err := s.store.Get(ctx, key)
	if err != nil {
		return model.OutputTable{}, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return model.OutputTable{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return DecodeTable(name, data)
}

// WriteDocument stores body under name
func (s *StoreSink) WriteDocument(ctx context.Context, name string, body []byte, contentType string) (storage.Info, error) {
	key := s.keyFor(name)
	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{MetaRunID: s.runID},
	})
	if err != nil {
		return storage.Info{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	s.logger.Debug("Wrote document", zap.String("key", key), zap.Int64("bytes", info.Size))
	return info, nil
}
