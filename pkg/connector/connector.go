// pkg/connector/connector.go
package connector

import (
	"context"

	"github.com/David-Botos/pfas-graph/pkg/model"
	"github.com/David-Botos/pfas-graph/pkg/storage"
)

// Source reads the input table
type Source interface {
	// Read loads the full table; rows carry their zero-based input position
	Read(ctx context.Context) (*model.Table, error)

	// Location describes where the table is read from
	Location() string
}

// Sink stores output tables and auxiliary documents
type Sink interface {
	// WriteTable encodes a table as CSV and stores it under the table's name
	WriteTable(ctx context.Context, table model.OutputTable) (storage.Info, error)

	// ReadTable loads a previously written table back
	ReadTable(ctx context.Context, name string) (model.OutputTable, error)

	// WriteDocument stores an arbitrary document under name
	WriteDocument(ctx context.Context, name string, body []byte, contentType string) (storage.Info, error)

	// Location describes where objects are stored
	Location() string
}
