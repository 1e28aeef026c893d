// pkg/connector/csv.go
package connector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// ctxCheckInterval is how many records are read between cancellation checks
const ctxCheckInterval = 10000

// CSVSource reads the input table from a local CSV file
type CSVSource struct {
	path   string
	logger *zap.Logger
}

// NewCSVSource creates a source for the CSV file at path
func NewCSVSource(path string, logger *zap.Logger) *CSVSource {
	return &CSVSource{
		path:   path,
		logger: logger,
	}
}

// Location returns the file path
func (s *CSVSource) Location() string {
	return s.path
}

// Read opens and decodes the whole file
func (s *CSVSource) Read(ctx context.Context) (*model.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	table, err := ReadTable(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	table.Source = s.path

	s.logger.Info("Read input table",
		zap.String("path", s.path),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)))

	return table, nil
}

// ReadTable decodes CSV with a header row. A byte order mark is dropped,
// short records leave their trailing cells absent and extra fields are ignored.
// Repeated header names are renamed name.1, name.2, ...
func ReadTable(ctx context.Context, r io.Reader) (*model.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("input has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &model.Table{Columns: dedupeHeader(header)}
	for index := 0; ; index++ {
		if index%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", index, err)
		}

		row := model.NewRow(index)
		for i, col := range table.Columns {
			if i >= len(record) {
				break
			}
			row.Values[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func dedupeHeader(header []string) []string {
	taken := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		candidate := name
		for taken[candidate] {
			counts[name]++
			candidate = name + "." + strconv.Itoa(counts[name])
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

// EncodeTable renders a table as CSV with a header row
func EncodeTable(table model.OutputTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range table.Records {
		// csv.Writer emits a bare newline here, which readers skip as a blank line
		if len(record) == 1 && record[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write records: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write records: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeTable parses CSV written by EncodeTable
func DecodeTable(name string, data []byte) (model.OutputTable, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return model.OutputTable{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if len(records) == 0 {
		return model.OutputTable{}, fmt.Errorf("%s has no header row", name)
	}
	return model.OutputTable{Name: name, Columns: records[0], Records: records[1:]}, nil
}
