// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"

	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// DataCleaner normalizes the details field and assigns site identity and labels
type DataCleaner struct {
	logger *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{
		logger: logger,
	}, nil
}

// CleanRows cleans every row of the table and returns cleaned rows with the fallbacks taken
func (c *DataCleaner) CleanRows(table *model.Table) ([]model.CleanRow, []model.CleaningOperation, error) {
	if table == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	passthrough := make([]string, 0, 3)
	for _, col := range []string{model.ColPFASProduced, model.ColLastChecked, model.ColClosureYear} {
		if table.HasColumn(col) {
			passthrough = append(passthrough, col)
		}
	}

	cleanedRows := make([]model.CleanRow, 0, len(table.Rows))
	var allOperations []model.CleaningOperation

	for _, row := range table.Rows {
		cleanedRow, operation := c.cleanSingleRow(row, passthrough)
		cleanedRows = append(cleanedRows, cleanedRow)
		if operation != nil {
			allOperations = append(allOperations, *operation)
		}
	}

	c.logger.Info("Cleaned rows",
		zap.Int("rows", len(cleanedRows)),
		zap.Int("fallbacks", len(allOperations)))

	return cleanedRows, allOperations, nil
}

// cleanSingleRow normalizes details and assigns identity for one row
func (c *DataCleaner) cleanSingleRow(row model.Row, passthrough []string) (model.CleanRow, *model.CleaningOperation) {
	var operation *model.CleaningOperation

	raw, present := row.Get(model.ColDetails)
	details := model.DefaultDetails()
	if present {
		var err error
		details, err = NormalizeDetails(raw)
		if err != nil {
			operation = &model.CleaningOperation{
				RowIndex:          row.Index,
				ColumnName:        model.ColDetails,
				OriginalValue:     raw,
				CleaningOperation: model.OpDetailsDefault,
				CleaningReason:    detailsReason(err),
			}
			c.logger.Debug("Details fell back to defaults",
				zap.Int("row", row.Index),
				zap.String("reason", operation.CleaningReason),
				zap.Error(err))
		}
	}

	mergeInputColumns(&details, row, passthrough)

	return model.CleanRow{
		Row:     row,
		Details: details,
		Label:   AssignLabel(row.Value(model.ColCategory)),
		SiteID:  SiteID(row),
	}, operation
}

// mergeInputColumns keeps input values for fields the details record leaves absent
func mergeInputColumns(details *model.Details, row model.Row, passthrough []string) {
	for _, col := range passthrough {
		v, ok := row.Get(col)
		if !ok {
			continue
		}
		switch col {
		case model.ColPFASProduced:
			if !details.HasPFASProduced {
				details.SetPFASProduced(v)
			}
		case model.ColLastChecked:
			if details.LastChecked == "" {
				details.LastChecked = v
			}
		case model.ColClosureYear:
			if details.ClosureYear == "" {
				details.ClosureYear = v
			}
		}
	}
}

func detailsReason(err error) string {
	if errors.Is(err, ErrNotMapping) {
		return model.ReasonNotMapping
	}
	return model.ReasonLiteralError
}
