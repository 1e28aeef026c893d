// pkg/graph/relations.go
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/David-Botos/pfas-graph/pkg/converter"
	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Keys read from each pfas_values entry
const (
	keySubstance = "substance"
	keyValue     = "value"
)

// Relations holds the edges extracted from a set of rows
type Relations struct {
	Detections  []model.Detection
	Productions []model.Production
	// Rows whose pfas_values could not be used
	Skipped []model.CleaningOperation
}

// ExtractRelations walks the rows once, emitting detection and production
// edges and adding every referenced substance to set. For each row,
// detection substances are added before the produced substance.
func ExtractRelations(rows []model.CleanRow, set *model.SubstanceSet) Relations {
	var rel Relations

	for _, r := range rows {
		if r.IsMeasurement() {
			detections, err := parseDetections(r)
			if err != nil {
				rel.Skipped = append(rel.Skipped, model.CleaningOperation{
					RowIndex:          r.Index,
					ColumnName:        model.ColPFASValues,
					OriginalValue:     r.Value(model.ColPFASValues),
					CleaningOperation: model.OpPFASValuesSkip,
					CleaningReason:    skipReason(err),
				})
			}
			for _, d := range detections {
				set.Add(d.Substance)
				rel.Detections = append(rel.Detections, d)
			}
		}

		if r.HasPFASProduced {
			substance := strings.TrimSpace(r.PFASProduced)
			set.Add(substance)
			rel.Productions = append(rel.Productions, model.Production{
				SiteID:    r.SiteID,
				Substance: substance,
			})
		}
	}
	return rel
}

type skipError struct {
	reason string
	err    error
}

func (e *skipError) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e *skipError) Unwrap() error {
	return e.err
}

func skipReason(err error) string {
	var se *skipError
	if errors.As(err, &se) {
		return se.reason
	}
	return model.ReasonLiteralError
}

// parseDetections returns all detections of a measurement row, or none on any failure
func parseDetections(r model.CleanRow) ([]model.Detection, error) {
	raw, ok := r.Get(model.ColPFASValues)
	if !ok {
		return nil, nil
	}

	value, err := converter.ParseLiteral(raw)
	if err != nil {
		return nil, &skipError{reason: model.ReasonLiteralError, err: err}
	}
	entries, err := converter.AsRecordList(value)
	if err != nil {
		return nil, &skipError{reason: model.ReasonNotSequence, err: err}
	}

	measID := MeasurementID(r.Index)
	detections := make([]model.Detection, 0, len(entries))
	for _, entry := range entries {
		sub, _ := entry.Get(keySubstance)
		if !converter.Truthy(sub) {
			continue
		}
		d := model.Detection{
			MeasurementID: measID,
			Substance:     converter.Str(sub),
		}
		if v, ok := entry.Get(keyValue); ok && v != nil {
			d.Value = converter.Str(v)
		}
		detections = append(detections, d)
	}
	return detections, nil
}
