package graph

import (
	"go.uber.org/zap"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Builder projects cleaned rows into entity and relationship tables
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a graph builder
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build projects entities and extracts relationships from the cleaned rows.
// The returned operations describe measurement rows whose detections were skipped.
func (b *Builder) Build(rows []model.CleanRow) (*model.Graph, []model.CleaningOperation) {
	g := model.NewGraph()
	g.Sites = ProjectSites(rows)
	g.Measurements = ProjectMeasurements(rows)

	rel := ExtractRelations(rows, g.Substances)
	g.Detections = rel.Detections
	g.Productions = rel.Productions

	for _, op := range rel.Skipped {
		b.logger.Debug("Skipped pfas_values",
			zap.Int("row", op.RowIndex),
			zap.String("reason", op.CleaningReason))
	}

	b.logger.Info("Built graph tables",
		zap.Int("sites", len(g.Sites)),
		zap.Int("measurements", len(g.Measurements)),
		zap.Int("substances", g.Substances.Len()),
		zap.Int("detections", len(g.Detections)),
		zap.Int("productions", len(g.Productions)),
		zap.Int("skippedRows", len(rel.Skipped)))

	return g, rel.Skipped
}
