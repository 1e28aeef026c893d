// pkg/graph/tables.go
package graph

import (
	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Output table names
const (
	TableSites        = "nodes_sites_clean.csv"
	TableMeasurements = "nodes_measurements.csv"
	TableSubstances   = "nodes_substances.csv"
	TableDetections   = "edges_detections.csv"
	TableProductions  = "edges_production_direct.csv"
)

// Output headers
var (
	SiteColumns = []string{
		"site_id", "node_labels", "name", "city", "country", "status",
		"closure_year", "pfas_produced", "last_checked", "sector", "lat", "lon",
	}
	MeasurementColumns = []string{"meas_id", "site_id", "date", "matrix", "pfas_sum", "unit"}
	SubstanceColumns   = []string{"name"}
	DetectionColumns   = []string{"meas_id", "substance", "value"}
	ProductionColumns  = []string{"site_id", "substance"}
)

// TableNames lists the output tables in write order
var TableNames = []string{TableSites, TableMeasurements, TableSubstances, TableDetections, TableProductions}

// Tables renders the graph into its five output tables, in write order.
// Every table carries its header, even when it has no records.
func Tables(g *model.Graph) []model.OutputTable {
	sites := model.OutputTable{Name: TableSites, Columns: SiteColumns, Records: make([][]string, 0, len(g.Sites))}
	for _, s := range g.Sites {
		sites.Records = append(sites.Records, []string{
			s.ID, s.Labels, s.Name, s.City, s.Country, s.Status,
			s.ClosureYear, s.PFASProduced, s.LastChecked, s.Sector, s.Lat, s.Lon,
		})
	}

	measurements := model.OutputTable{Name: TableMeasurements, Columns: MeasurementColumns, Records: make([][]string, 0, len(g.Measurements))}
	for _, m := range g.Measurements {
		measurements.Records = append(measurements.Records, []string{m.ID, m.SiteID, m.Date, m.Matrix, m.PFASSum, m.Unit})
	}

	nodes := ProjectSubstances(g.Substances)
	substances := model.OutputTable{Name: TableSubstances, Columns: SubstanceColumns, Records: make([][]string, 0, len(nodes))}
	for _, s := range nodes {
		substances.Records = append(substances.Records, []string{s.Name})
	}

	detections := model.OutputTable{Name: TableDetections, Columns: DetectionColumns, Records: make([][]string, 0, len(g.Detections))}
	for _, d := range g.Detections {
		detections.Records = append(detections.Records, []string{d.MeasurementID, d.Substance, d.Value})
	}

	productions := model.OutputTable{Name: TableProductions, Columns: ProductionColumns, Records: make([][]string, 0, len(g.Productions))}
	for _, p := range g.Productions {
		productions.Records = append(productions.Records, []string{p.SiteID, p.Substance})
	}

	return []model.OutputTable{sites, measurements, substances, detections, productions}
}
