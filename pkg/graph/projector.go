// pkg/graph/projector.go
package graph

import (
	"strconv"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// MeasurementID returns the identifier of the measurement read at a source position
func MeasurementID(index int) string {
	return "meas_" + strconv.Itoa(index)
}

// ProjectSites builds one site per distinct site id; the first row seen wins
func ProjectSites(rows []model.CleanRow) []model.Site {
	seen := make(map[string]struct{}, len(rows))
	sites := make([]model.Site, 0, len(rows))

	for _, r := range rows {
		if _, dup := seen[r.SiteID]; dup {
			continue
		}
		seen[r.SiteID] = struct{}{}

		sites = append(sites, model.Site{
			ID:           r.SiteID,
			Labels:       r.Label,
			Name:         r.Value(model.ColName),
			City:         r.Value(model.ColCity),
			Country:      r.Value(model.ColCountry),
			Status:       r.Status,
			ClosureYear:  r.ClosureYear,
			PFASProduced: r.PFASProduced,
			LastChecked:  r.LastChecked,
			Sector:       r.Value(model.ColSector),
			Lat:          r.Value(model.ColLat),
			Lon:          r.Value(model.ColLon),
		})
	}
	return sites
}

// ProjectMeasurements builds a measurement for every row whose category is exactly "Measurement"
func ProjectMeasurements(rows []model.CleanRow) []model.Measurement {
	var measurements []model.Measurement
	for _, r := range rows {
		if !r.IsMeasurement() {
			continue
		}
		measurements = append(measurements, model.Measurement{
			ID:      MeasurementID(r.Index),
			SiteID:  r.SiteID,
			Date:    r.Value(model.ColDate),
			Matrix:  r.Value(model.ColMatrix),
			PFASSum: r.Value(model.ColPFASSum),
			Unit:    r.Value(model.ColUnit),
		})
	}
	return measurements
}

// ProjectSubstances lists the substances collected while extracting relations
func ProjectSubstances(set *model.SubstanceSet) []model.Substance {
	names := set.Names()
	substances := make([]model.Substance, len(names))
	for i, name := range names {
		substances[i] = model.Substance{Name: name}
	}
	return substances
}
