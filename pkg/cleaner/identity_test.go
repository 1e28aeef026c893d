package cleaner

import (
	"testing"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

func TestAssignLabel(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"PFAS Production Facility", LabelProductionFacility},
		{"Known PFAS user", LabelKnownUser},
		{"Presumptive contamination", LabelPresumptiveSite},
		{"production facility and known pfas user", LabelProductionFacility},
		{"Presumptive production facility", LabelProductionFacility},
		{"PRODUCTION FACILITY (presumptive)", LabelProductionFacility},
		{"known pfas user, presumptive", LabelKnownUser},
		{"Measurement", LabelSite},
		{"", LabelSite},
	}
	for _, tt := range tests {
		if got := AssignLabel(tt.category); got != tt.want {
			t.Errorf("AssignLabel(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestSiteID(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"lat preferred", map[string]string{"name": "Acme Plant", "lat": "45.0", "city": "Lyon"}, "acme_plant_45.0"},
		{"city fallback", map[string]string{"name": "Acme Plant", "city": "Saint Fons"}, "acme_plant_saint_fons"},
		{"no locator", map[string]string{"name": "Acme"}, "acme_none"},
		{"nothing", map[string]string{}, "none_none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := model.NewRow(0)
			for k, v := range tt.values {
				row.Values[k] = v
			}
			if got := SiteID(row); got != tt.want {
				t.Errorf("SiteID() = %q, want %q", got, tt.want)
			}
		})
	}
}
