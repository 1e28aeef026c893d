package cleaner

import (
	"strings"

	"github.com/David-Botos/pfas-graph/pkg/model"
)

// Node labels
const (
	LabelSite               = "Site"
	LabelProductionFacility = "Site:ProductionFacility"
	LabelKnownUser          = "Site:KnownUser"
	LabelPresumptiveSite    = "Site:PresumptiveSite"
)

// absentPart stands in for a missing name, lat or city in a site id
const absentPart = "none"

var labelRules = []struct {
	needle string
	label  string
}{
	{"production facility", LabelProductionFacility},
	{"known pfas user", LabelKnownUser},
	{"presumptive", LabelPresumptiveSite},
}

// AssignLabel maps a category to node labels; the first matching rule wins
func AssignLabel(category string) string {
	lower := strings.ToLower(category)
	for _, rule := range labelRules {
		if strings.Contains(lower, rule.needle) {
			return rule.label
		}
	}
	return LabelSite
}

// SiteID builds "<name>_<lat or city>" with spaces replaced by underscores, lowercased
func SiteID(row model.Row) string {
	name := partOrAbsent(row, model.ColName)
	locator, ok := row.Get(model.ColLat)
	if !ok {
		locator = partOrAbsent(row, model.ColCity)
	}
	id := name + "_" + locator
	return strings.ToLower(strings.ReplaceAll(id, " ", "_"))
}

func partOrAbsent(row model.Row, col string) string {
	if v, ok := row.Get(col); ok {
		return v
	}
	return absentPart
}
