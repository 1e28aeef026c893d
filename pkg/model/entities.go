package model

// Site is a deduplicated facility or location node
type Site struct {
	ID           string
	Labels       string
	Name         string
	City         string
	Country      string
	Status       string
	ClosureYear  string
	PFASProduced string
	LastChecked  string
	Sector       string
	Lat          string
	Lon          string
}

// Measurement is a sampling event at a site
type Measurement struct {
	ID      string
	SiteID  string // Not validated against the site table
	Date    string
	Matrix  string
	PFASSum string
	Unit    string
}

// Substance is a named chemical node
type Substance struct {
	Name string
}

// Detection links a measurement to a substance found in it
type Detection struct {
	MeasurementID string
	Substance     string
	Value         string // "" when the entry carried no value
}

// Production links a site to a substance it declares to produce
type Production struct {
	SiteID    string
	Substance string
}

// Graph is the full set of node and edge tables produced by one run
type Graph struct {
	Sites        []Site
	Measurements []Measurement
	Substances   *SubstanceSet
	Detections   []Detection
	Productions  []Production
}

// NewGraph returns an empty graph with an initialized substance set
func NewGraph() *Graph {
	return &Graph{Substances: NewSubstanceSet()}
}

// SubstanceSet is an insertion-ordered set of substance names
type SubstanceSet struct {
	names []string
	seen  map[string]struct{}
}

// NewSubstanceSet creates an empty set
func NewSubstanceSet() *SubstanceSet {
	return &SubstanceSet{seen: make(map[string]struct{})}
}

// Add inserts a name, returning false if it was already present
func (s *SubstanceSet) Add(name string) bool {
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Len returns the number of distinct names
func (s *SubstanceSet) Len() int {
	return len(s.names)
}

// Names returns the names in first-insertion order
func (s *SubstanceSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// OutputTable is a rendered table ready to be encoded and stored
type OutputTable struct {
	Name    string // File name, e.g. "nodes_sites_clean.csv"
	Columns []string
	Records [][]string
}
