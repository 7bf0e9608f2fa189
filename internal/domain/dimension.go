package domain

// Dimension is a client-defined categorization axis such as Department.
type Dimension struct {
	ID       int64
	ClientID int64
	Code     string
	Name     string
	Values   []DimensionValue
}

// DimensionValue is one of the ordered values a dimension allows.
type DimensionValue struct {
	ID        int64
	Code      string
	Name      string
	SortOrder int
}

// DimensionTag attaches a dimension value to a journal line.
type DimensionTag struct {
	DimensionCode string `json:"dimensionCode"`
	ValueCode     string `json:"valueCode"`
}

// DimensionCatalog indexes dimensions and their value codes for membership checks.
type DimensionCatalog struct {
	values map[string]map[string]struct{}
}

// NewDimensionCatalog builds a catalog from a snapshot of dimensions.
func NewDimensionCatalog(dimensions []*Dimension) *DimensionCatalog {
	c := &DimensionCatalog{values: make(map[string]map[string]struct{}, len(dimensions))}
	for _, d := range dimensions {
		set := make(map[string]struct{}, len(d.Values))
		for _, v := range d.Values {
			set[v.Code] = struct{}{}
		}
		c.values[d.Code] = set
	}
	return c
}

// HasDimension reports whether the dimension code exists.
func (c *DimensionCatalog) HasDimension(code string) bool {
	_, ok := c.values[code]
	return ok
}

// HasValue reports whether the value code is known for the dimension.
func (c *DimensionCatalog) HasValue(dimensionCode, valueCode string) bool {
	set, ok := c.values[dimensionCode]
	if !ok {
		return false
	}
	_, ok = set[valueCode]
	return ok
}
