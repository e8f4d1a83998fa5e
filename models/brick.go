package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Hub is the factory coordinate a brick type ships from.
type Hub struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// BrickType is one product of the static catalog.
type BrickType struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Recommended bool            `json:"recommended"`
	Hub         Hub             `json:"hub"`
}

// Catalog maps brick codes to brick types.
type Catalog map[string]BrickType

// Lookup returns the brick type for code.
func (c Catalog) Lookup(code string) (BrickType, bool) {
	b, ok := c[code]
	return b, ok
}

// List returns the catalog ordered with recommended bricks first, then by code.
func (c Catalog) List() []BrickType {
	out := make([]BrickType, 0, len(c))
	for _, b := range c {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Recommended != out[j].Recommended {
			return out[i].Recommended
		}
		return out[i].Code < out[j].Code
	})
	return out
}

const (
	BrickHighGrade = "101"
	BrickCMSpecial = "cm"
	BrickStandard  = "nts"
)

// DefaultCatalog is the product line sold through the booking form.
var DefaultCatalog = Catalog{
	BrickHighGrade: {
		Code:        BrickHighGrade,
		Name:        "101 High Grade",
		Description: "Machine-pressed, kiln-fired first class brick for load-bearing walls.",
		BasePrice:   decimal.NewFromInt(16),
		Recommended: true,
		Hub:         Hub{Name: "Harisiddhi kiln", Lat: 27.6403, Lng: 85.3437},
	},
	BrickCMSpecial: {
		Code:        BrickCMSpecial,
		Name:        "C.M. Special",
		Description: "Uniform chimney-kiln brick, good finish for exposed masonry.",
		BasePrice:   decimal.NewFromInt(14),
		Hub:         Hub{Name: "Bhaktapur kiln", Lat: 27.6710, Lng: 85.4298},
	},
	BrickStandard: {
		Code:        BrickStandard,
		Name:        "N.T.S. Standard",
		Description: "Economy brick for partition and boundary walls.",
		BasePrice:   decimal.NewFromInt(12),
		Hub:         Hub{Name: "Thimi kiln", Lat: 27.6794, Lng: 85.3880},
	},
}
