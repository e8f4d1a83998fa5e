package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is Earth's radius in kilometres for the haversine calculation.
const EarthRadiusKm = 6371.0

// Coordinate is a point on the globe in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Validate checks that c lies within latitude [-90,90] and longitude [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("coordinate is not finite")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", c.Lng)
	}
	return nil
}

// HaversineKm calculates the great-circle distance between two points
// on Earth in kilometres using the Haversine formula.
func HaversineKm(from, to Coordinate) float64 {
	const degToRad = math.Pi / 180
	dLat := (to.Lat - from.Lat) * degToRad
	dLng := (to.Lng - from.Lng) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(from.Lat*degToRad)*math.Cos(to.Lat*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// correctionBands maps great-circle distance to the road indirection factor.
// Each band applies from its lower edge up to the next band's lower edge.
var correctionBands = []struct {
	from   float64
	factor float64
}{
	{0, 4.8},
	{2, 4.1},
	{5, 1.7},
	{15, 1.8},
	{25, 2.1},
}

// CorrectionFactor returns the factor applied to a great-circle distance (km)
// to approximate the road distance. Quoted prices depend on these exact edges.
func CorrectionFactor(greatCircleKm float64) float64 {
	k := correctionBands[0].factor
	for _, b := range correctionBands {
		if greatCircleKm >= b.from {
			k = b.factor
		}
	}
	return k
}

// RoadDistanceKm applies the correction factor to a great-circle distance.
func RoadDistanceKm(greatCircleKm float64) float64 {
	return greatCircleKm * CorrectionFactor(greatCircleKm)
}

// EstimateRoadDistance estimates the road distance in kilometres between two
// coordinates. It is a heuristic over the straight line, not a routing query.
func EstimateRoadDistance(from, to Coordinate) float64 {
	return RoadDistanceKm(HaversineKm(from, to))
}
