package geo

import (
	"math"
	"testing"
)

var (
	kathmandu = Coordinate{Lat: 27.7172, Lng: 85.3240}
	bhaktapur = Coordinate{Lat: 27.6710, Lng: 85.4298}
)

func TestHaversineKm_ZeroDistance(t *testing.T) {
	d := HaversineKm(kathmandu, kathmandu)
	if d < 0 || d > 1e-9 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineKm_KnownPair(t *testing.T) {
	// Kathmandu Durbar area to Bhaktapur is roughly 11.5 km as the crow flies.
	d := HaversineKm(kathmandu, bhaktapur)
	if d < 11 || d > 12 {
		t.Fatalf("HaversineKm = %v, want about 11.5", d)
	}
	if back := HaversineKm(bhaktapur, kathmandu); math.Abs(back-d) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", d, back)
	}
}

func TestHaversineKm_OneDegreeAtEquator(t *testing.T) {
	d := HaversineKm(Coordinate{0, 0}, Coordinate{0, 1})
	want := EarthRadiusKm * math.Pi / 180
	if math.Abs(d-want) > 1e-9 {
		t.Fatalf("HaversineKm = %v, want %v", d, want)
	}
}

func TestCorrectionFactor_BandEdges(t *testing.T) {
	tests := []struct {
		d    float64
		want float64
	}{
		{0, 4.8},
		{1.999, 4.8},
		{2.0, 4.1},
		{4.999, 4.1},
		{5.0, 1.7},
		{14.999, 1.7},
		{15.0, 1.8},
		{24.999, 1.8},
		{25.0, 2.1},
		{120, 2.1},
	}
	for _, tt := range tests {
		if got := CorrectionFactor(tt.d); got != tt.want {
			t.Errorf("CorrectionFactor(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestEstimateRoadDistance_AppliesBandFactor(t *testing.T) {
	d := HaversineKm(kathmandu, bhaktapur)
	got := EstimateRoadDistance(kathmandu, bhaktapur)
	if got != d*1.7 {
		t.Fatalf("EstimateRoadDistance = %v, want %v", got, d*1.7)
	}
	if got := EstimateRoadDistance(kathmandu, kathmandu); got != 0 {
		t.Fatalf("same point should be 0, got %v", got)
	}
}

func TestRoadDistanceKm_MatchesFactor(t *testing.T) {
	for _, d := range []float64{1.999, 2.0, 4.999, 5.0, 14.999, 15.0, 24.999, 25.0} {
		if got, want := RoadDistanceKm(d), d*CorrectionFactor(d); got != want {
			t.Errorf("RoadDistanceKm(%v) = %v, want %v", d, got, want)
		}
	}
}

func TestCoordinateValidate(t *testing.T) {
	good := []Coordinate{{0, 0}, {90, 180}, {-90, -180}, kathmandu}
	for _, c := range good {
		if err := c.Validate(); err != nil {
			t.Errorf("Validate(%v): %v", c, err)
		}
	}
	bad := []Coordinate{{91, 0}, {0, 181}, {-90.1, 0}, {math.NaN(), 0}, {0, math.Inf(1)}}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%v): expected error", c)
		}
	}
}
