package polarstereo

import (
	"math"
	"testing"
)

func TestLonLatToXYAxes(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		xSign    float64
		ySign    float64
		zeroX    bool
		zeroY    bool
		atOrigin bool
	}{
		{name: "south pole", lon: 45, lat: -90, atOrigin: true},
		{name: "prime meridian", lon: 0, lat: -75, zeroX: true, ySign: 1},
		{name: "ninety east", lon: 90, lat: -75, xSign: 1, zeroY: true},
		{name: "date line", lon: 180, lat: -75, zeroX: true, ySign: -1},
		{name: "ninety west", lon: -90, lat: -75, xSign: -1, zeroY: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := LonLatToXY(tt.lon, tt.lat)
			if tt.atOrigin {
				if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
					t.Fatalf("expected origin, got (%f, %f)", x, y)
				}
				return
			}
			if tt.zeroX && math.Abs(x) > 1e-6 {
				t.Errorf("expected x = 0, got %f", x)
			}
			if tt.zeroY && math.Abs(y) > 1e-6 {
				t.Errorf("expected y = 0, got %f", y)
			}
			if tt.xSign != 0 && math.Signbit(x) != math.Signbit(tt.xSign) {
				t.Errorf("expected x with sign %v, got %f", tt.xSign, x)
			}
			if tt.ySign != 0 && math.Signbit(y) != math.Signbit(tt.ySign) {
				t.Errorf("expected y with sign %v, got %f", tt.ySign, y)
			}
		})
	}
}

func TestTrueScaleAtStandardParallel(t *testing.T) {
	// Along a meridian at 71°S, a small step in latitude on the grid must
	// match the ellipsoid's meridian arc length.
	const dLat = 1e-4 // degrees
	_, y1 := LonLatToXY(0, TrueScaleLatitude-dLat/2)
	_, y2 := LonLatToXY(0, TrueScaleLatitude+dLat/2)
	gridDistance := math.Abs(y2 - y1)

	phi := degToRad(TrueScaleLatitude)
	e2 := eccentricity * eccentricity
	radius := SemiMajorAxis * (1 - e2) / math.Pow(1-e2*math.Sin(phi)*math.Sin(phi), 1.5)
	arc := radius * degToRad(dLat)

	if math.Abs(gridDistance-arc)/arc > 1e-6 {
		t.Errorf("scale error at true scale latitude: grid %.6f m vs arc %.6f m", gridDistance, arc)
	}
}

func TestKambIceStreamFallsInsideItsBox(t *testing.T) {
	// Kamb Ice Stream, Siple Coast
	x, y := LonLatToXY(-140.0, -82.5)
	if x < -739741.77 || x > -411054.19 || y < -699564.52 || y > -365489.68 {
		t.Errorf("expected Kamb Ice Stream inside its region, got (%.0f, %.0f)", x, y)
	}
}

func TestNorthernHemisphereIsOutsideDomain(t *testing.T) {
	x, y := LonLatToXY(10, 45)
	if !math.IsNaN(x) || !math.IsNaN(y) {
		t.Errorf("expected NaN for northern hemisphere input, got (%f, %f)", x, y)
	}
}

func TestXYToLonLatInvertsProjection(t *testing.T) {
	tests := []struct {
		lon, lat float64
	}{
		{0, -75},
		{-140, -82.5},
		{90, -60},
		{-179.5, -88},
		{45, -89.999},
		{120, -71},
	}

	for _, tt := range tests {
		x, y := LonLatToXY(tt.lon, tt.lat)
		lon, lat := XYToLonLat(x, y)
		if math.Abs(lon-tt.lon) > 1e-8 || math.Abs(lat-tt.lat) > 1e-8 {
			t.Errorf("round trip of (%v, %v) gave (%.10f, %.10f)", tt.lon, tt.lat, lon, lat)
		}
	}

	lon, lat := XYToLonLat(0, 0)
	if lon != 0 || lat != -90 {
		t.Errorf("expected the origin at the pole, got (%f, %f)", lon, lat)
	}
}
