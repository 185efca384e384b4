// Package polarstereo projects geographic coordinates onto the Antarctic Polar
// Stereographic grid (EPSG:3031): WGS84 ellipsoid, latitude of true scale 71°S,
// central meridian 0°.
package polarstereo

import "math"

const (
	// SemiMajorAxis of the WGS84 ellipsoid in metres
	SemiMajorAxis = 6378137.0
	// Flattening of the WGS84 ellipsoid
	Flattening = 1 / 298.257223563
	// TrueScaleLatitude is the standard parallel of EPSG:3031 in degrees
	TrueScaleLatitude = -71.0
)

var eccentricity = math.Sqrt(Flattening * (2 - Flattening))

// LonLatToXY converts a longitude/latitude pair in degrees to EPSG:3031 x/y
// metres. Latitudes north of the equator are outside the projection's domain and
// return NaN.
func LonLatToXY(longitude, latitude float64) (x, y float64) {
	if latitude > 0 || math.IsNaN(latitude) || math.IsNaN(longitude) {
		return math.NaN(), math.NaN()
	}

	// The south polar case is the north polar formula applied to the mirrored
	// latitude, with the axes flipped back afterwards.
	phi := degToRad(-latitude)
	phiC := degToRad(-TrueScaleLatitude)
	lambda := degToRad(longitude)

	mc := math.Cos(phiC) / math.Sqrt(1-eccentricity*eccentricity*math.Sin(phiC)*math.Sin(phiC))
	rho := SemiMajorAxis * mc * isometric(phi) / isometric(phiC)

	return rho * math.Sin(lambda), rho * math.Cos(lambda)
}

// XYToLonLat converts EPSG:3031 x/y metres back to longitude/latitude in
// degrees. The grid origin maps to longitude 0.
func XYToLonLat(x, y float64) (longitude, latitude float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN(), math.NaN()
	}

	rho := math.Hypot(x, y)
	if rho == 0 {
		return 0, -90
	}

	phiC := degToRad(-TrueScaleLatitude)
	mc := math.Cos(phiC) / math.Sqrt(1-eccentricity*eccentricity*math.Sin(phiC)*math.Sin(phiC))
	t := rho * isometric(phiC) / (SemiMajorAxis * mc)

	// Snyder eq. 7-9, converges in a handful of steps
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := eccentricity * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), eccentricity/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	return radToDeg(math.Atan2(x, y)), -radToDeg(phi)
}

// isometric is Snyder's t function (eq. 15-9)
func isometric(phi float64) float64 {
	es := eccentricity * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), eccentricity/2)
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

func radToDeg(r float64) float64 {
	return r * 180 / math.Pi
}
