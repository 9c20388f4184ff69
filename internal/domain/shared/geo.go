package shared

import "math"

// earthRadiusMiles is the mean Earth radius used for great-circle distances.
const earthRadiusMiles = 3959.0

// LatLon is a geographic coordinate value object
type LatLon struct {
	Lat float64
	Lon float64
}

// DistanceTo returns the great-circle distance in miles to another point
// using the Haversine formula.
func (p LatLon) DistanceTo(other LatLon) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusMiles * c
}

// Midpoint returns the arithmetic midpoint between two points. Accurate
// enough at route-segment scale for rest-area lookups.
func (p LatLon) Midpoint(other LatLon) LatLon {
	return LatLon{
		Lat: (p.Lat + other.Lat) / 2,
		Lon: (p.Lon + other.Lon) / 2,
	}
}
