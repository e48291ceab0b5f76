package domain

import "math"

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// HaversineM returns the great-circle distance between two coordinates in
// meters. Accurate to well under a meter at hotspot scale, which is all the
// 25–50 m radii used here need.
func HaversineM(a, b Geo) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Centroid returns the arithmetic mean of the given coordinates.
// Adequate for cluster-sized extents; no antimeridian handling.
func Centroid(points []Geo) Geo {
	if len(points) == 0 {
		return Geo{}
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return Geo{Lat: lat / n, Lon: lon / n}
}

// ValidCoordinate reports whether lat/lon fall inside WGS-84 bounds and are
// not the (0,0) null-island placeholder the sensor export uses for missing
// fixes.
func ValidCoordinate(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
