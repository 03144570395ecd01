// Package spatial provides great-circle helpers over orb points.
package spatial

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const (
	// EarthRadiusKm is the mean Earth radius.
	EarthRadiusKm = 6371.0088

	// KmPerDegree is the flat approximation used when sizing polygons:
	// one degree of latitude is about 111 km.
	KmPerDegree = 111.0
)

func latLng(p orb.Point) s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat(), p.Lon())
}

// DistanceKm returns the great-circle distance between two (lng, lat) points.
func DistanceKm(a, b orb.Point) float64 {
	return latLng(a).Distance(latLng(b)).Radians() * EarthRadiusKm
}

// DegreesToKm converts a distance in degrees of arc to kilometres using the
// 111 km approximation.
func DegreesToKm(deg float64) float64 {
	return deg * KmPerDegree
}

// KmToDegrees is the inverse of DegreesToKm.
func KmToDegrees(km float64) float64 {
	return km / KmPerDegree
}

// WithinKm reports whether p lies within radiusKm of center.
func WithinKm(center, p orb.Point, radiusKm float64) bool {
	return DistanceKm(center, p) <= radiusKm
}

// Nearest returns the index of the point in pts closest to target, and its
// distance. It returns -1 for an empty slice.
func Nearest(target orb.Point, pts []orb.Point) (int, float64) {
	best, bestDist := -1, 0.0
	for i, p := range pts {
		d := DistanceKm(target, p)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
