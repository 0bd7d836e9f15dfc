package geo

import "math"

// refetchMoveFraction: a new center more than this fraction of the radius
// away from the previous one warrants a fresh fetch.
const refetchMoveFraction = 0.25

// DistanceKm approximates the distance between two points with an
// equirectangular projection. Good enough at city scale, which is the only
// scale these queries run at.
func DistanceKm(aLat, aLng, bLat, bLng float64) float64 {
	meanLat := (aLat + bLat) / 2.0 * math.Pi / 180.0
	dLat := (bLat - aLat) * kmPerDegreeLat
	dLng := (bLng - aLng) * kmPerDegreeLat * math.Cos(meanLat)
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// ShouldRefetch reports whether a new search warrants hitting the network
// given the previous one. It is a pure function of the two searches; callers
// hold whatever "last search" state they need.
func ShouldRefetch(prev *Center, next Center) bool {
	if prev == nil {
		return true
	}
	if prev.RadiusKm != next.RadiusKm {
		return true
	}
	moved := DistanceKm(prev.Lat, prev.Lng, next.Lat, next.Lng)
	return moved > next.RadiusKm*refetchMoveFraction
}
