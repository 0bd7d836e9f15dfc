// Package geo converts radius searches into bounding-box predicates.
package geo

import "math"

// kmPerDegreeLat is the standard flat-earth approximation: 111 km per degree
// of latitude.
const kmPerDegreeLat = 111.0

// minCosLat keeps the longitude delta finite near the poles.
const minCosLat = 0.01

// Center is a search origin plus radius in kilometers.
type Center struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// Box is an axis-aligned latitude/longitude rectangle.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox converts a center+radius into an approximate box. The result is
// not geodesically exact; it only gates an offline fallback display.
func BoundingBox(c Center) Box {
	dLat := c.RadiusKm / kmPerDegreeLat

	cosLat := math.Cos(c.Lat * math.Pi / 180.0)
	if cosLat < minCosLat {
		cosLat = minCosLat
	}
	dLng := c.RadiusKm / (kmPerDegreeLat * cosLat)

	return Box{
		MinLat: c.Lat - dLat,
		MaxLat: c.Lat + dLat,
		MinLng: c.Lng - dLng,
		MaxLng: c.Lng + dLng,
	}
}

// Contains reports whether the point lies inside the box (inclusive).
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
