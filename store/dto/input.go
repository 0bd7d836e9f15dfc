package dto

// NearbyQuery describes a "find stores around here" request.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}

// SearchQuery describes a free-text store search.
type SearchQuery struct {
	Query string
	Limit int
}
