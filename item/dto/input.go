package dto

// NearbyQuery describes a "find items around here" request.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}

// SearchQuery describes a free-text item search. StoreID narrows the search
// to one store ("search within this store"); empty means global.
type SearchQuery struct {
	Query   string
	StoreID string
	Limit   int
}
