package model

// CachedStore is a locally persisted copy of a store record.
type CachedStore struct {
	ID          string  `db:"id" json:"id"`
	OwnerID     *string `db:"owner_id" json:"owner_id"`         // Nullable
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`   // Nullable
	Type        *string `db:"type" json:"type"`                 // Nullable
	Address     *string `db:"address" json:"address"`           // Nullable
	City        *string `db:"city" json:"city"`                 // Nullable
	State       *string `db:"state" json:"state"`               // Nullable
	ZipCode     *string `db:"zip_code" json:"zip_code"`         // Nullable
	Country     *string `db:"country" json:"country"`           // Nullable

	// Latitude/Longitude are the store's true location when the API supplied
	// one. UserLatitude/UserLongitude record where the fetch that cached this
	// row was centered, used as the geo fallback when the true location is
	// absent.
	Latitude      *float64 `db:"latitude" json:"latitude"`
	Longitude     *float64 `db:"longitude" json:"longitude"`
	UserLatitude  *float64 `db:"user_latitude" json:"user_latitude"`
	UserLongitude *float64 `db:"user_longitude" json:"user_longitude"`

	Phone    *string `db:"phone" json:"phone"`         // Nullable
	Email    *string `db:"email" json:"email"`         // Nullable
	Website  *string `db:"website" json:"website"`     // Nullable
	ImageURL *string `db:"image_url" json:"image_url"` // Nullable
	Logo     *string `db:"logo" json:"logo"`           // Nullable
	Banner   *string `db:"banner" json:"banner"`       // Nullable

	Rating    *float64 `db:"rating" json:"rating"` // Nullable
	IsActive  bool     `db:"is_active" json:"is_active"`
	ItemCount *int64   `db:"item_count" json:"item_count"` // Nullable

	// Distance fields are computed upstream and round-tripped verbatim; the
	// cache never recomputes DistanceFormatted.
	DistanceKm        *float64 `db:"distance_km" json:"distance_km"`
	DistanceMeters    *float64 `db:"distance_meters" json:"distance_meters"`
	DistanceFormatted *string  `db:"distance_formatted" json:"distance_formatted"`

	// CachedAt is epoch milliseconds set at write time, never user-supplied.
	CachedAt int64 `db:"cached_at" json:"cached_at"`
}
