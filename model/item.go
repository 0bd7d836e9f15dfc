package model

// CachedItem is a locally persisted copy of an item returned by a catalog
// fetch. Date-like fields are opaque strings from the API and are stored
// verbatim, never parsed.
type CachedItem struct {
	ID          string  `db:"id" json:"id"`
	StoreID     string  `db:"store_id" json:"store_id"`
	StoreName   string  `db:"store_name" json:"store_name"` // Denormalized for display without a join
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"` // Nullable
	Category    *string `db:"category" json:"category"`       // Nullable
	Brand       *string `db:"brand" json:"brand"`             // Nullable
	Unit        *string `db:"unit" json:"unit"`               // Nullable

	CurrentPrice    float64  `db:"current_price" json:"current_price"`
	OriginalPrice   *float64 `db:"original_price" json:"original_price"`     // Nullable
	DiscountPercent *float64 `db:"discount_percent" json:"discount_percent"` // Nullable
	StockQuantity   *int64   `db:"stock_quantity" json:"stock_quantity"`     // Nullable
	IsAvailable     bool     `db:"is_available" json:"is_available"`
	IsClearance     bool     `db:"is_clearance" json:"is_clearance"`

	ImageURL *string  `db:"image_url" json:"image_url"` // Nullable
	Images   []string `db:"-" json:"images"`            // Stored as a JSON text column

	ExpiryDate *string `db:"expiry_date" json:"expiry_date"` // Nullable
	BestBefore *string `db:"best_before" json:"best_before"` // Nullable
	CreatedAt  *string `db:"created_at" json:"created_at"`   // Nullable
	UpdatedAt  *string `db:"updated_at" json:"updated_at"`   // Nullable

	// CachedAt is epoch milliseconds set at write time, never user-supplied.
	CachedAt int64 `db:"cached_at" json:"cached_at"`

	// Latitude/Longitude record where the fetch that produced this row was
	// centered, not where the item physically is. Set once at caching time.
	Latitude  *float64 `db:"latitude" json:"latitude"`
	Longitude *float64 `db:"longitude" json:"longitude"`

	// DistanceMeters is computed upstream and round-tripped verbatim.
	DistanceMeters *float64 `db:"distance_meters" json:"distance_meters"`
}
