package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/feastly/catalog-cache/errs"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
)

// defaultLimit caps list queries when the caller passes limit <= 0.
const defaultLimit = 50

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

// itemRow adapts model.CachedItem for sqlx: the images list is persisted as a
// JSON text column.
type itemRow struct {
	model.CachedItem
	ImagesJSON string `db:"images"`
}

func toRow(it *model.CachedItem) (*itemRow, error) {
	images := it.Images
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	return &itemRow{CachedItem: *it, ImagesJSON: string(raw)}, nil
}

func fromRows(rows []itemRow) ([]model.CachedItem, error) {
	items := make([]model.CachedItem, 0, len(rows))
	for i := range rows {
		it := rows[i].CachedItem
		if rows[i].ImagesJSON != "" {
			if err := json.Unmarshal([]byte(rows[i].ImagesJSON), &it.Images); err != nil {
				return nil, fmt.Errorf("decode images: %w", err)
			}
		}
		if it.Images == nil {
			it.Images = []string{}
		}
		items = append(items, it)
	}
	return items, nil
}

const upsertItemQuery = `
	INSERT INTO cached_items (
		id, store_id, store_name, name, description, category, brand, unit,
		current_price, original_price, discount_percent, stock_quantity,
		is_available, is_clearance, image_url, images,
		expiry_date, best_before, created_at, updated_at,
		cached_at, latitude, longitude, distance_meters
	)
	VALUES (
		:id, :store_id, :store_name, :name, :description, :category, :brand, :unit,
		:current_price, :original_price, :discount_percent, :stock_quantity,
		:is_available, :is_clearance, :image_url, :images,
		:expiry_date, :best_before, :created_at, :updated_at,
		:cached_at, :latitude, :longitude, :distance_meters
	)
	ON CONFLICT(id) DO UPDATE SET
		store_id = excluded.store_id,
		store_name = excluded.store_name,
		name = excluded.name,
		description = excluded.description,
		category = excluded.category,
		brand = excluded.brand,
		unit = excluded.unit,
		current_price = excluded.current_price,
		original_price = excluded.original_price,
		discount_percent = excluded.discount_percent,
		stock_quantity = excluded.stock_quantity,
		is_available = excluded.is_available,
		is_clearance = excluded.is_clearance,
		image_url = excluded.image_url,
		images = excluded.images,
		expiry_date = excluded.expiry_date,
		best_before = excluded.best_before,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		cached_at = excluded.cached_at,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		distance_meters = excluded.distance_meters
`

// UpsertMany replaces-or-inserts the whole batch in one transaction so that
// concurrent readers never observe a half-written page of results.
func (r *SQLiteRepository) UpsertMany(ctx context.Context, items []model.CachedItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Storage("begin upsert items", err)
	}
	defer tx.Rollback()

	for i := range items {
		row, err := toRow(&items[i])
		if err != nil {
			return errs.Storage("upsert items", err)
		}
		if _, err := tx.NamedExecContext(ctx, upsertItemQuery, row); err != nil {
			return errs.Storage("upsert items", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Storage("commit upsert items", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertOne(ctx context.Context, it *model.CachedItem) error {
	row, err := toRow(it)
	if err != nil {
		return errs.Storage("upsert item", err)
	}
	if _, err := r.DB.NamedExecContext(ctx, upsertItemQuery, row); err != nil {
		return errs.Storage("upsert item", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*model.CachedItem, error) {
	var row itemRow
	query := `SELECT * FROM cached_items WHERE id = ? LIMIT 1`
	err := r.DB.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("get item", err)
	}

	items, err := fromRows([]itemRow{row})
	if err != nil {
		return nil, errs.Storage("get item", err)
	}
	return &items[0], nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]model.CachedItem, error) {
	var rows []itemRow
	query := `SELECT * FROM cached_items ORDER BY cached_at DESC`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, errs.Storage("list items", err)
	}
	return decode(rows, "list items")
}

func (r *SQLiteRepository) Search(ctx context.Context, query, storeID string, limit int) ([]model.CachedItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + strings.ToLower(query) + "%"

	// Scoped search ("search within this store") deliberately omits the
	// description field; global search includes it.
	fields := []string{"LOWER(name) LIKE ?", "LOWER(category) LIKE ?", "LOWER(brand) LIKE ?"}
	args := []interface{}{pattern, pattern, pattern}
	if storeID == "" {
		fields = append(fields, "LOWER(description) LIKE ?")
		args = append(args, pattern)
	}

	where := "(" + strings.Join(fields, " OR ") + ")"
	if storeID != "" {
		where += " AND store_id = ?"
		args = append(args, storeID)
	}
	args = append(args, limit)

	var rows []itemRow
	q := fmt.Sprintf(`SELECT * FROM cached_items WHERE %s ORDER BY name ASC LIMIT ?`, where)
	if err := r.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errs.Storage("search items", err)
	}
	return decode(rows, "search items")
}

func (r *SQLiteRepository) ByCategory(ctx context.Context, category string, limit int) ([]model.CachedItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var rows []itemRow
	query := `SELECT * FROM cached_items WHERE category = ? ORDER BY name ASC LIMIT ?`
	if err := r.DB.SelectContext(ctx, &rows, query, category, limit); err != nil {
		return nil, errs.Storage("items by category", err)
	}
	return decode(rows, "items by category")
}

func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	query := `SELECT DISTINCT category FROM cached_items WHERE category IS NOT NULL ORDER BY category ASC`
	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, errs.Storage("list categories", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM cached_items`); err != nil {
		return 0, errs.Storage("count items", err)
	}
	return count, nil
}

func (r *SQLiteRepository) CountForStore(ctx context.Context, storeID string) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM cached_items WHERE store_id = ?`
	if err := r.DB.GetContext(ctx, &count, query, storeID); err != nil {
		return 0, errs.Storage("count items for store", err)
	}
	return count, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cached_items WHERE id = ?`, id); err != nil {
		return errs.Storage("delete item", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteForStore(ctx context.Context, storeID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cached_items WHERE store_id = ?`, storeID); err != nil {
		return errs.Storage("delete items for store", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cached_items WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, errs.Storage("evict items", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Storage("evict items", err)
	}
	return removed, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cached_items`); err != nil {
		return errs.Storage("clear items", err)
	}
	return nil
}

func (r *SQLiteRepository) NearLocation(ctx context.Context, box geo.Box, limit int) ([]model.CachedItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var rows []itemRow
	query := `
		SELECT * FROM cached_items
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
		ORDER BY cached_at DESC
		LIMIT ?`
	err := r.DB.SelectContext(ctx, &rows, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
	if err != nil {
		return nil, errs.Storage("items near location", err)
	}
	return decode(rows, "items near location")
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]model.CachedItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var rows []itemRow
	query := `SELECT * FROM cached_items ORDER BY cached_at DESC LIMIT ?`
	if err := r.DB.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, errs.Storage("recent items", err)
	}
	return decode(rows, "recent items")
}

func decode(rows []itemRow, op string) ([]model.CachedItem, error) {
	items, err := fromRows(rows)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return items, nil
}
