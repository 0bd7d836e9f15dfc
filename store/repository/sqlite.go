package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/feastly/catalog-cache/errs"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
)

const defaultLimit = 50

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

const upsertStoreQuery = `
	INSERT INTO cached_stores (
		id, owner_id, name, description, type, address, city, state, zip_code, country,
		latitude, longitude, user_latitude, user_longitude,
		phone, email, website, image_url, logo, banner,
		rating, is_active, item_count,
		distance_km, distance_meters, distance_formatted, cached_at
	)
	VALUES (
		:id, :owner_id, :name, :description, :type, :address, :city, :state, :zip_code, :country,
		:latitude, :longitude, :user_latitude, :user_longitude,
		:phone, :email, :website, :image_url, :logo, :banner,
		:rating, :is_active, :item_count,
		:distance_km, :distance_meters, :distance_formatted, :cached_at
	)
	ON CONFLICT(id) DO UPDATE SET
		owner_id = excluded.owner_id,
		name = excluded.name,
		description = excluded.description,
		type = excluded.type,
		address = excluded.address,
		city = excluded.city,
		state = excluded.state,
		zip_code = excluded.zip_code,
		country = excluded.country,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		user_latitude = excluded.user_latitude,
		user_longitude = excluded.user_longitude,
		phone = excluded.phone,
		email = excluded.email,
		website = excluded.website,
		image_url = excluded.image_url,
		logo = excluded.logo,
		banner = excluded.banner,
		rating = excluded.rating,
		is_active = excluded.is_active,
		item_count = excluded.item_count,
		distance_km = excluded.distance_km,
		distance_meters = excluded.distance_meters,
		distance_formatted = excluded.distance_formatted,
		cached_at = excluded.cached_at
`

// UpsertMany replaces-or-inserts the whole batch in one transaction.
func (r *SQLiteRepository) UpsertMany(ctx context.Context, stores []model.CachedStore) error {
	if len(stores) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errs.Storage("begin upsert stores", err)
	}
	defer tx.Rollback()

	for i := range stores {
		if _, err := tx.NamedExecContext(ctx, upsertStoreQuery, &stores[i]); err != nil {
			return errs.Storage("upsert stores", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Storage("commit upsert stores", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertOne(ctx context.Context, st *model.CachedStore) error {
	if _, err := r.DB.NamedExecContext(ctx, upsertStoreQuery, st); err != nil {
		return errs.Storage("upsert store", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*model.CachedStore, error) {
	var st model.CachedStore
	query := `SELECT * FROM cached_stores WHERE id = ? LIMIT 1`
	err := r.DB.GetContext(ctx, &st, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.Storage("get store", err)
	}
	return &st, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]model.CachedStore, error) {
	stores := []model.CachedStore{}
	query := `SELECT * FROM cached_stores ORDER BY name ASC`
	if err := r.DB.SelectContext(ctx, &stores, query); err != nil {
		return nil, errs.Storage("list stores", err)
	}
	return stores, nil
}

func (r *SQLiteRepository) Search(ctx context.Context, query string, limit int) ([]model.CachedStore, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + strings.ToLower(query) + "%"

	fields := []string{
		"LOWER(name) LIKE ?",
		"LOWER(type) LIKE ?",
		"LOWER(city) LIKE ?",
		"LOWER(address) LIKE ?",
	}
	args := []interface{}{pattern, pattern, pattern, pattern, limit}

	stores := []model.CachedStore{}
	q := fmt.Sprintf(
		`SELECT * FROM cached_stores WHERE (%s) ORDER BY name ASC LIMIT ?`,
		strings.Join(fields, " OR "),
	)
	if err := r.DB.SelectContext(ctx, &stores, q, args...); err != nil {
		return nil, errs.Storage("search stores", err)
	}
	return stores, nil
}

func (r *SQLiteRepository) ByType(ctx context.Context, storeType string, limit int) ([]model.CachedStore, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	stores := []model.CachedStore{}
	query := `SELECT * FROM cached_stores WHERE type = ? ORDER BY name ASC LIMIT ?`
	if err := r.DB.SelectContext(ctx, &stores, query, storeType, limit); err != nil {
		return nil, errs.Storage("stores by type", err)
	}
	return stores, nil
}

func (r *SQLiteRepository) Types(ctx context.Context) ([]string, error) {
	types := []string{}
	query := `SELECT DISTINCT type FROM cached_stores WHERE type IS NOT NULL ORDER BY type ASC`
	if err := r.DB.SelectContext(ctx, &types, query); err != nil {
		return nil, errs.Storage("list store types", err)
	}
	return types, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM cached_stores`); err != nil {
		return 0, errs.Storage("count stores", err)
	}
	return count, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cached_stores WHERE id = ?`, id); err != nil {
		return errs.Storage("delete store", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cached_stores WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, errs.Storage("evict stores", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Storage("evict stores", err)
	}
	return removed, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cached_stores`); err != nil {
		return errs.Storage("clear stores", err)
	}
	return nil
}

// NearLocation matches on the store's true coordinates OR its fetch-center
// fallback pair. Items match only on their own cached pair; stores get the OR
// because a store may have a real address but no geocoded location.
func (r *SQLiteRepository) NearLocation(ctx context.Context, box geo.Box, limit int) ([]model.CachedStore, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	stores := []model.CachedStore{}
	query := `
		SELECT * FROM cached_stores
		WHERE (
			latitude IS NOT NULL AND longitude IS NOT NULL
			AND latitude BETWEEN ? AND ?
			AND longitude BETWEEN ? AND ?
		) OR (
			user_latitude IS NOT NULL AND user_longitude IS NOT NULL
			AND user_latitude BETWEEN ? AND ?
			AND user_longitude BETWEEN ? AND ?
		)
		ORDER BY name ASC
		LIMIT ?`
	err := r.DB.SelectContext(ctx, &stores, query,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
		limit,
	)
	if err != nil {
		return nil, errs.Storage("stores near location", err)
	}
	return stores, nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]model.CachedStore, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	stores := []model.CachedStore{}
	query := `SELECT * FROM cached_stores ORDER BY cached_at DESC LIMIT ?`
	if err := r.DB.SelectContext(ctx, &stores, query, limit); err != nil {
		return nil, errs.Storage("recent stores", err)
	}
	return stores, nil
}
