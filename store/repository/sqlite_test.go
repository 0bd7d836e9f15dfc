package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/catalog-cache/config"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/internal/db"
	"github.com/feastly/catalog-cache/model"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:          filepath.Join(t.TempDir(), "cache.db"),
		BusyTimeout:   5 * time.Second,
		MaxOpenConns:  1,
		MaxIdleConns:  1,
		RunMigrations: true,
	}
	database, err := db.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewSQLiteRepository(database)
}

func strPtr(s string) *string { return &s }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64 { return &i }

func testStore(id, name string) model.CachedStore {
	return model.CachedStore{
		ID:       id,
		Name:     name,
		IsActive: true,
		CachedAt: time.Now().UnixMilli(),
	}
}

func TestRoundTrip_Fidelity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	st := model.CachedStore{
		ID:                "s1",
		OwnerID:           strPtr("u9"),
		Name:              "Corner Market",
		Description:       strPtr("Neighborhood surplus grocer"),
		Type:              strPtr("Grocery"),
		Address:           strPtr("123 Main St"),
		City:              strPtr("Vancouver"),
		State:             strPtr("BC"),
		ZipCode:           strPtr("V5K 0A1"),
		Country:           strPtr("CA"),
		Latitude:          f64Ptr(49.2827),
		Longitude:         f64Ptr(-123.1207),
		UserLatitude:      f64Ptr(49.28),
		UserLongitude:     f64Ptr(-123.12),
		Phone:             strPtr("+1-604-555-0100"),
		Email:             strPtr("hello@corner.example"),
		Website:           strPtr("https://corner.example"),
		ImageURL:          strPtr("https://img.example/store.jpg"),
		Logo:              strPtr("https://img.example/logo.png"),
		Banner:            nil,
		Rating:            f64Ptr(4.6),
		IsActive:          true,
		ItemCount:         i64Ptr(0),
		DistanceKm:        f64Ptr(1.2),
		DistanceMeters:    f64Ptr(1200),
		DistanceFormatted: strPtr("1.2 km away"),
		CachedAt:          1756300000000,
	}
	require.NoError(t, repo.UpsertOne(ctx, &st))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, st, *got)
}

func TestUpsert_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := testStore("s1", "Old Name")
	require.NoError(t, repo.UpsertOne(ctx, &first))

	second := testStore("s1", "New Name")
	second.Rating = f64Ptr(3.5)
	require.NoError(t, repo.UpsertOne(ctx, &second))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New Name", got.Name)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 3.5, *got.Rating)
}

func TestGetAll_OrderedByName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stores := []model.CachedStore{
		testStore("s1", "Cedar Bakery"),
		testStore("s2", "Apple Grocer"),
		testStore("s3", "Birch Deli"),
	}
	require.NoError(t, repo.UpsertMany(ctx, stores))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Apple Grocer", all[0].Name)
	assert.Equal(t, "Birch Deli", all[1].Name)
	assert.Equal(t, "Cedar Bakery", all[2].Name)
}

func TestSearch_Fields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	byName := testStore("s1", "Sunrise Market")
	byType := testStore("s2", "Corner Shop")
	byType.Type = strPtr("Sunrise Foods")
	byCity := testStore("s3", "Downtown Deli")
	byCity.City = strPtr("Sunrise City")
	byAddress := testStore("s4", "Plain Store")
	byAddress.Address = strPtr("12 Sunrise Ave")
	miss := testStore("s5", "Moonset Market")

	require.NoError(t, repo.UpsertMany(ctx, []model.CachedStore{byName, byType, byCity, byAddress, miss}))

	found, err := repo.Search(ctx, "SUNRISE", 10)
	require.NoError(t, err)
	assert.Len(t, found, 4)

	none, err := repo.Search(ctx, "midnight", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestByTypeAndTypes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	grocer := testStore("s1", "A Grocer")
	grocer.Type = strPtr("Grocery")
	bakery := testStore("s2", "A Bakery")
	bakery.Type = strPtr("Bakery")
	untyped := testStore("s3", "No Type")

	require.NoError(t, repo.UpsertMany(ctx, []model.CachedStore{grocer, bakery, untyped}))

	groceries, err := repo.ByType(ctx, "Grocery", 10)
	require.NoError(t, err)
	require.Len(t, groceries, 1)
	assert.Equal(t, "s1", groceries[0].ID)

	types, err := repo.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery", "Grocery"}, types)
}

func TestNearLocation_TrueCoordinates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inside := testStore("inside", "Inside Store")
	inside.Latitude = f64Ptr(49.28)
	inside.Longitude = f64Ptr(-123.12)

	outside := testStore("outside", "Outside Store")
	outside.Latitude = f64Ptr(51.0)
	outside.Longitude = f64Ptr(-123.12)

	require.NoError(t, repo.UpsertMany(ctx, []model.CachedStore{inside, outside}))

	box := geo.Box{MinLat: 49.0, MaxLat: 49.5, MinLng: -123.5, MaxLng: -123.0}
	found, err := repo.NearLocation(ctx, box, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "inside", found[0].ID)
}

func TestNearLocation_UserCoordinateFallback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// No true coordinates, only the fetch-center fallback pair.
	st := testStore("s1", "Unlocated Store")
	st.UserLatitude = f64Ptr(49.2)
	st.UserLongitude = f64Ptr(-123.1)
	require.NoError(t, repo.UpsertOne(ctx, &st))

	box := geo.Box{MinLat: 49.1, MaxLat: 49.3, MinLng: -123.2, MaxLng: -123.0}
	found, err := repo.NearLocation(ctx, box, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "s1", found[0].ID)

	// A box elsewhere matches neither pair.
	farBox := geo.Box{MinLat: 50.0, MaxLat: 50.5, MinLng: -123.2, MaxLng: -123.0}
	found, err = repo.NearLocation(ctx, farBox, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteOlderThan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := testStore("old", "Old Store")
	old.CachedAt = 100
	fresh := testStore("fresh", "Fresh Store")
	fresh.CachedAt = 900
	require.NoError(t, repo.UpsertMany(ctx, []model.CachedStore{old, fresh}))

	removed, err := repo.DeleteOlderThan(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err := repo.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestDeleteAndDeleteAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []model.CachedStore{
		testStore("s1", "A"), testStore("s2", "B"),
	}))

	require.NoError(t, repo.Delete(ctx, "s1"))
	count, _ := repo.Count(ctx)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.DeleteAll(ctx))
	count, _ = repo.Count(ctx)
	assert.Equal(t, int64(0), count)
}

func TestRecent_OrderedByCachedAtDesc(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testStore("a", "Zebra Mart")
	a.CachedAt = 100
	b := testStore("b", "Alpha Mart")
	b.CachedAt = 300
	require.NoError(t, repo.UpsertMany(ctx, []model.CachedStore{a, b}))

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Recency ordering, not the name ordering used elsewhere.
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "a", recent[1].ID)
}
