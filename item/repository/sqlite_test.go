package repository

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/catalog-cache/config"
	"github.com/feastly/catalog-cache/errs"
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

func testItem(id string) model.CachedItem {
	return model.CachedItem{
		ID:           id,
		StoreID:      "s1",
		StoreName:    "Corner Market",
		Name:         "Item " + id,
		CurrentPrice: 1.99,
		IsAvailable:  true,
		Images:       []string{},
		CachedAt:     time.Now().UnixMilli(),
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := testItem("i1")
	first.Name = "Old Name"
	require.NoError(t, repo.UpsertOne(ctx, &first))

	second := testItem("i1")
	second.Name = "New Name"
	second.CurrentPrice = 2.49
	require.NoError(t, repo.UpsertOne(ctx, &second))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByID(ctx, "i1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, 2.49, got.CurrentPrice)
}

func TestUpsert_FullReplacementClearsOldFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := testItem("i1")
	first.Brand = strPtr("Acme")
	first.Latitude = f64Ptr(49.2)
	first.Longitude = f64Ptr(-123.1)
	require.NoError(t, repo.UpsertOne(ctx, &first))

	// Replacement with nil fields must not keep the old values around.
	second := testItem("i1")
	require.NoError(t, repo.UpsertOne(ctx, &second))

	got, err := repo.GetByID(ctx, "i1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Brand)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
}

func TestRoundTrip_Fidelity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	it := model.CachedItem{
		ID:              "i1",
		StoreID:         "s1",
		StoreName:       "Corner Market",
		Name:            "Organic Milk 2L",
		Description:     strPtr("Fresh local dairy"),
		Category:        strPtr("Dairy"),
		Brand:           strPtr("Valley Farms"),
		Unit:            strPtr("2L"),
		CurrentPrice:    0, // edge: free
		OriginalPrice:   f64Ptr(math.MaxFloat64),
		DiscountPercent: f64Ptr(100),
		StockQuantity:   i64Ptr(0),
		IsAvailable:     true,
		IsClearance:     true,
		ImageURL:        strPtr("https://img.example/milk.jpg"),
		Images:          []string{"https://img.example/a.jpg", "https://img.example/b.jpg"},
		ExpiryDate:      strPtr("2026-09-01"),
		BestBefore:      strPtr("2026-08-30T00:00:00Z"),
		CreatedAt:       strPtr("2026-08-01T12:00:00Z"),
		UpdatedAt:       nil,
		CachedAt:        1756300000000,
		Latitude:        f64Ptr(49.28),
		Longitude:       f64Ptr(-123.12),
		DistanceMeters:  f64Ptr(431.5),
	}
	require.NoError(t, repo.UpsertOne(ctx, &it))

	got, err := repo.GetByID(ctx, "i1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, it, *got)
}

func TestGetByID_AbsentIsNilNotError(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetAll_OrderedByCachedAtDesc(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testItem("a")
	a.CachedAt = 100
	b := testItem("b")
	b.CachedAt = 300
	c := testItem("c")
	c.CachedAt = 200
	require.NoError(t, repo.UpsertMany(ctx, []model.CachedItem{a, b, c}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestSearch_MatchesAndExcludes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	milk := testItem("i1")
	milk.Name = "Milk"
	milk.Category = strPtr("Dairy")
	require.NoError(t, repo.UpsertOne(ctx, &milk))

	// Case-insensitive hit, clean miss, facet hit.
	found, err := repo.Search(ctx, "milk", "", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "i1", found[0].ID)

	none, err := repo.Search(ctx, "bread", "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	dairy, err := repo.ByCategory(ctx, "Dairy", 10)
	require.NoError(t, err)
	require.Len(t, dairy, 1)
	assert.Equal(t, "i1", dairy[0].ID)
}

func TestSearch_FieldsAndScope(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	byBrand := testItem("i1")
	byBrand.Brand = strPtr("SunnyValley")
	require.NoError(t, repo.UpsertOne(ctx, &byBrand))

	byDescription := testItem("i2")
	byDescription.Description = strPtr("great with sunnyvalley cheese")
	require.NoError(t, repo.UpsertOne(ctx, &byDescription))

	otherStore := testItem("i3")
	otherStore.StoreID = "s2"
	otherStore.Brand = strPtr("SunnyValley")
	require.NoError(t, repo.UpsertOne(ctx, &otherStore))

	// Global search matches brand and description.
	global, err := repo.Search(ctx, "SUNNYVALLEY", "", 10)
	require.NoError(t, err)
	assert.Len(t, global, 3)

	// Scoped search is restricted to the store and skips description.
	scoped, err := repo.Search(ctx, "sunnyvalley", "s1", 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "i1", scoped[0].ID)
}

func TestSearch_OrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Cherry Pie", "Apple Pie", "Banana Pie"} {
		it := testItem("i-" + name)
		it.Name = name
		require.NoError(t, repo.UpsertOne(ctx, &it))
	}

	found, err := repo.Search(ctx, "pie", "", 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Apple Pie", found[0].Name)
	assert.Equal(t, "Banana Pie", found[1].Name)
}

func TestCategories_DistinctSorted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, cat := range []*string{strPtr("Dairy"), strPtr("Bakery"), strPtr("Dairy"), nil} {
		it := testItem(string(rune('a' + i)))
		it.Category = cat
		require.NoError(t, repo.UpsertOne(ctx, &it))
	}

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery", "Dairy"}, cats)
}

func TestCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testItem("a")
	b := testItem("b")
	c := testItem("c")
	c.StoreID = "s2"
	require.NoError(t, repo.UpsertMany(ctx, []model.CachedItem{a, b, c}))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	forStore, err := repo.CountForStore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), forStore)
}

func TestDeletes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testItem("a")
	b := testItem("b")
	c := testItem("c")
	c.StoreID = "s2"
	require.NoError(t, repo.UpsertMany(ctx, []model.CachedItem{a, b, c}))

	require.NoError(t, repo.Delete(ctx, "a"))
	count, _ := repo.Count(ctx)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.DeleteForStore(ctx, "s1"))
	count, _ = repo.Count(ctx)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.DeleteAll(ctx))
	count, _ = repo.Count(ctx)
	assert.Equal(t, int64(0), count)
}

func TestDeleteOlderThan_ExactThreshold(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Five items spanning ten days, keep the last three days.
	now := time.Now()
	ages := []time.Duration{0, 24 * time.Hour, 2 * 24 * time.Hour, 5 * 24 * time.Hour, 10 * 24 * time.Hour}
	items := make([]model.CachedItem, 0, len(ages))
	for i, age := range ages {
		it := testItem(string(rune('a' + i)))
		it.CachedAt = now.Add(-age).UnixMilli()
		items = append(items, it)
	}
	require.NoError(t, repo.UpsertMany(ctx, items))

	cutoff := now.Add(-3 * 24 * time.Hour).UnixMilli()
	removed, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	for _, it := range remaining {
		assert.GreaterOrEqual(t, it.CachedAt, cutoff)
	}
}

func TestNearLocation_BoxPredicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inside := testItem("inside")
	inside.Latitude = f64Ptr(49.28)
	inside.Longitude = f64Ptr(-123.12)
	inside.CachedAt = 100

	insideNewer := testItem("inside-newer")
	insideNewer.Latitude = f64Ptr(49.30)
	insideNewer.Longitude = f64Ptr(-123.10)
	insideNewer.CachedAt = 200

	outside := testItem("outside")
	outside.Latitude = f64Ptr(51.0)
	outside.Longitude = f64Ptr(-123.12)

	noCoords := testItem("no-coords")

	require.NoError(t, repo.UpsertMany(ctx, []model.CachedItem{inside, insideNewer, outside, noCoords}))

	box := geo.Box{MinLat: 49.0, MaxLat: 49.5, MinLng: -123.5, MaxLng: -123.0}
	found, err := repo.NearLocation(ctx, box, 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Most recently cached first.
	assert.Equal(t, "inside-newer", found[0].ID)
	assert.Equal(t, "inside", found[1].ID)
}

func TestRecent_OrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		it := testItem(string(rune('a' + i)))
		it.CachedAt = int64(i * 100)
		require.NoError(t, repo.UpsertOne(ctx, &it))
	}

	recent, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e", recent[0].ID)
	assert.Equal(t, "d", recent[1].ID)
	assert.Equal(t, "c", recent[2].ID)
}

func TestUpsertMany_BatchVisibilityIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const batchSize = 10
	done := make(chan struct{})
	go func() {
		defer close(done)
		for batch := 0; batch < 20; batch++ {
			items := make([]model.CachedItem, 0, batchSize)
			for i := 0; i < batchSize; i++ {
				items = append(items, testItem(string(rune('a'+batch))+"-"+string(rune('0'+i))))
			}
			if err := repo.UpsertMany(ctx, items); err != nil {
				return
			}
		}
	}()

	// A reader must only ever observe whole batches.
	for {
		select {
		case <-done:
			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), count%batchSize)
			return
		default:
			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), count%batchSize, "reader observed a partial batch")
		}
	}
}

func TestStorageFaultWrapsSentinel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Closing the handle forces a storage-layer fault on the next call.
	require.NoError(t, repo.DB.Close())

	_, err := repo.Count(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStorage)
}
