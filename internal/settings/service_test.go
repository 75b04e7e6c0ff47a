package settings

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
)

type fakeCache struct {
	values map[string]string
	sets   int
	dels   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.sets++
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	f.dels++
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) CacheKey(scope, id string) string {
	return strings.Join([]string{"sf", "cache", scope, id}, ":")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:settings_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.StoreSetting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, c *fakeCache) Service {
	t.Helper()
	var svcCache cache
	if c != nil {
		svcCache = c
	}
	svc, err := NewService(NewRepository(db), svcCache, 30*time.Second, nil)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestGetReadsThroughCache(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	c := newFakeCache()
	svc := newTestService(t, db, c)
	ctx := context.Background()

	if err := svc.Set(ctx, "currency", "USD"); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, err := svc.Get(ctx, "currency")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "USD" {
		t.Fatalf("unexpected value %q", value)
	}
	if c.sets != 1 {
		t.Fatalf("expected one cache fill, got %d", c.sets)
	}

	// Second read is served from cache; mutate the DB underneath to prove it.
	if err := db.Exec(`UPDATE store_settings SET value = 'EUR' WHERE key = 'currency'`).Error; err != nil {
		t.Fatalf("mutate: %v", err)
	}
	value, err = svc.Get(ctx, "currency")
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if value != "USD" {
		t.Fatalf("expected cached value, got %q", value)
	}
}

func TestSetBustsCache(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	c := newFakeCache()
	svc := newTestService(t, db, c)
	ctx := context.Background()

	if err := svc.Set(ctx, "currency", "USD"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.Get(ctx, "currency"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := svc.Set(ctx, "currency", "EUR"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.dels != 2 {
		t.Fatalf("expected cache invalidations, got %d", c.dels)
	}

	value, err := svc.Get(ctx, "currency")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if value != "EUR" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestGetMissingKeyNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	_, err := svc.Get(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStockManagementDefaultsEnabled(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	enabled, err := svc.StockManagementEnabled(ctx)
	if err != nil {
		t.Fatalf("stock management: %v", err)
	}
	if !enabled {
		t.Fatal("expected default enabled")
	}

	if err := svc.SetStockManagementEnabled(ctx, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	enabled, err = svc.StockManagementEnabled(ctx)
	if err != nil {
		t.Fatalf("stock management: %v", err)
	}
	if enabled {
		t.Fatal("expected disabled")
	}

	if err := svc.SetStockManagementEnabled(ctx, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	enabled, err = svc.StockManagementEnabled(ctx)
	if err != nil {
		t.Fatalf("stock management: %v", err)
	}
	if !enabled {
		t.Fatal("expected enabled")
	}
}

func TestStockManagementUnparseableValueCountsEnabled(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	if err := svc.Set(ctx, models.SettingStockManagementEnabled, "maybe"); err != nil {
		t.Fatalf("set: %v", err)
	}
	enabled, err := svc.StockManagementEnabled(ctx)
	if err != nil {
		t.Fatalf("stock management: %v", err)
	}
	if !enabled {
		t.Fatal("expected unparseable value to count as enabled")
	}
}
