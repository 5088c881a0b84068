// internal/pkg/testdb/testdb.go
package testdb

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

// Open returns a migrated in-memory database private to t. The pool holds a
// single connection, so concurrent transactions queue instead of failing
// with SQLITE_BUSY.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, postgres.NewMigration(db, logger.Discard()).Migrate())

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// UoW returns a unit of work over db using the driver's default isolation
func UoW(db *gorm.DB) *uow.UnitOfWork {
	return uow.New(db, uow.Options{Isolation: sql.LevelDefault, MaxRetries: 3}, logger.Discard())
}

// Variant inserts an active variant
func Variant(t testing.TB, db *gorm.DB, sku string, listPrice, discount int64, stock int) product.Variant {
	t.Helper()

	p := product.Product{Name: sku, Slug: strings.ToLower(sku) + "-" + uuid.NewString()[:6]}
	require.NoError(t, db.Create(&p).Error)

	v := product.Variant{
		ProductID: p.ID,
		SKU:       sku,
		Name:      sku,
		ListPrice: listPrice,
		Discount:  discount,
		Stock:     stock,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

// Stock reads a variant's current stock
func Stock(t testing.TB, db *gorm.DB, variantID uint) int {
	t.Helper()

	var v product.Variant
	require.NoError(t, db.First(&v, variantID).Error)
	return v.Stock
}

// Coupon inserts an active coupon
func Coupon(t testing.TB, db *gorm.DB, code string, typ coupon.DiscountType, value int64, maxUses *int) coupon.Coupon {
	t.Helper()

	c := coupon.Coupon{
		Code:     coupon.NormalizeCode(code),
		Type:     typ,
		Value:    decimal.NewFromInt(value),
		MaxUses:  maxUses,
		IsActive: true,
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}
