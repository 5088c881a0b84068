// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/guarantee"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every table in dependency order
func Models() []interface{} {
	return []interface{}{
		// Catalog (read-mostly, owned upstream)
		&product.Product{},
		&product.Variant{},

		&user.Address{},
		&coupon.Coupon{},

		&cart.Cart{},
		&cart.CartLine{},

		&order.Order{},
		&order.OrderItem{},
		&order.StatusHistory{},

		&inventory.Movement{},

		&guarantee.Claim{},
		&guarantee.ClaimHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// integrityIndexes back invariants the services rely on. Failing to
// create one is fatal.
var integrityIndexes = []string{
	// at most one live guarantee claim per order
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_guarantee_claims_live_order ON guarantee_claims(order_id) WHERE status <> 'REJECTED'",
}

// lookupIndexes only speed up reads
var lookupIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_variants_product_active ON variants(product_id, is_active)",
	"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, id)",
	"CREATE INDEX IF NOT EXISTS idx_inventory_movements_variant ON inventory_movements(variant_id, id DESC)",
	"CREATE INDEX IF NOT EXISTS idx_coupons_active ON coupons(is_active, expires_at)",
	"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
}

// CreateIndexes creates indexes that GORM tags cannot express
func (m *Migration) CreateIndexes() error {
	m.logger.Info("🔄 Creating additional database indexes...")

	for _, stmt := range integrityIndexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create integrity index: %w", err)
		}
	}

	successCount, failCount := 0, 0
	for _, stmt := range lookupIndexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			m.logger.WithError(err).Warnf("⚠️ Failed to create index: %s", stmt)
			failCount++
			continue
		}
		successCount++
	}

	m.logger.Infof("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// Migrate runs auto-migrations and index creation
func (m *Migration) Migrate() error {
	if err := m.RunAutoMigrations(); err != nil {
		return err
	}
	return m.CreateIndexes()
}

// SeedInitialData inserts a small development catalog and coupons
func (m *Migration) SeedInitialData() error {
	m.logger.Info("🌱 Seeding initial data...")

	if err := m.seedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if err := m.seedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	m.logger.Info("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedCatalog() error {
	products := []product.Product{
		{
			Name: "Classic Cotton Tee",
			Slug: "classic-cotton-tee",
			Variants: []product.Variant{
				{SKU: "TEE-BLK-M", Name: "Classic Cotton Tee / Black / M", ListPrice: 60000, Discount: 0, Stock: 40},
				{SKU: "TEE-BLK-L", Name: "Classic Cotton Tee / Black / L", ListPrice: 60000, Discount: 5000, Stock: 25},
			},
		},
		{
			Name: "Everyday Backpack",
			Slug: "everyday-backpack",
			Variants: []product.Variant{
				{SKU: "BAG-GRY", Name: "Everyday Backpack / Grey", ListPrice: 12000, Discount: 0, Stock: 10},
			},
		},
	}

	for _, p := range products {
		var existing product.Product
		err := m.db.Where("slug = ?", p.Slug).First(&existing).Error
		if err == nil {
			m.logger.Debugf("⏭️ Product already exists: %s", p.Name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p := p
		if err := m.db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.Slug, err)
		}
		m.logger.Infof("📦 Created product: %s (%d variants)", p.Name, len(p.Variants))
	}
	return nil
}

func (m *Migration) seedCoupons() error {
	maxUses := 100
	expires := time.Now().UTC().AddDate(1, 0, 0)
	coupons := []coupon.Coupon{
		{Code: "SAVE10", Description: "10% off", Type: coupon.DiscountPercentage, Value: decimal.NewFromInt(10), ExpiresAt: &expires},
		{Code: "FLAT500", Description: "500 off", Type: coupon.DiscountFixed, Value: decimal.NewFromInt(500), MaxUses: &maxUses},
	}

	for _, c := range coupons {
		c := c
		result := m.db.Where("code = ?", c.Code).FirstOrCreate(&c)
		if result.Error != nil {
			return fmt.Errorf("failed to create coupon %s: %w", c.Code, result.Error)
		}
		if result.RowsAffected > 0 {
			m.logger.Infof("🏷️ Created coupon: %s", c.Code)
		}
	}
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	m.logger.Warn("⚠️ WARNING: Dropping all database tables...")

	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			m.logger.WithError(err).Warnf("⚠️ Failed to drop table for %T", models[i])
		}
	}

	m.logger.Info("✅ All tables dropped successfully")
	return nil
}
