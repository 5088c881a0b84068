// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product is the catalog parent of sellable variants. Catalog CRUD lives
// in another service; this one only reads it.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Variants []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// Variant is the sellable unit. Prices are minor currency units.
type Variant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	SKU       string    `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	ListPrice int64     `gorm:"not null;check:chk_variants_list_price,list_price >= 0" json:"list_price"`
	Discount  int64     `gorm:"not null;default:0" json:"discount"`
	Stock     int       `gorm:"not null;default:0;check:chk_variants_stock,stock >= 0" json:"stock"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string { return "products" }
func (Variant) TableName() string { return "variants" }

// EffectivePrice is the price a shopper pays per unit, never negative.
func (v *Variant) EffectivePrice() int64 {
	p := v.ListPrice - v.Discount
	if p < 0 {
		return 0
	}
	return p
}
