// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart is owned by exactly one of a guest token or a user. It stores
// quantities only; prices are always read live.
type Cart struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GuestToken *string   `gorm:"uniqueIndex;size:64;check:chk_carts_owner,(guest_token IS NULL) <> (user_id IS NULL)" json:"-"`
	UserID     *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Lines []CartLine `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
}

// CartLine is one variant in a cart. (cart_id, variant_id) is unique.
type CartLine struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_lines_cart_variant" json:"-"`
	VariantID uint      `gorm:"not null;uniqueIndex:idx_cart_lines_cart_variant;index" json:"variant_id"`
	Quantity  int       `gorm:"not null;check:chk_cart_lines_quantity,quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartLine) TableName() string { return "cart_lines" }

// Quantities returns the lines as a variant -> quantity map
func (c *Cart) Quantities() map[uint]int {
	out := make(map[uint]int, len(c.Lines))
	for _, l := range c.Lines {
		out[l.VariantID] += l.Quantity
	}
	return out
}

// IsEmpty checks if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// LineInput is a requested (variant, quantity) pair. Quantity <= 0 removes the line.
type LineInput struct {
	VariantID uint `json:"variant_id" binding:"required,min=1"`
	Quantity  int  `json:"quantity"`
}

// ViewLine is a cart line joined with its live price.
type ViewLine struct {
	VariantID uint   `json:"variant_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	ListPrice int64  `json:"list_price"`
	LineTotal int64  `json:"line_total"`
	InStock   bool   `json:"in_stock"`
	Available bool   `json:"available"`
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique items
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`
}

// View is the cart as rendered to the shopper
type View struct {
	CartID uint       `json:"cart_id"`
	Lines  []ViewLine `json:"lines"`
	Totals Totals     `json:"totals"`
}
