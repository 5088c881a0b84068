// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementType represents the direction of a stock movement
type MovementType string

const (
	MovementTypeInbound  MovementType = "inbound"  // restock, adjustment increase
	MovementTypeOutbound MovementType = "outbound" // sale, adjustment decrease
)

// MovementReason represents the reason for a stock movement
type MovementReason string

const (
	ReasonSale         MovementReason = "sale"
	ReasonCancellation MovementReason = "cancellation"
	ReasonAdjustment   MovementReason = "adjustment"
)

// Movement is an append-only stock ledger row for a variant
type Movement struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	VariantID        uint           `gorm:"not null;index" json:"variant_id"`
	MovementType     MovementType   `gorm:"not null;size:20" json:"movement_type"`
	Reason           MovementReason `gorm:"not null;size:20" json:"reason"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	PreviousQuantity int            `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int            `gorm:"not null" json:"new_quantity"`
	ReferenceType    string         `gorm:"size:50" json:"reference_type"` // "order"
	ReferenceID      int64          `gorm:"index" json:"reference_id"`
	Actor            string         `gorm:"size:100" json:"actor"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (Movement) TableName() string { return "inventory_movements" }

// Reference ties a movement to the record that caused it
type Reference struct {
	Type  string
	ID    int64
	Actor string
}
