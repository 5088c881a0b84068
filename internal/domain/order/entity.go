// internal/domain/order/entity.go
package order

import (
	"time"
)

// Status represents the fulfilment status of an order
type Status string

const (
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusConfirmed           Status = "CONFIRMED"
	StatusOutForDelivery      Status = "OUT_FOR_DELIVERY"
	StatusDelivered           Status = "DELIVERED"
	StatusPaid                Status = "PAID"
	StatusCompleted           Status = "COMPLETED"
	StatusCancelled           Status = "CANCELLED"
)

// PaymentMethodCOD is the only payment method: cash collected on delivery.
const PaymentMethodCOD = "cod"

// Order is immutable once placed except for Status.
type Order struct {
	ID           int64   `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Code         string  `gorm:"uniqueIndex;not null;size:20" json:"code"`
	TrackingCode *string `gorm:"uniqueIndex;size:40" json:"tracking_code,omitempty"`
	UserID       *uint   `gorm:"index" json:"user_id,omitempty"` // nil for guest orders
	Email        string  `gorm:"size:255" json:"email,omitempty"`
	Status       Status  `gorm:"not null;size:30;index" json:"status"`

	// Amounts in minor currency units
	Subtotal       int64  `gorm:"not null" json:"subtotal"`
	DiscountAmount int64  `gorm:"not null;default:0" json:"discount_amount"`
	Total          int64  `gorm:"not null" json:"total"`
	CouponCode     string `gorm:"size:50" json:"coupon_code,omitempty"`

	PaymentMethod string  `gorm:"size:20;not null;default:'cod'" json:"payment_method"`
	Delivery      Address `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`
	Notes         string  `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a purchased line. UnitPrice is frozen at checkout.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   int64     `gorm:"not null;index" json:"-"`
	VariantID uint      `gorm:"not null;index" json:"variant_id"`
	SKU       string    `gorm:"not null;size:100" json:"sku"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	LineTotal int64     `gorm:"not null" json:"line_total"` // Quantity * UnitPrice
	CreatedAt time.Time `json:"-"`
}

// StatusHistory is an append-only record of status changes
type StatusHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    int64     `gorm:"not null;index" json:"-"`
	FromStatus Status    `gorm:"size:30" json:"from_status,omitempty"`
	ToStatus   Status    `gorm:"not null;size:30" json:"to_status"`
	Actor      string    `gorm:"not null;size:100" json:"actor"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Address is the delivery address, copied by value into the order
type Address struct {
	FullName     string `gorm:"size:200" json:"full_name"`
	Phone        string `gorm:"size:20" json:"phone"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (OrderItem) TableName() string     { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// IsGuest checks if the order was placed without an account
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// ContactEmail returns the address notifications go to, if any
func (o *Order) ContactEmail() string {
	return o.Email
}

// IsClaimable checks if a guarantee claim may be filed against the order
func (o *Order) IsClaimable() bool {
	switch o.Status {
	case StatusDelivered, StatusPaid, StatusCompleted:
		return true
	}
	return false
}
