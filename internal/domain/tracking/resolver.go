// internal/domain/tracking/resolver.go
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/phone"
)

// Summary is what a tracking lookup may reveal. Contact details beyond the
// delivery city are never included.
type Summary struct {
	Code           string          `json:"code"`
	Status         order.Status    `json:"status"`
	PlacedAt       time.Time       `json:"placed_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Subtotal       int64           `json:"subtotal"`
	DiscountAmount int64           `json:"discount_amount"`
	Total          int64           `json:"total"`
	PaymentMethod  string          `json:"payment_method"`
	DeliveryCity   string          `json:"delivery_city"`
	Items          []SummaryItem   `json:"items"`
	History        []SummaryStatus `json:"history"`
}

// SummaryItem is a purchased line in a tracking summary
type SummaryItem struct {
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// SummaryStatus is one step of the status history
type SummaryStatus struct {
	Status order.Status `json:"status"`
	At     time.Time    `json:"at"`
}

// Resolver answers "where is my order" for guests and signed-in shoppers.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Lookup finds an order by code. Guests must present the tracking code
// (and, when supplied, a matching phone). Signed-in callers may use either
// the order code or tracking code but only see their own orders. Every
// mismatch yields the same NotFound.
func (r *Resolver) Lookup(ctx context.Context, caller identity.Identity, code, phoneNumber string) (*Summary, error) {
	const op = "tracking.lookup"
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation(op, "code is required")
	}
	if err := caller.Validate(); err != nil {
		return nil, apperr.NotFound(op)
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	if caller.IsUser() {
		query = query.Where("user_id = ? AND (code = ? OR tracking_code = ?)", caller.UserID(), strings.ToUpper(code), code)
	} else {
		query = query.Where("tracking_code = ?", code)
	}

	var o order.Order
	err := query.First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(op)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}

	if strings.TrimSpace(phoneNumber) != "" && !phone.Match(o.Delivery.Phone, phoneNumber, o.Delivery.Country) {
		return nil, apperr.NotFound(op)
	}

	return summarize(&o), nil
}

func summarize(o *order.Order) *Summary {
	s := &Summary{
		Code:           o.Code,
		Status:         o.Status,
		PlacedAt:       o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		Total:          o.Total,
		PaymentMethod:  o.PaymentMethod,
		DeliveryCity:   o.Delivery.City,
		Items:          make([]SummaryItem, 0, len(o.Items)),
		History:        make([]SummaryStatus, 0, len(o.StatusHistory)),
	}
	for _, it := range o.Items {
		s.Items = append(s.Items, SummaryItem{
			Name:      it.Name,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	for _, h := range o.StatusHistory {
		s.History = append(s.History, SummaryStatus{Status: h.ToStatus, At: h.CreatedAt})
	}
	return s
}
