// internal/domain/notification/email.go
package notification

import (
	"context"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/email"
)

// Mailer is the part of the email service the sink needs
type Mailer interface {
	SendOrderConfirmationEmail(ctx context.Context, data email.OrderConfirmationData) error
	SendOrderStatusUpdateEmail(ctx context.Context, data email.OrderStatusUpdateData) error
}

var statusMessages = map[order.Status]string{
	order.StatusConfirmed:      "We have confirmed your order and are preparing it for dispatch.",
	order.StatusOutForDelivery: "Your order is on its way. Please keep the exact amount ready for the courier.",
	order.StatusDelivered:      "Your order has been delivered.",
	order.StatusPaid:           "We have received your cash payment. Thank you!",
	order.StatusCompleted:      "Your order is complete.",
	order.StatusCancelled:      "Your order has been cancelled.",
}

// EmailSink emails the shopper when an order is placed or moves
type EmailSink struct {
	mailer Mailer
}

func NewEmailSink(mailer Mailer) *EmailSink {
	return &EmailSink{mailer: mailer}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) OrderPlaced(ctx context.Context, o *order.Order) error {
	to := o.ContactEmail()
	if to == "" {
		return nil
	}

	items := make([]email.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, email.OrderItem{
			Name:     it.Name,
			SKU:      it.SKU,
			Quantity: it.Quantity,
			Price:    email.FormatAmount(it.UnitPrice),
			Total:    email.FormatAmount(it.LineTotal),
		})
	}

	data := email.OrderConfirmationData{
		OrderNumber:   o.Code,
		TrackingCode:  deref(o.TrackingCode),
		OrderDate:     o.CreatedAt.Format("02 Jan 2006"),
		Subtotal:      email.FormatAmount(o.Subtotal),
		Discount:      email.FormatAmount(o.DiscountAmount),
		OrderTotal:    email.FormatAmount(o.Total),
		PaymentMethod: "Cash on delivery",
		Items:         items,
		DeliveryTo:    o.Delivery.City,
	}
	data.UserEmail = to
	data.UserName = o.Delivery.FullName
	return s.mailer.SendOrderConfirmationEmail(ctx, data)
}

func (s *EmailSink) OrderStatusChanged(ctx context.Context, o *order.Order, _ order.Status) error {
	to := o.ContactEmail()
	msg, ok := statusMessages[o.Status]
	if to == "" || !ok {
		return nil
	}

	data := email.OrderStatusUpdateData{
		OrderNumber:   o.Code,
		TrackingCode:  deref(o.TrackingCode),
		Status:        string(o.Status),
		StatusMessage: msg,
	}
	data.UserEmail = to
	data.UserName = o.Delivery.FullName
	return s.mailer.SendOrderStatusUpdateEmail(ctx, data)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
