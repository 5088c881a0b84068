// internal/domain/order/notifier.go
package order

import (
	"context"
)

//go:generate mockgen -source=./notifier.go -package=mocks -destination=./mocks/notifier.mock.go Notifier

// Notifier receives committed order events. Implementations must not block
// and must swallow their own failures.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order)
	OrderStatusChanged(ctx context.Context, o *Order, from Status)
}

// NopNotifier discards events
type NopNotifier struct{}

func (NopNotifier) OrderPlaced(context.Context, *Order)                {}
func (NopNotifier) OrderStatusChanged(context.Context, *Order, Status) {}
