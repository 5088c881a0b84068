// internal/domain/notification/dispatcher.go
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Sink receives order events after they are committed
type Sink interface {
	Name() string
	OrderPlaced(ctx context.Context, o *order.Order) error
	OrderStatusChanged(ctx context.Context, o *order.Order, from order.Status) error
}

// Dispatcher fans order events out to sinks in the background. A failing
// or slow sink never affects the request that produced the event.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  logrus.FieldLogger
	wg      sync.WaitGroup
}

var _ order.Notifier = (*Dispatcher)(nil)

func NewDispatcher(logger logrus.FieldLogger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, logger: logger}
}

// OrderPlaced implements order.Notifier
func (d *Dispatcher) OrderPlaced(ctx context.Context, o *order.Order) {
	snapshot := *o
	d.dispatch(ctx, "order_placed", &snapshot, func(ctx context.Context, s Sink) error {
		return s.OrderPlaced(ctx, &snapshot)
	})
}

// OrderStatusChanged implements order.Notifier
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, o *order.Order, from order.Status) {
	snapshot := *o
	d.dispatch(ctx, "order_status_changed", &snapshot, func(ctx context.Context, s Sink) error {
		return s.OrderStatusChanged(ctx, &snapshot, from)
	})
}

// Wait blocks until in-flight deliveries finish or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event string, o *order.Order, fn func(context.Context, Sink) error) {
	// the request context ends with the response; deliveries outlive it
	base := context.WithoutCancel(ctx)

	for _, sink := range d.sinks {
		d.wg.Add(1)
		go func(sink Sink) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			if err := safeCall(ctx, sink, fn); err != nil {
				d.logger.WithFields(logrus.Fields{
					"sink":     sink.Name(),
					"event":    event,
					"order_id": o.ID,
					"code":     o.Code,
					"error":    err.Error(),
				}).Warn("Notification delivery failed")
			}
		}(sink)
	}
}

func safeCall(ctx context.Context, sink Sink, fn func(context.Context, Sink) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return fn(ctx, sink)
}
