// internal/infrastructure/messaging/nats/publisher.go
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published for order lifecycle changes
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        int64     `json:"order_id,string"`
	Code           string    `json:"code"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Total          int64     `json:"total"`
	Guest          bool      `json:"guest"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// Publisher emits order events on NATS subjects under a prefix
type Publisher struct {
	conn   publisher
	prefix string
	now    func() time.Time
}

// Connect dials the NATS server with reconnect handling
func Connect(url string, logger logrus.FieldLogger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("storefront-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.WithField("url", c.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.WithField("url", url).Info("NATS connection established")
	return nc, nil
}

func NewPublisher(conn publisher, prefix string) *Publisher {
	if prefix == "" {
		prefix = "storefront"
	}
	return &Publisher{conn: conn, prefix: prefix, now: time.Now}
}

func (p *Publisher) Name() string { return "nats" }

func (p *Publisher) OrderPlaced(_ context.Context, o *order.Order) error {
	return p.publish("orders.placed", p.event(EventOrderPlaced, o, ""))
}

func (p *Publisher) OrderStatusChanged(_ context.Context, o *order.Order, from order.Status) error {
	return p.publish("orders.status_changed", p.event(EventOrderStatusChanged, o, from))
}

func (p *Publisher) event(typ string, o *order.Order, from order.Status) OrderEvent {
	return OrderEvent{
		Type:           typ,
		OrderID:        o.ID,
		Code:           o.Code,
		Status:         string(o.Status),
		PreviousStatus: string(from),
		Total:          o.Total,
		Guest:          o.IsGuest(),
		OccurredAt:     p.now().UTC(),
	}
}

func (p *Publisher) publish(suffix string, evt OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", evt.Type, err)
	}
	subject := p.prefix + "." + suffix
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
