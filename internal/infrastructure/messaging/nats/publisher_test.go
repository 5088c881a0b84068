package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []message
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{subject: subject, data: data})
	return nil
}

func TestPublisher(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code := "trk"
	o := &order.Order{ID: 99, Code: "ORD-ABC2345", TrackingCode: &code, Status: order.StatusConfirmed, Total: 10800}

	t.Run("order placed", func(t *testing.T) {
		conn := &fakeConn{}
		p := NewPublisher(conn, "shop")
		p.now = func() time.Time { return at }

		require.NoError(t, p.OrderPlaced(context.Background(), o))
		require.Len(t, conn.msgs, 1)
		assert.Equal(t, "shop.orders.placed", conn.msgs[0].subject)

		var evt OrderEvent
		require.NoError(t, json.Unmarshal(conn.msgs[0].data, &evt))
		assert.Equal(t, OrderEvent{
			Type:       EventOrderPlaced,
			OrderID:    99,
			Code:       "ORD-ABC2345",
			Status:     "CONFIRMED",
			Total:      10800,
			Guest:      true,
			OccurredAt: at,
		}, evt)
	})

	t.Run("status changed", func(t *testing.T) {
		conn := &fakeConn{}
		p := NewPublisher(conn, "")

		require.NoError(t, p.OrderStatusChanged(context.Background(), o, order.StatusPendingConfirmation))
		require.Len(t, conn.msgs, 1)
		assert.Equal(t, "storefront.orders.status_changed", conn.msgs[0].subject)
		assert.Contains(t, string(conn.msgs[0].data), `"previous_status":"PENDING_CONFIRMATION"`)
		assert.Contains(t, string(conn.msgs[0].data), `"order_id":"99"`)
	})

	t.Run("publish failure", func(t *testing.T) {
		p := NewPublisher(&fakeConn{err: errors.New("connection closed")}, "shop")
		err := p.OrderPlaced(context.Background(), o)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shop.orders.placed")
	})
}
