// Package events carries order events from the request path to background
// handlers. Events go through RabbitMQ when a broker is configured and are
// handed to the handler in-process otherwise.
package events

import (
	"context"
	"log/slog"
	"time"

	"go-phonestore/models"
)

// Event types
const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
)

// Event is published after an order was created or changed status
type Event struct {
	Type           string       `json:"type"`
	OrderID        string       `json:"orderId"`
	OrderNumber    string       `json:"orderNumber"`
	UserID         string       `json:"userId"`
	Email          string       `json:"email,omitempty"`
	Status         string       `json:"status"`
	PreviousStatus string       `json:"previousStatus,omitempty"`
	Total          float64      `json:"total"`
	Order          models.Order `json:"order"`
	OccurredAt     time.Time    `json:"occurredAt"`
}

// NewOrderEvent builds an event of type t for order
func NewOrderEvent(t string, order models.Order, previousStatus string) Event {
	return Event{
		Type:           t,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Email:          order.Email,
		Status:         order.Status,
		PreviousStatus: previousStatus,
		Total:          order.Total,
		Order:          order,
		OccurredAt:     time.Now().UTC(),
	}
}

// Publisher delivers events to their handlers
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler processes one event
type Handler func(ctx context.Context, e Event) error

// Direct calls the handler in a new goroutine. It is used when no broker is
// configured.
type Direct struct {
	Handler Handler
	Timeout time.Duration
	// Sync makes Publish wait for the handler, used by tests
	Sync bool
}

// Publish runs the handler on a detached context
func (d *Direct) Publish(_ context.Context, e Event) error {
	if d.Handler == nil {
		return nil
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	run := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return d.Handler(ctx, e)
	}
	if d.Sync {
		return run()
	}
	go func() {
		if err := run(); err != nil {
			slog.Error("event handler failed", "type", e.Type, "order", e.OrderID, "error", err)
		}
	}()
	return nil
}

// Discard drops every event
type Discard struct{}

// Publish does nothing
func (Discard) Publish(context.Context, Event) error { return nil }
