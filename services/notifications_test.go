package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/events"
	"go-phonestore/models"
	"go-phonestore/store"
	"go-phonestore/utils"
)

type fakeMailer struct {
	sent []utils.Message
}

func (m *fakeMailer) SendEmail(_ context.Context, msg utils.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestNotifierFollowsEmailSettings(t *testing.T) {
	ctx := context.Background()
	settings := NewSettingsProvider(store.NewMemory())
	mailer := &fakeMailer{}
	n := NewNotifier(settings, mailer)

	order := models.Order{ID: "o1", OrderNumber: "ORD-1", Email: "ann@example.com", Status: models.OrderPending, Total: 10}
	require.NoError(t, n.Handle(ctx, events.NewOrderEvent(events.OrderPlaced, order, "")))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ann@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, "ORD-1")

	e := DefaultEmailSettings()
	e.AdminNotifyEmail = "ops@example.com"
	e.StatusUpdates = false
	_, err := settings.UpdateEmail(ctx, e)
	require.NoError(t, err)

	mailer.sent = nil
	require.NoError(t, n.Handle(ctx, events.NewOrderEvent(events.OrderPlaced, order, "")))
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "ops@example.com", mailer.sent[1].To)

	mailer.sent = nil
	order.Status = models.OrderShipped
	require.NoError(t, n.Handle(ctx, events.NewOrderEvent(events.OrderStatusChanged, order, models.OrderPending)))
	assert.Empty(t, mailer.sent, "status mails are switched off")
}
