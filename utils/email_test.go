package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
)

type captureProvider struct {
	got []Message
	err error
}

func (c *captureProvider) Send(_ context.Context, msg Message) error {
	c.got = append(c.got, msg)
	return c.err
}

func TestSendEmailFillsDefaults(t *testing.T) {
	p := &captureProvider{}
	es := NewEmailServiceWith(p, "shop@example.com")

	require.NoError(t, es.SendEmail(context.Background(), Message{To: "ann@example.com", Subject: "Hi", HTML: "<b>Tom &amp; Jerry</b><br>bye"}))
	require.Len(t, p.got, 1)
	assert.Equal(t, "shop@example.com", p.got[0].FromEmail)
	assert.Equal(t, "Phone Store", p.got[0].FromName)
	assert.Equal(t, "Tom & Jerry\nbye", p.got[0].Text)

	assert.Error(t, es.SendEmail(context.Background(), Message{Subject: "nobody"}))

	p.err = errors.New("quota")
	assert.ErrorIs(t, es.SendEmail(context.Background(), Message{To: "x@example.com"}), p.err)
}

func TestOrderEmails(t *testing.T) {
	order := models.Order{
		OrderNumber: "ORD-20260301-ABCDEF12",
		Email:       "ann@example.com",
		Status:      models.OrderShipped,
		Shipping:    models.ShippingInfo{FullName: "Ann <script>"},
		Items:       []models.OrderItem{{Name: "Pixel", Price: 50, Quantity: 2}},
		Payment:     models.PaymentInfo{Method: "card", Brand: "Visa", Last4: "4242"},
		Subtotal:    100,
		Total:       100,
	}

	subject, body := OrderConfirmationEmail("Phone Store", order)
	assert.Equal(t, "Phone Store: order ORD-20260301-ABCDEF12 confirmed", subject)
	assert.Contains(t, body, "Visa ending in 4242")
	assert.Contains(t, body, "$100.00")
	assert.NotContains(t, body, "<script>")

	subject, _ = OrderStatusEmail("Phone Store", order)
	assert.Equal(t, "Phone Store: order ORD-20260301-ABCDEF12 is shipped", subject)

	order.Payment = models.PaymentInfo{Method: "cash_on_delivery"}
	_, body = OrderConfirmationEmail("Phone Store", order)
	assert.Contains(t, body, "cash on delivery")

	subject, _ = AdminOrderEmail(order)
	assert.Equal(t, "New order ORD-20260301-ABCDEF12 ($100.00)", subject)
}
