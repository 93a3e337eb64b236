package services

import (
	"context"
	"log/slog"

	"go-phonestore/events"
	"go-phonestore/utils"
)

// Mailer sends an email message
type Mailer interface {
	SendEmail(ctx context.Context, msg utils.Message) error
}

// Notifier turns order events into customer and admin emails according to
// the email settings.
type Notifier struct {
	Settings *SettingsProvider
	Mailer   Mailer
}

// NewNotifier creates a Notifier
func NewNotifier(settings *SettingsProvider, mailer Mailer) *Notifier {
	return &Notifier{Settings: settings, Mailer: mailer}
}

// Handle is an events.Handler
func (n *Notifier) Handle(ctx context.Context, e events.Event) error {
	snap := n.Settings.Current()
	from := func(msg utils.Message) utils.Message {
		msg.FromName = snap.Email.FromName
		msg.FromEmail = snap.Email.FromEmail
		return msg
	}

	switch e.Type {
	case events.OrderPlaced:
		if snap.Email.OrderConfirmation && e.Email != "" {
			subject, body := utils.OrderConfirmationEmail(snap.Store.StoreName, e.Order)
			if err := n.Mailer.SendEmail(ctx, from(utils.Message{To: e.Email, Subject: subject, HTML: body})); err != nil {
				return err
			}
		}
		if snap.Email.AdminNotifyEmail != "" {
			subject, body := utils.AdminOrderEmail(e.Order)
			if err := n.Mailer.SendEmail(ctx, from(utils.Message{To: snap.Email.AdminNotifyEmail, Subject: subject, HTML: body})); err != nil {
				return err
			}
		}
	case events.OrderStatusChanged:
		if !snap.Email.StatusUpdates || e.Email == "" {
			return nil
		}
		subject, body := utils.OrderStatusEmail(snap.Store.StoreName, e.Order)
		return n.Mailer.SendEmail(ctx, from(utils.Message{To: e.Email, Subject: subject, HTML: body}))
	default:
		slog.WarnContext(ctx, "unknown event type", "type", e.Type)
	}
	return nil
}
