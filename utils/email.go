package utils

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"go-phonestore/models"
)

// Message is an outgoing email
type Message struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
	Text      string
}

// EmailProvider delivers a message through one vendor
type EmailProvider interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService sends emails through the configured provider. Without a
// provider messages are only logged.
type EmailService struct {
	provider  EmailProvider
	fromEmail string
	fromName  string
}

// NewEmailService selects the provider by name: "sendgrid", "postmark",
// anything else logs messages instead of sending them.
func NewEmailService(provider, sendgridKey, postmarkToken, sender string) *EmailService {
	es := &EmailService{fromEmail: sender, fromName: "Phone Store"}
	switch provider {
	case "sendgrid":
		es.provider = &SendGridProvider{APIKey: sendgridKey}
	case "postmark":
		es.provider = &PostmarkProvider{client: postmark.NewClient(postmarkToken, "")}
	default:
		es.provider = logProvider{}
	}
	return es
}

// NewEmailServiceWith uses an explicit provider
func NewEmailServiceWith(p EmailProvider, sender string) *EmailService {
	return &EmailService{provider: p, fromEmail: sender, fromName: "Phone Store"}
}

// SendEmail fills the default sender and plain text body and sends msg
func (es *EmailService) SendEmail(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient is empty")
	}
	if msg.FromEmail == "" {
		msg.FromEmail = es.fromEmail
	}
	if msg.FromName == "" {
		msg.FromName = es.fromName
	}
	if msg.Text == "" {
		msg.Text = htmlToText(msg.HTML)
	}
	if err := es.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	slog.InfoContext(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// SendGridProvider sends through the SendGrid v3 API
type SendGridProvider struct {
	APIKey string
}

func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	if p.APIKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(msg.FromName, msg.FromEmail),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)
	response, err := sendgrid.NewSendClient(p.APIKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}

// PostmarkProvider sends through Postmark
type PostmarkProvider struct {
	client *postmark.Client
}

func (p *PostmarkProvider) Send(_ context.Context, msg Message) error {
	from := msg.FromEmail
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}
	_, err := p.client.SendEmail(postmark.Email{
		From:     from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
	})
	return err
}

type logProvider struct{}

func (logProvider) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "email provider not configured, message not sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// OrderConfirmationEmail renders the confirmation sent after checkout
func OrderConfirmationEmail(storeName string, order models.Order) (subject, body string) {
	subject = fmt.Sprintf("%s: order %s confirmed", storeName, order.OrderNumber)
	var rows strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>$%.2f</td></tr>",
			html.EscapeString(it.Name), it.Quantity, it.Price*float64(it.Quantity))
	}
	body = fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order <strong>%s</strong> has been placed successfully.<br><br>"+
			"<table>%s</table><br>Subtotal: $%.2f<br>Shipping: $%.2f<br>Tax: $%.2f<br>Total Amount: <strong>$%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with %s!",
		html.EscapeString(order.Shipping.FullName),
		order.OrderNumber,
		rows.String(),
		order.Subtotal, order.ShippingFee, order.Tax, order.Total,
		paymentLabel(order.Payment),
		html.EscapeString(storeName),
	)
	return subject, body
}

// OrderStatusEmail renders the notice sent when an order changes status
func OrderStatusEmail(storeName string, order models.Order) (subject, body string) {
	subject = fmt.Sprintf("%s: order %s is %s", storeName, order.OrderNumber, strings.ToLower(order.Status))
	body = fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>The status of your order <strong>%s</strong> is now <strong>%s</strong>.<br><br>Total Amount: $%.2f",
		html.EscapeString(order.Shipping.FullName),
		order.OrderNumber,
		order.Status,
		order.Total,
	)
	return subject, body
}

// AdminOrderEmail renders the notice sent to the store owner for new orders
func AdminOrderEmail(order models.Order) (subject, body string) {
	subject = fmt.Sprintf("New order %s ($%.2f)", order.OrderNumber, order.Total)
	body = fmt.Sprintf("Order <strong>%s</strong> was placed by %s with %d item(s), total $%.2f.",
		order.OrderNumber, html.EscapeString(order.Email), len(order.Items), order.Total)
	return subject, body
}

// PasswordResetEmail renders the password reset link
func PasswordResetEmail(storeName, link string) (subject, body string) {
	subject = "Reset your " + storeName + " password"
	body = fmt.Sprintf(
		"<strong>Reset your password by clicking on the following link:</strong> <a href=\"%s\">Reset Password</a><br><br>If you did not ask for this, ignore this email.",
		html.EscapeString(link),
	)
	return subject, body
}

func paymentLabel(p models.PaymentInfo) string {
	if p.Last4 != "" {
		return fmt.Sprintf("%s ending in %s", p.Brand, p.Last4)
	}
	return strings.ReplaceAll(p.Method, "_", " ")
}

func htmlToText(s string) string {
	r := strings.NewReplacer("<br>", "\n", "</tr>", "\n", "</td>", " ")
	s = r.Replace(s)
	var b strings.Builder
	in := false
	for _, c := range s {
		switch {
		case c == '<':
			in = true
		case c == '>':
			in = false
		case !in:
			b.WriteRune(c)
		}
	}
	return html.UnescapeString(b.String())
}
