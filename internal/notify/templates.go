// AngelaMos | 2026
// templates.go

package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const (
	TemplatePasswordReset     = "password_reset"
	TemplateOrderConfirmation = "order_confirmation"
)

func PasswordResetEmail(to, name, link string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}

	text := fmt.Sprintf(
		"%s,\n\nWe received a request to reset your password. "+
			"Open the link below within %d minutes to choose a new one:\n\n%s\n\n"+
			"If you did not ask for this you can ignore this email.\n",
		greeting, minutes, link,
	)

	htmlBody := fmt.Sprintf(
		"<p>%s,</p><p>We received a request to reset your password. "+
			"The link expires in %d minutes.</p>"+
			`<p><a href="%s">Reset password</a></p>`+
			"<p>If you did not ask for this you can ignore this email.</p>",
		html.EscapeString(greeting), minutes, html.EscapeString(link),
	)

	return Message{
		To:       to,
		Subject:  "Reset your password",
		Text:     text,
		HTML:     htmlBody,
		Template: TemplatePasswordReset,
	}
}

type OrderLine struct {
	Name     string
	Quantity int
	Price    float64
}

type OrderSummary struct {
	Number            string
	Lines             []OrderLine
	Subtotal          float64
	Shipping          float64
	Tax               float64
	Total             float64
	EstimatedDelivery time.Time
}

func OrderConfirmationEmail(to string, o OrderSummary) Message {
	var text, rows strings.Builder

	fmt.Fprintf(&text, "Thanks for your order %s.\n\n", o.Number)
	for _, l := range o.Lines {
		fmt.Fprintf(&text, "%d x %s  $%.2f\n", l.Quantity, l.Name, l.Price)
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td><td>$%.2f</td></tr>",
			l.Quantity, html.EscapeString(l.Name), l.Price)
	}
	fmt.Fprintf(&text,
		"\nSubtotal: $%.2f\nShipping: $%.2f\nTax: $%.2f\nTotal: $%.2f\n\nEstimated delivery: %s\n",
		o.Subtotal, o.Shipping, o.Tax, o.Total, o.EstimatedDelivery.Format("Jan 2, 2006"),
	)

	htmlBody := fmt.Sprintf(
		"<p>Thanks for your order <strong>%s</strong>.</p>"+
			"<table>%s</table>"+
			"<p>Subtotal: $%.2f<br>Shipping: $%.2f<br>Tax: $%.2f<br><strong>Total: $%.2f</strong></p>"+
			"<p>Estimated delivery: %s</p>",
		html.EscapeString(o.Number), rows.String(),
		o.Subtotal, o.Shipping, o.Tax, o.Total,
		o.EstimatedDelivery.Format("Jan 2, 2006"),
	)

	return Message{
		To:       to,
		Subject:  "Order confirmation " + o.Number,
		Text:     text.String(),
		HTML:     htmlBody,
		Template: TemplateOrderConfirmation,
	}
}
