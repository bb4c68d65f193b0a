package email

import (
	"fmt"
	"html"
	"strings"
)

// StatusUpdate is the content of a status change notification
type StatusUpdate struct {
	OrderID       string
	OldLabel      string
	NewLabel      string
	PaymentStatus *string
	Total         int
}

// BuildStatusUpdateBody builds the HTML body for a status change email
func BuildStatusUpdateBody(u StatusUpdate) string {
	payment := "No payment recorded"
	if u.PaymentStatus != nil {
		payment = *u.PaymentStatus
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Your order has been updated</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee; color: #666;">Previous status</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>
			<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee; color: #666;">New status</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right; font-weight: bold; color: #667eea;">%s</td>
			</tr>
			<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee; color: #666;">Payment</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>
			<tr>
				<td style="padding: 12px; color: #666;">Order total</td>
				<td style="padding: 12px; text-align: right;">%s</td>
			</tr>
		</table>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. Please contact support if you have any questions.
		</p>
	</div>
</body>
</html>`,
		html.EscapeString(u.OrderID),
		html.EscapeString(u.OldLabel),
		html.EscapeString(u.NewLabel),
		html.EscapeString(payment),
		formatNumber(u.Total),
	)
}

// formatNumber formats a number with comma separators
func formatNumber(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
