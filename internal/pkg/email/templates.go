// internal/pkg/email/templates.go
package email

import "html/template"

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
<h1 style="color: #333;">{{.SiteName}}</h1>
<p>Hello {{if .UserName}}{{.UserName}}{{else}}there{{end}},</p>
{{template "body" .}}
<hr>
<p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}</p>
</div>
</body>
</html>{{end}}`

const orderConfirmationTemplate = `{{define "body"}}
<p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.
Payment is collected in cash on delivery.</p>
<table style="width: 100%; border-collapse: collapse;">
{{range .Items}}<tr><td>{{.Name}} ({{.SKU}})</td><td>x{{.Quantity}}</td><td style="text-align: right;">{{.Total}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>{{if ne .Discount "0.00"}}Discount: -{{.Discount}}<br>{{end}}<strong>Total due on delivery: {{.OrderTotal}}</strong></p>
<p>Delivering to: {{.DeliveryTo}}</p>
{{if .TrackingCode}}<p>Track your order with code <strong>{{.TrackingCode}}</strong>.</p>{{end}}
{{end}}`

const orderStatusTemplate = `{{define "body"}}
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p>{{.StatusMessage}}</p>
{{if .TrackingCode}}<p>Tracking code: <strong>{{.TrackingCode}}</strong></p>{{end}}
{{end}}`

func parseTemplates() map[EmailType]*template.Template {
	layout := template.Must(template.New("layout").Parse(layoutTemplate))
	return map[EmailType]*template.Template{
		EmailTypeOrderConfirmation: template.Must(template.Must(layout.Clone()).Parse(orderConfirmationTemplate)),
		EmailTypeOrderStatusUpdate: template.Must(template.Must(layout.Clone()).Parse(orderStatusTemplate)),
	}
}
