// internal/pkg/email/types.go
package email

import (
	"fmt"
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeOrderStatusUpdate EmailType = "order_status_update"
)

// Email represents an email message
type Email struct {
	To          []string               `json:"to"`
	Subject     string                 `json:"subject"`
	HTMLContent string                 `json:"html_content"`
	Type        EmailType              `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName  string
	UserName  string
	UserEmail string
	Year      int
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	OrderNumber   string
	TrackingCode  string
	OrderDate     string
	Subtotal      string
	Discount      string
	OrderTotal    string
	PaymentMethod string
	Items         []OrderItem
	DeliveryTo    string
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string
	SKU      string
	Quantity int
	Price    string
	Total    string
}

// OrderStatusUpdateData contains data for order status updates
type OrderStatusUpdateData struct {
	EmailTemplateData
	OrderNumber   string
	TrackingCode  string
	Status        string
	StatusMessage string
}

func baseTemplateData(siteName, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:  siteName,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      time.Now().Year(),
	}
}

// FormatAmount renders minor units as a decimal amount, e.g. 10800 -> "108.00"
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
