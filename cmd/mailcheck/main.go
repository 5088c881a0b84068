// cmd/mailcheck/main.go sends a sample order confirmation through the
// configured email provider.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/mailcheck <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	svc := email.NewEmailService(cfg.Notification.Email, cfg.App.Name, logger.New(cfg))

	data := email.OrderConfirmationData{
		OrderNumber:   "ORD-TEST234",
		TrackingCode:  "sample-tracking-code",
		OrderDate:     time.Now().Format("02 Jan 2006"),
		Subtotal:      email.FormatAmount(12000),
		Discount:      email.FormatAmount(1200),
		OrderTotal:    email.FormatAmount(10800),
		PaymentMethod: "Cash on delivery",
		Items: []email.OrderItem{{
			Name:     "Sample tee",
			SKU:      "TEE-M",
			Quantity: 2,
			Price:    email.FormatAmount(6000),
			Total:    email.FormatAmount(12000),
		}},
		DeliveryTo: "Bengaluru",
	}
	data.UserEmail = os.Args[1]
	data.UserName = "Test Customer"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.SendOrderConfirmationEmail(ctx, data); err != nil {
		log.Fatal("Send failed: ", err)
	}
	log.Printf("Sample confirmation sent to %s via %q", os.Args[1], cfg.Notification.Email.Provider)
}
