// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/guarantee"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/notification"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/tracking"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	natsbus "github.com/your-org/storefront-backend/internal/infrastructure/messaging/nats"
	"github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront")

	if err := validation.Register(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.Migrate(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	if cfg.IsDevelopment() && cfg.App.SeedData {
		if err := migration.SeedInitialData(); err != nil {
			log.Warnf("Data seeding failed: %v", err)
		}
	}

	node, err := snowflake.NewNode(cfg.Order.NodeID)
	if err != nil {
		log.Fatalf("Failed to create order id generator: %v", err)
	}

	m := metrics.New("storefront")

	// post-commit side effects
	sinks := []notification.Sink{
		notification.NewEmailSink(email.NewEmailService(cfg.Notification.Email, cfg.App.Name, log)),
		m,
	}
	if cfg.Notification.NATSURL != "" {
		nc, err := natsbus.Connect(cfg.Notification.NATSURL, log)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		sinks = append(sinks, natsbus.NewPublisher(nc, cfg.Notification.SubjectPrefix))
	}
	dispatcher := notification.NewDispatcher(log, 10*time.Second, sinks...)

	gdb := db.GetDB()
	runner := uow.New(gdb, uow.Options{
		Isolation:  uow.IsolationFromString(cfg.Database.TxIsolation),
		MaxRetries: cfg.Database.TxMaxRetries,
		Backoff:    cfg.Database.TxRetryBackoff,
	}, log)

	products := product.NewRepository(gdb)
	coupons := coupon.NewRepository(gdb)
	engine := pricing.NewEngine(products, coupons)
	stock := inventory.NewService(gdb, log)
	carts := cart.NewStore(gdb, runner, engine, log)
	addresses := user.NewAddressService(gdb)
	orders := order.NewService(gdb, runner, stock, dispatcher, log)
	checkoutService := checkout.NewService(checkout.Deps{
		UoW:          runner,
		Carts:        carts,
		Pricing:      engine,
		Coupons:      coupons,
		Orders:       orders,
		Inventory:    stock,
		Addresses:    addresses,
		IDs:          node,
		Notifier:     dispatcher,
		Recorder:     m,
		Logger:       log,
		CodeAttempts: cfg.Order.CodeAttempts,
	})
	claims := guarantee.NewService(gdb, runner, log)
	tracker := tracking.NewResolver(gdb)

	server, err := http.NewServer(cfg, log, http.Dependencies{
		JWT:     auth.NewJWTManager(cfg.JWT),
		Limiter: redisClient,
		Metrics: m,
		Health: handlers.NewHealthHandler(cfg.App.Version, map[string]handlers.Pinger{
			"database": db,
			"redis":    redisClient,
		}),
		Handlers: &routes.Handlers{
			Cart:      handlers.NewCartHandler(carts, cfg.Cart),
			Checkout:  handlers.NewCheckoutHandler(checkoutService, engine, carts),
			Orders:    handlers.NewOrderHandler(orders, tracker, m),
			Guarantee: handlers.NewGuaranteeHandler(claims),
			Addresses: handlers.NewUserAddressHandler(addresses),
			Products:  handlers.NewProductHandler(engine),
			Inventory: handlers.NewInventoryHandler(stock),
		},
	})
	if err != nil {
		log.Fatalf("Failed to build HTTP server: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}
	if err := dispatcher.Wait(ctx); err != nil {
		log.Warnf("Pending notifications abandoned: %v", err)
	}

	log.Info("Server shutdown completed")
}
