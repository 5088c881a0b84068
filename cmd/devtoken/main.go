// cmd/devtoken/main.go prints a bearer token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func main() {
	userID := flag.Uint("user", 1, "user id")
	emailAddr := flag.String("email", "", "email claim")
	admin := flag.Bool("admin", false, "grant admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to mint tokens in production")
	}

	token, err := auth.NewJWTManager(cfg.JWT).GenerateAccessToken(uint(*userID), *emailAddr, *admin, *ttl)
	if err != nil {
		log.Fatal("Error generating token: ", err)
	}

	if _, err := auth.NewJWTManager(cfg.JWT).ValidateAccessToken(token); err != nil {
		log.Fatal("Token verification failed: ", err)
	}

	fmt.Println(token)
}
