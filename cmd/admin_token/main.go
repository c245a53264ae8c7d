// Command admin_token issues a bearer token for the roomsync admin API.
//
//	ADMIN_JWT_SECRET=... go run ./cmd/admin_token -sub booking-engine -ttl 720h
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"guesthouse/roomsync/internal/auth"
	"guesthouse/roomsync/internal/config"
)

func main() {
	subject := flag.String("sub", "", "caller identity stored in the token subject")
	scope := flag.String("scope", "", "optional scope claim")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-sub is required")
	}

	cfg := config.Load()
	token, err := auth.NewTokenManager(cfg.AdminJWTSecret).Issue(*subject, *scope, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(token)
}
