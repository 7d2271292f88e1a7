// Command devtoken mints an access token for local testing of the admin
// routes. Real tokens come from the marketplace session service.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/primewheels/agent-service/internal/auth"
	"github.com/primewheels/agent-service/internal/config"
)

func main() {
	email := flag.String("email", "", "email of the caller; add it to HOST_EMAILS for admin access")
	userID := flag.String("user", "", "user id (UUID); generated when empty")
	name := flag.String("name", "", "display name")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}
	if *userID == "" {
		*userID = uuid.NewString()
	} else if _, err := uuid.Parse(*userID); err != nil {
		log.Fatalf("invalid -user: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	token, expiresAt, err := tokens.GenerateToken(*userID, *email, *name)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Printf("user:    %s\nexpires: %s\ncookie:  %s=%s\n", *userID, expiresAt.Format("2006-01-02 15:04:05Z07:00"), cfg.Auth.CookieName, token)
}
