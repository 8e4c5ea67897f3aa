// Command grant-admin sets or clears the admin claim of an account. The user
// must call POST /auth/refresh (or sign in again) for the change to reach
// their token.
//
//	grant-admin -email owner@example.com
//	grant-admin -email owner@example.com -revoke
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	mongodb "github.com/myrewards/loyalty-system/internal/infrastructure/db/mongo"
	"github.com/myrewards/loyalty-system/internal/pkg/config"
	"github.com/myrewards/loyalty-system/pkg/logger"
)

func main() {
	email := flag.String("email", "", "email of the account to update")
	revoke := flag.Bool("revoke", false, "remove the admin claim instead of granting it")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "usage: grant-admin -email <address> [-revoke]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	log := logger.Init(logger.Options{Level: "info", Pretty: true, Service: "grant-admin"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cfg config.MongoConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid mongo configuration")
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.URI, Database: cfg.Database, Timeout: cfg.Timeout})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repos := mongodb.NewRepositories(db)
	if err := grant(ctx, repos.Credentials, repos.Claims, *email, !*revoke); err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("admin claim not updated")
	}

	log.Info().Str("email", *email).Bool("admin", !*revoke).Msg("admin claim updated; the user must refresh their token")
}
