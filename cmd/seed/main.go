// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@refood.dev) already exists.
package main

import (
	"context"
	"log"

	actordomain "food-rescue-platform/backend/internal/actor/domain"
	actorrepo "food-rescue-platform/backend/internal/actor/repository"
	"food-rescue-platform/backend/internal/config"
	"food-rescue-platform/backend/internal/db"
	dbmigrate "food-rescue-platform/backend/internal/db/migrate"
	"food-rescue-platform/backend/internal/security"
)

const (
	adminEmail  = "admin@refood.dev"
	userEmail   = "utente@refood.dev"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := dbmigrate.Run(cfg.DatabaseURL, "up"); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	dbConn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbConn.Close()

	ctx := context.Background()
	actors := actorrepo.NewPostgresRepository(dbConn)

	existing, err := actors.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed: lookup admin: %v", err)
	}
	if existing != nil {
		log.Println("seed: dev data already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	admin := &actordomain.Actor{
		Email:        adminEmail,
		PasswordHash: hash,
		Name:         "Admin",
		Surname:      "ReFood",
		Role:         actordomain.RoleAdministrator,
	}
	if err := actors.Create(ctx, admin, nil); err != nil {
		log.Fatalf("seed: create admin: %v", err)
	}

	user := &actordomain.Actor{
		Email:        userEmail,
		PasswordHash: hash,
		Name:         "Utente",
		Surname:      "Demo",
		Role:         actordomain.RoleUser,
	}
	userType := &actordomain.UserType{
		Type:    "Privato",
		Address: "Via Roma 1, Torino",
		Phone:   "3331234567",
		Email:   userEmail,
	}
	if err := actors.Create(ctx, user, userType); err != nil {
		log.Fatalf("seed: create demo user: %v", err)
	}

	log.Printf("seed: created %s and %s (password %q)", adminEmail, userEmail, devPassword)
}
