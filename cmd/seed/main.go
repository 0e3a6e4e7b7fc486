// SEED TOOL - cmd/seed/main.go
//
// Inserts a handful of sample devices for local development. Credentials
// are hashed exactly as the service hashes them.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"tachyon/internal/domain"
	"tachyon/internal/repository/postgres"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewDeviceRepository(db)
	ctx := context.Background()

	seeds := []struct {
		name       string
		ip         string
		credential string
	}{
		{"router1", "10.0.0.1", "secret123"},
		{"switch1", "10.0.0.2", "secret123"},
		{"firewall1", "192.168.1.1", "changeme"},
	}

	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.credential), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash credential for %s: %v", s.name, err)
		}

		id, err := repo.Create(ctx, &domain.Device{
			DeviceName:     s.name,
			IPAddress:      s.ip,
			CredentialHash: string(hash),
		})
		if err != nil {
			log.Fatalf("Failed to seed %s: %v", s.name, err)
		}
		log.Printf("Seeded device %s (id=%d)", s.name, id)
	}
}
