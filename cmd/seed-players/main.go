package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/database"
	"github.com/turnstake/backend/internal/wallet"
)

// Development seed: a handful of players with known PINs and topped-up
// balances so the matchmaking flow can be exercised end to end.
var seedPlayers = []struct {
	Phone string
	Name  string
	PIN   string
}{
	{"256700000001", "Alice", "1111"},
	{"256700000002", "Bob", "2222"},
	{"256700000003", "Carol", "3333"},
	{"256700000004", "Dan", "4444"},
}

const (
	seedRealBalance    = 10000
	seedVirtualBalance = 50000
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	walletSvc := wallet.New(db)

	for _, sp := range seedPlayers {
		pinHash, err := bcrypt.GenerateFromPassword([]byte(sp.PIN), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash PIN for %s: %v", sp.Phone, err)
		}

		var id string
		err = db.QueryRowxContext(ctx,
			`INSERT INTO players (id, phone_number, display_name, pin_hash, real_balance, virtual_balance, is_active, created_at, last_active)
			 VALUES ($1, $2, $3, $4, 0, 0, TRUE, NOW(), NOW())
			 ON CONFLICT (phone_number) DO UPDATE SET display_name = EXCLUDED.display_name
			 RETURNING id`,
			uuid.NewString(), sp.Phone, sp.Name, string(pinHash)).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed player %s: %v", sp.Phone, err)
		}

		if err := walletSvc.Credit(ctx, id, seedRealBalance, wallet.ModeReal); err != nil {
			log.Fatalf("Failed to credit real balance for %s: %v", sp.Phone, err)
		}
		if err := walletSvc.Credit(ctx, id, seedVirtualBalance, wallet.ModeVirtual); err != nil {
			log.Fatalf("Failed to credit virtual balance for %s: %v", sp.Phone, err)
		}

		log.Printf("✓ Seeded %s (%s), PIN %s", sp.Name, sp.Phone, sp.PIN)
	}

	log.Printf("Seeded %d players", len(seedPlayers))
}
