package seeder

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph123019/ai-model-playground/internal/auth"
)

const (
	TestAccessToken = "test-access-token-12345"
	TestUserEmail   = "dev@playground.local"
)

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SeedTestUser creates a development user and access token so the
// WebSocket endpoint can be exercised without a registration flow.
func SeedTestUser(ctx context.Context, db DB, store auth.Store) {
	var userID string
	err := db.QueryRow(ctx, `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, TestUserEmail).Scan(&userID)
	if err != nil {
		log.Printf("[Seeder] failed to create test user: %v", err)
		return
	}

	if err := store.CreateToken(ctx, userID, TestAccessToken); err != nil {
		log.Printf("[Seeder] token may already exist, skipping: %v", err)
		return
	}

	log.Printf("[Seeder] Test user created successfully")
	log.Printf("[Seeder] Email: %s", TestUserEmail)
	log.Printf("[Seeder] Token: %s", TestAccessToken)
}
