package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) Store {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByToken(ctx context.Context, token string) (*User, error) {
	tokenHash := hashToken(token)
	query := `
		SELECT u.id, u.email
		FROM access_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1 AND t.active = true
	`

	var u User
	err := s.db.QueryRow(ctx, query, tokenHash).Scan(&u.ID, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &u, nil
}

func (s *PostgresStore) CreateToken(ctx context.Context, userID, token string) error {
	query := `
		INSERT INTO access_tokens (user_id, token_hash, active)
		VALUES ($1, $2, true)
	`

	_, err := s.db.Exec(ctx, query, userID, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}

	return nil
}

func (s *PostgresStore) RevokeToken(ctx context.Context, tokenID string) error {
	query := `UPDATE access_tokens SET active = false WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}

	return nil
}
