package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) Store {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSession(ctx context.Context, prompt, userID string) (*Session, error) {
	query := `
		INSERT INTO sessions (prompt, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	sess := &Session{Prompt: prompt, UserID: userID}
	err := s.db.QueryRow(ctx, query, prompt, userID).Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sess, nil
}

func (s *PostgresStore) CreateResponse(ctx context.Context, sessionID, model string) (*Response, error) {
	query := `
		INSERT INTO responses (session_id, model, content, tokens, cost, status)
		VALUES ($1, $2, '', 0, 0, $3)
		RETURNING id, created_at
	`

	resp := &Response{
		SessionID: sessionID,
		Model:     model,
		Status:    StatusTyping,
	}
	err := s.db.QueryRow(ctx, query, sessionID, model, StatusTyping).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	return resp, nil
}

func (s *PostgresStore) UpdateResponse(ctx context.Context, id string, upd ResponseUpdate) error {
	query := `
		UPDATE responses SET
			content     = COALESCE($2, content),
			tokens      = COALESCE($3, tokens),
			cost        = COALESCE($4, cost),
			status      = COALESCE($5, status),
			duration_ms = COALESCE($6, duration_ms)
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, upd.Content, upd.Tokens, upd.Cost, upd.Status, upd.DurationMs)
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update response: no row with id %s", id)
	}

	return nil
}

func (s *PostgresStore) GetSessionWithResponses(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, prompt, user_id, created_at
		FROM sessions
		WHERE id = $1
	`

	var sess Session
	err := s.db.QueryRow(ctx, query, id).Scan(&sess.ID, &sess.Prompt, &sess.UserID, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.Responses, err = s.responsesForSession(ctx, id)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func (s *PostgresStore) ListSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	query := `
		SELECT id, prompt, user_id, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Prompt, &sess.UserID, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	for _, sess := range sessions {
		sess.Responses, err = s.responsesForSession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

func (s *PostgresStore) responsesForSession(ctx context.Context, sessionID string) ([]*Response, error) {
	query := `
		SELECT id, session_id, model, content, tokens, cost, status, duration_ms, created_at
		FROM responses
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var responses []*Response
	for rows.Next() {
		var r Response
		err := rows.Scan(
			&r.ID, &r.SessionID, &r.Model, &r.Content,
			&r.Tokens, &r.Cost, &r.Status, &r.DurationMs, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}

	return responses, nil
}
