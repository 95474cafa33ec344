package store

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// ResponseStatus values form a one-way machine:
// typing -> streaming -> (complete | error). Terminal states are never
// left.
type ResponseStatus string

const (
	StatusTyping    ResponseStatus = "typing"
	StatusStreaming ResponseStatus = "streaming"
	StatusComplete  ResponseStatus = "complete"
	StatusError     ResponseStatus = "error"
)

// Session is one user-submitted prompt and its comparison run. Immutable
// after creation except through its child Responses.
type Session struct {
	ID        string      `json:"id"`
	Prompt    string      `json:"prompt"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
	Responses []*Response `json:"responses,omitempty"`
}

// Response is one provider's evolving answer within a Session. Written
// exclusively by the provider task that owns it.
type Response struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Model      string         `json:"model"` // display name
	Content    string         `json:"content"`
	Tokens     int            `json:"tokens"`
	Cost       float64        `json:"cost"`
	Status     ResponseStatus `json:"status"`
	DurationMs *int64         `json:"duration,omitempty"` // set once, at terminal transition
	CreatedAt  time.Time      `json:"created_at"`
}

// ResponseUpdate is a partial update; nil fields keep their stored value,
// so each task only touches the columns it owns at that step.
type ResponseUpdate struct {
	Content    *string
	Tokens     *int
	Cost       *float64
	Status     *ResponseStatus
	DurationMs *int64
}

type Store interface {
	CreateSession(ctx context.Context, prompt, userID string) (*Session, error)
	CreateResponse(ctx context.Context, sessionID, model string) (*Response, error)
	UpdateResponse(ctx context.Context, id string, upd ResponseUpdate) error
	GetSessionWithResponses(ctx context.Context, id string) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]*Session, error)
}
