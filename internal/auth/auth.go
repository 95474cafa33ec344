package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("access token not found")

// User is the identity attached to an authenticated connection.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// MarshalBinary implements encoding.BinaryMarshaler for Redis
func (u *User) MarshalBinary() ([]byte, error) {
	return json.Marshal(u)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Redis
func (u *User) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, u)
}

type Store interface {
	GetByToken(ctx context.Context, token string) (*User, error)
	CreateToken(ctx context.Context, userID, token string) error
	RevokeToken(ctx context.Context, tokenID string) error
}

// Authenticator verifies bearer credentials, caching verified identities
// in Redis for 5 minutes.
type Authenticator struct {
	store Store
	cache *redis.Client
}

func NewAuthenticator(store Store, cache *redis.Client) *Authenticator {
	return &Authenticator{store: store, cache: cache}
}

func hashToken(token string) string {
	h := sha256.New()
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// Authenticate resolves a bearer token to a user. Used directly by the
// WebSocket handshake and via Middleware for REST routes.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	redisKey := fmt.Sprintf("auth:%s", hashToken(token))

	if a.cache != nil {
		var user User
		err := a.cache.Get(ctx, redisKey).Scan(&user)
		if err == nil {
			return &user, nil
		} else if err != redis.Nil {
			log.Printf("auth: redis error: %v", err)
		}
	}

	user, err := a.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		_ = a.cache.Set(ctx, redisKey, user, 5*time.Minute).Err()
	}

	return user, nil
}

// BearerToken extracts the credential from an incoming request: the
// Authorization header, or the token query parameter for WebSocket
// clients that cannot set headers.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

type Middleware func(next http.Handler) http.Handler

type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

func NewMiddleware(a *Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Generate RequestID
			requestID := uuid.New().String()
			ctx = context.WithValue(ctx, requestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			token := BearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized: missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}

			user, err := a.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, ErrTokenNotFound) {
					http.Error(w, "Unauthorized: invalid access token", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helpers to extract from context
func GetUser(ctx context.Context) *User {
	if u, ok := ctx.Value(userKey).(*User); ok {
		return u
	}
	return nil
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Helpers for testing
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
