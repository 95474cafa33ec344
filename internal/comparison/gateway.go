package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/joseph123019/ai-model-playground/internal/auth"
	"github.com/joseph123019/ai-model-playground/pkg/ratelimit"
)

// Gateway upgrades authenticated clients to a persistent WebSocket
// connection and dispatches their comparison requests to the
// orchestrator.
type Gateway struct {
	auth     *auth.Authenticator
	orch     *Orchestrator
	limiter  *ratelimit.Limiter
	upgrader websocket.Upgrader
}

func NewGateway(a *auth.Authenticator, orch *Orchestrator, limiter *ratelimit.Limiter) *Gateway {
	return &Gateway{
		auth:    a,
		orch:    orch,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Auth is a bearer token, not a cookie, so cross-origin
			// upgrades carry no ambient credentials.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleCompare is the WebSocket endpoint. The bearer credential must be
// valid before the upgrade; an unauthenticated connection is terminated
// before any request is accepted.
func (g *Gateway) HandleCompare(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	user, err := g.auth.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("gateway: user %s connected", user.Email)
	client := newClientConn(conn)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			_ = client.Emit(EventError, ErrorPayload{Message: "Invalid message"})
			continue
		}

		switch env.Event {
		case EventStartComparison:
			var req StartRequest
			if len(env.Data) > 0 {
				if err := json.Unmarshal(env.Data, &req); err != nil {
					_ = client.Emit(EventError, ErrorPayload{Message: "Invalid message"})
					continue
				}
			}

			allowed, err := g.limiter.Allow(r.Context(), user.ID)
			if err != nil {
				log.Printf("gateway: rate limiter error: %v", err)
			}
			if err == nil && !allowed {
				_ = client.Emit(EventError, ErrorPayload{Message: "Rate limit exceeded"})
				continue
			}

			// Detached context: a client disconnect stops emission but
			// never aborts in-flight provider tasks or their writes.
			go g.orch.Run(context.Background(), client, user, &req)

		default:
			_ = client.Emit(EventError, ErrorPayload{Message: "Unknown event"})
		}
	}

	log.Printf("gateway: user %s disconnected", user.Email)
}

// clientConn serializes writes to one WebSocket connection. Both
// provider tasks emit through it concurrently; gorilla/websocket allows
// only one concurrent writer.
type clientConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newClientConn(conn *websocket.Conn) *clientConn {
	return &clientConn{conn: conn}
}

func (c *clientConn) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Envelope{Event: event, Data: data})
}
