package history

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joseph123019/ai-model-playground/internal/auth"
	"github.com/joseph123019/ai-model-playground/internal/store"
)

// Handler serves the read-only session history API.
type Handler struct {
	store store.Store
}

func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

type sessionView struct {
	ID          string            `json:"id"`
	Prompt      string            `json:"prompt"`
	CreatedAt   string            `json:"createdAt"`
	Responses   []*store.Response `json:"responses"`
	TotalTokens int               `json:"totalTokens"`
	TotalCost   float64           `json:"totalCost"`
}

func toView(sess *store.Session) sessionView {
	v := sessionView{
		ID:        sess.ID,
		Prompt:    sess.Prompt,
		CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		Responses: sess.Responses,
	}
	if v.Responses == nil {
		v.Responses = []*store.Response{}
	}
	for _, r := range sess.Responses {
		v.TotalTokens += r.Tokens
		v.TotalCost += r.Cost
	}
	return v
}

// HandleList returns the caller's sessions, newest first, each with its
// responses and aggregate totals.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.store.ListSessionsByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, toView(sess))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(views)
}

// HandleGet returns one session with its responses. Only the owner may
// read it.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	sess, err := h.store.GetSessionWithResponses(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	if sess.UserID != user.ID {
		writeError(w, http.StatusForbidden, "you do not have access to this session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(toView(sess))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
