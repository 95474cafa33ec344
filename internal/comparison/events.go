package comparison

import (
	"encoding/json"

	"github.com/joseph123019/ai-model-playground/internal/catalog"
	"github.com/joseph123019/ai-model-playground/internal/store"
)

// Event names shared with the browser client.
const (
	EventStartComparison = "startComparison"
	EventSessionCreated  = "sessionCreated"
	EventStatusUpdate    = "statusUpdate"
	EventResponseChunk   = "responseChunk"
	EventFinalMetrics    = "finalMetrics"
	EventError           = "error"
)

// Envelope frames every message on the WebSocket, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// StartRequest is the client's startComparison payload.
type StartRequest struct {
	Prompt        string                `json:"prompt"`
	SelectionMode catalog.Mode          `json:"selectionMode,omitempty"`
	ManualModels  *catalog.ManualModels `json:"manualModels,omitempty"`
}

type SessionCreatedPayload struct {
	SessionID string `json:"sessionId"`
}

type StatusUpdatePayload struct {
	Model      string               `json:"model"`
	Status     store.ResponseStatus `json:"status"`
	ResponseID string               `json:"responseId"`
	DurationMs *int64               `json:"duration,omitempty"`
}

type ResponseChunkPayload struct {
	Model      string  `json:"model"`
	Content    string  `json:"content"`
	Tokens     int     `json:"tokens"`
	Cost       float64 `json:"cost"`
	ResponseID string  `json:"responseId"`
}

type ResponseSummary struct {
	Model      string               `json:"model"`
	Tokens     int                  `json:"tokens"`
	Cost       float64              `json:"cost"`
	Status     store.ResponseStatus `json:"status"`
	DurationMs *int64               `json:"duration"`
}

type Totals struct {
	Tokens          int     `json:"tokens"`
	Cost            float64 `json:"cost"`
	FastestModel    string  `json:"fastestModel"`
	FastestDuration *int64  `json:"fastestDuration"`
}

type FinalMetricsPayload struct {
	SessionID string            `json:"sessionId"`
	Responses []ResponseSummary `json:"responses"`
	Totals    Totals            `json:"totals"`
}

type ErrorPayload struct {
	Model   string `json:"model,omitempty"`
	Message string `json:"message"`
}

// Emitter pushes one named event to the client. Implementations must be
// safe for concurrent use from both provider tasks. Delivery is
// best-effort; a dropped connection loses in-flight events but never the
// persisted record.
type Emitter interface {
	Emit(event string, payload any) error
}
