package comparison

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph123019/ai-model-playground/internal/auth"
	"github.com/joseph123019/ai-model-playground/internal/catalog"
	"github.com/joseph123019/ai-model-playground/internal/provider"
	"github.com/joseph123019/ai-model-playground/internal/store"
)

// Orchestrator owns the lifecycle of one comparison request: it fans the
// prompt out to both providers, relays their snapshots to the client and
// the store, and reconciles final metrics once both tasks settle.
type Orchestrator struct {
	store     store.Store
	streamers map[string]provider.Streamer // keyed by provider name
	breakers  map[string]*gobreaker.CircuitBreaker
	tracer    trace.Tracer
}

func NewOrchestrator(st store.Store, streamers []provider.Streamer, tracer trace.Tracer) *Orchestrator {
	m := make(map[string]provider.Streamer)
	breakers := make(map[string]*gobreaker.CircuitBreaker)
	for _, s := range streamers {
		m[s.Name()] = s
		settings := gobreaker.Settings{
			Name:        s.Name(),
			MaxRequests: 3,
			Interval:    5 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}
		breakers[s.Name()] = gobreaker.NewCircuitBreaker(settings)
	}
	return &Orchestrator{
		store:     st,
		streamers: m,
		breakers:  breakers,
		tracer:    tracer,
	}
}

// Run executes one comparison. It returns only after both provider tasks
// reached a terminal state and the final metrics were emitted (or the
// request was rejected). A failure in one provider never cancels the
// other.
func (o *Orchestrator) Run(ctx context.Context, em Emitter, user *auth.User, req *StartRequest) {
	if user == nil {
		o.emit(em, EventError, ErrorPayload{Message: "Unauthorized"})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		o.emit(em, EventError, ErrorPayload{Message: "Prompt is required"})
		return
	}

	ctx, span := o.tracer.Start(ctx, "comparison.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", user.ID),
		attribute.String("selection_mode", string(req.SelectionMode)),
	)

	sess, err := o.store.CreateSession(ctx, prompt, user.ID)
	if err != nil {
		log.Printf("comparison: create session failed: %v", err)
		o.emit(em, EventError, ErrorPayload{Message: "Internal server error"})
		return
	}
	span.SetAttributes(attribute.String("session_id", sess.ID))

	o.emit(em, EventSessionCreated, SessionCreatedPayload{SessionID: sess.ID})

	pair := catalog.Select(req.SelectionMode, req.ManualModels)
	tasks := []struct {
		providerName string
		model        catalog.ModelInfo
	}{
		{"openai", pair.OpenAI},
		{"anthropic", pair.Anthropic},
	}

	// Wait for all, collect every outcome. Never fail fast: one
	// provider's outage must not sink the comparison.
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runProvider(ctx, em, sess.ID, prompt, task.providerName, task.model)
		}()
	}
	wg.Wait()

	full, err := o.store.GetSessionWithResponses(ctx, sess.ID)
	if err != nil {
		log.Printf("comparison: final read-back failed for session %s: %v", sess.ID, err)
		o.emit(em, EventError, ErrorPayload{Message: "Internal server error"})
		return
	}

	o.emit(em, EventFinalMetrics, buildFinalMetrics(full))
}

// runProvider drives one provider task through its Response state
// machine: typing -> streaming -> (complete | error). Persistence writes
// always precede the matching client emit.
func (o *Orchestrator) runProvider(ctx context.Context, em Emitter, sessionID, prompt, providerName string, model catalog.ModelInfo) {
	ctx, span := o.tracer.Start(ctx, "comparison.provider")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", providerName),
		attribute.String("model", model.ID),
	)

	start := time.Now()

	resp, err := o.store.CreateResponse(ctx, sessionID, model.DisplayName)
	if err != nil {
		log.Printf("comparison: create response for %s failed: %v", model.DisplayName, err)
		return
	}

	o.emit(em, EventStatusUpdate, StatusUpdatePayload{
		Model:      model.DisplayName,
		Status:     store.StatusTyping,
		ResponseID: resp.ID,
	})

	streamErr := o.streamResponse(ctx, em, resp.ID, prompt, providerName, model)

	durationMs := time.Since(start).Milliseconds()
	if streamErr != nil {
		span.SetAttributes(attribute.String("outcome", "error"))
		status := store.StatusError
		upd := store.ResponseUpdate{Status: &status, DurationMs: &durationMs}
		if err := o.store.UpdateResponse(ctx, resp.ID, upd); err != nil {
			log.Printf("comparison: persist error status for %s failed: %v", resp.ID, err)
		}

		o.emit(em, EventStatusUpdate, StatusUpdatePayload{
			Model:      model.DisplayName,
			Status:     store.StatusError,
			ResponseID: resp.ID,
			DurationMs: &durationMs,
		})
		o.emit(em, EventError, ErrorPayload{
			Model:   model.DisplayName,
			Message: streamErr.Error(),
		})
		return
	}

	span.SetAttributes(attribute.String("outcome", "complete"))
	status := store.StatusComplete
	upd := store.ResponseUpdate{Status: &status, DurationMs: &durationMs}
	if err := o.store.UpdateResponse(ctx, resp.ID, upd); err != nil {
		log.Printf("comparison: persist complete status for %s failed: %v", resp.ID, err)
	}

	o.emit(em, EventStatusUpdate, StatusUpdatePayload{
		Model:      model.DisplayName,
		Status:     store.StatusComplete,
		ResponseID: resp.ID,
		DurationMs: &durationMs,
	})
}

// streamResponse consumes the provider's snapshot sequence, persisting
// each snapshot before relaying it. A non-nil return means the sequence
// terminated abnormally.
func (o *Orchestrator) streamResponse(ctx context.Context, em Emitter, responseID, prompt, providerName string, model catalog.ModelInfo) error {
	streamer, ok := o.streamers[providerName]
	if !ok {
		return fmt.Errorf("no streamer configured for provider %s", providerName)
	}

	cb := o.breakers[providerName]
	if cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: provider temporarily unavailable (circuit open)", providerName)
	}

	// Cancel on return so the adapter goroutine unblocks and closes its
	// provider stream when this task stops consuming early, e.g. after a
	// mid-stream persistence failure.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := streamer.StreamCompletion(ctx, prompt, model.ID)
	if err != nil {
		o.recordOutcome(cb, err)
		return err
	}

	var streamErr error
	for snap := range ch {
		if snap.Err != nil {
			streamErr = snap.Err
			break
		}

		status := store.StatusStreaming
		upd := store.ResponseUpdate{
			Content: &snap.Content,
			Tokens:  &snap.Tokens,
			Cost:    &snap.Cost,
			Status:  &status,
		}
		if err := o.store.UpdateResponse(ctx, responseID, upd); err != nil {
			streamErr = err
			break
		}

		o.emit(em, EventResponseChunk, ResponseChunkPayload{
			Model:      model.DisplayName,
			Content:    snap.Content,
			Tokens:     snap.Tokens,
			Cost:       snap.Cost,
			ResponseID: responseID,
		})
	}

	o.recordOutcome(cb, streamErr)
	return streamErr
}

// recordOutcome feeds the task's result to the provider's breaker so
// consecutive failures trip it.
func (o *Orchestrator) recordOutcome(cb *gobreaker.CircuitBreaker, err error) {
	_, _ = cb.Execute(func() (interface{}, error) {
		return nil, err
	})
}

func buildFinalMetrics(sess *store.Session) FinalMetricsPayload {
	summaries := make([]ResponseSummary, 0, len(sess.Responses))
	totals := Totals{}

	for _, r := range sess.Responses {
		summaries = append(summaries, ResponseSummary{
			Model:      r.Model,
			Tokens:     r.Tokens,
			Cost:       r.Cost,
			Status:     r.Status,
			DurationMs: r.DurationMs,
		})

		totals.Tokens += r.Tokens
		totals.Cost += r.Cost

		// Minimum non-null duration wins; ties and the no-duration case
		// keep the first response encountered.
		if totals.FastestModel == "" {
			totals.FastestModel = r.Model
			totals.FastestDuration = r.DurationMs
			continue
		}
		if r.DurationMs != nil && (totals.FastestDuration == nil || *r.DurationMs < *totals.FastestDuration) {
			totals.FastestModel = r.Model
			totals.FastestDuration = r.DurationMs
		}
	}

	return FinalMetricsPayload{
		SessionID: sess.ID,
		Responses: summaries,
		Totals:    totals,
	}
}

// emit pushes an event, logging delivery failures. Emission is
// best-effort: the persisted record is the source of truth.
func (o *Orchestrator) emit(em Emitter, event string, payload any) {
	if err := em.Emit(event, payload); err != nil {
		log.Printf("comparison: emit %s failed: %v", event, err)
	}
}
