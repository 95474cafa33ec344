package comparison

import (
	"testing"

	"github.com/joseph123019/ai-model-playground/internal/store"
)

func dur(ms int64) *int64 { return &ms }

func TestBuildFinalMetrics_Totals(t *testing.T) {
	sess := &store.Session{
		ID: "sess-1",
		Responses: []*store.Response{
			{Model: "GPT-4o", Tokens: 120, Cost: 0.004, Status: store.StatusComplete, DurationMs: dur(900)},
			{Model: "Claude Sonnet 4", Tokens: 80, Cost: 0.003, Status: store.StatusComplete, DurationMs: dur(1200)},
		},
	}

	fm := buildFinalMetrics(sess)

	if fm.SessionID != "sess-1" {
		t.Errorf("Expected sess-1, got %s", fm.SessionID)
	}
	if fm.Totals.Tokens != 200 {
		t.Errorf("Expected 200 total tokens, got %d", fm.Totals.Tokens)
	}
	if want := fm.Responses[0].Cost + fm.Responses[1].Cost; fm.Totals.Cost != want {
		t.Errorf("Expected %v total cost, got %v", want, fm.Totals.Cost)
	}
	if fm.Totals.FastestModel != "GPT-4o" {
		t.Errorf("Expected GPT-4o fastest, got %s", fm.Totals.FastestModel)
	}
	if fm.Totals.FastestDuration == nil || *fm.Totals.FastestDuration != 900 {
		t.Errorf("Expected 900ms fastest duration, got %v", fm.Totals.FastestDuration)
	}
}

func TestBuildFinalMetrics_MissingTokensTreatedAsZero(t *testing.T) {
	sess := &store.Session{
		ID: "sess-1",
		Responses: []*store.Response{
			{Model: "GPT-4o", Tokens: 0, Cost: 0, Status: store.StatusError, DurationMs: dur(50)},
			{Model: "Claude Sonnet 4", Tokens: 75, Cost: 0.002, Status: store.StatusComplete, DurationMs: dur(800)},
		},
	}

	fm := buildFinalMetrics(sess)

	if fm.Totals.Tokens != 75 {
		t.Errorf("Expected 75 total tokens, got %d", fm.Totals.Tokens)
	}
	if fm.Totals.Cost != 0.002 {
		t.Errorf("Expected 0.002 total cost, got %v", fm.Totals.Cost)
	}
}

func TestBuildFinalMetrics_OnlyOneDurationWins(t *testing.T) {
	sess := &store.Session{
		ID: "sess-1",
		Responses: []*store.Response{
			{Model: "GPT-4o", Status: store.StatusStreaming}, // no duration recorded
			{Model: "Claude Sonnet 4", Status: store.StatusComplete, DurationMs: dur(2000)},
		},
	}

	fm := buildFinalMetrics(sess)

	if fm.Totals.FastestModel != "Claude Sonnet 4" {
		t.Errorf("Expected the only response with a duration to win, got %s", fm.Totals.FastestModel)
	}
}

func TestBuildFinalMetrics_NoDurationsKeepsFirst(t *testing.T) {
	sess := &store.Session{
		ID: "sess-1",
		Responses: []*store.Response{
			{Model: "GPT-4o", Status: store.StatusStreaming},
			{Model: "Claude Sonnet 4", Status: store.StatusStreaming},
		},
	}

	fm := buildFinalMetrics(sess)

	if fm.Totals.FastestModel != "GPT-4o" {
		t.Errorf("Expected first response in iteration order, got %s", fm.Totals.FastestModel)
	}
	if fm.Totals.FastestDuration != nil {
		t.Errorf("Expected nil fastest duration, got %v", *fm.Totals.FastestDuration)
	}
}

func TestBuildFinalMetrics_TieKeepsFirstEncountered(t *testing.T) {
	sess := &store.Session{
		ID: "sess-1",
		Responses: []*store.Response{
			{Model: "GPT-4o", Status: store.StatusComplete, DurationMs: dur(500)},
			{Model: "Claude Sonnet 4", Status: store.StatusComplete, DurationMs: dur(500)},
		},
	}

	fm := buildFinalMetrics(sess)

	if fm.Totals.FastestModel != "GPT-4o" {
		t.Errorf("Expected tie to keep first encountered, got %s", fm.Totals.FastestModel)
	}
}

func TestBuildFinalMetrics_EmptySession(t *testing.T) {
	fm := buildFinalMetrics(&store.Session{ID: "sess-1"})

	if len(fm.Responses) != 0 {
		t.Errorf("Expected empty summaries, got %d", len(fm.Responses))
	}
	if fm.Totals.Tokens != 0 || fm.Totals.Cost != 0 {
		t.Errorf("Expected zero totals, got %+v", fm.Totals)
	}
}
