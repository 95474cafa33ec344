package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph123019/ai-model-playground/internal/provider"
)

func collect(t *testing.T, ch <-chan provider.Snapshot) ([]provider.Snapshot, error) {
	t.Helper()
	var snaps []provider.Snapshot
	for s := range ch {
		if s.Err != nil {
			return snaps, s.Err
		}
		snaps = append(snaps, s)
	}
	return snaps, nil
}

func TestStreamCompletion_Mock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world!\"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":5}}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := &OpenAIStreamer{apiKey: "test-key", baseURL: server.URL}

	ch, err := p.StreamCompletion(context.Background(), "hi", "gpt-4o")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	snaps, err := collect(t, ch)
	if err != nil {
		t.Fatalf("Received error snapshot: %v", err)
	}

	if len(snaps) != 3 {
		t.Fatalf("Expected 3 snapshots (2 deltas + final), got %d", len(snaps))
	}

	if snaps[0].Content != "Hello" {
		t.Errorf("Expected 'Hello', got %q", snaps[0].Content)
	}
	if snaps[1].Content != "Hello world!" {
		t.Errorf("Expected 'Hello world!', got %q", snaps[1].Content)
	}

	final := snaps[len(snaps)-1]
	if final.Content != "Hello world!" {
		t.Errorf("Expected final content 'Hello world!', got %q", final.Content)
	}
	// Final counts are authoritative: 10 input + 5 output
	if final.Tokens != 15 {
		t.Errorf("Expected 15 final tokens, got %d", final.Tokens)
	}
	wantCost := 10.0/1000*0.0025 + 5.0/1000*0.01
	if final.Cost != wantCost {
		t.Errorf("Expected final cost %v, got %v", wantCost, final.Cost)
	}
}

func TestStreamCompletion_ContentGrowsMonotonically(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, word := range []string{"one ", "two ", "three"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"%s\"}}]}\n\n", word)
		}
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := &OpenAIStreamer{apiKey: "test-key", baseURL: server.URL}

	ch, err := p.StreamCompletion(context.Background(), "hi", "gpt-4o")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	var prev provider.Snapshot
	for s := range ch {
		if s.Err != nil {
			t.Fatalf("Received error snapshot: %v", s.Err)
		}
		if !strings.HasPrefix(s.Content, prev.Content) {
			t.Errorf("Content %q is not a prefix extension of %q", s.Content, prev.Content)
		}
		if s.Tokens < prev.Tokens {
			t.Errorf("Tokens decreased: %d -> %d", prev.Tokens, s.Tokens)
		}
		if s.Cost < prev.Cost {
			t.Errorf("Cost decreased: %v -> %v", prev.Cost, s.Cost)
		}
		prev = s
	}
	if prev.Content != "one two three" {
		t.Errorf("Expected 'one two three', got %q", prev.Content)
	}
}

func TestStreamCompletion_UsageBeforeDeltasStopsEstimation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// Authoritative usage arrives before the remaining deltas.
		fmt.Fprintf(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":5}}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world!\"}}]}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := &OpenAIStreamer{apiKey: "test-key", baseURL: server.URL}

	ch, err := p.StreamCompletion(context.Background(), "hi", "gpt-4o")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	snaps, err := collect(t, ch)
	if err != nil {
		t.Fatalf("Received error snapshot: %v", err)
	}

	// Estimates never stack on top of the authoritative count, so every
	// snapshot after the usage frame reports exactly 10 + 5.
	prev := 0
	for _, s := range snaps {
		if s.Tokens != 15 {
			t.Errorf("Expected 15 tokens after authoritative usage, got %d", s.Tokens)
		}
		if s.Tokens < prev {
			t.Errorf("Tokens decreased: %d -> %d", prev, s.Tokens)
		}
		prev = s.Tokens
	}
	if final := snaps[len(snaps)-1]; final.Content != "Hello world!" {
		t.Errorf("Expected 'Hello world!', got %q", final.Content)
	}
}

func TestStreamCompletion_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer server.Close()

	p := &OpenAIStreamer{apiKey: "test-key", baseURL: server.URL}

	ch, err := p.StreamCompletion(context.Background(), "hi", "gpt-4o")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	_, err = collect(t, ch)
	if err == nil {
		t.Fatal("Expected error snapshot, got clean termination")
	}
	if !strings.Contains(err.Error(), "openai api error") {
		t.Errorf("Expected provider-tagged error, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestStreamCompletion_MalformedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {not valid json}\n\n")
	}))
	defer server.Close()

	p := &OpenAIStreamer{apiKey: "test-key", baseURL: server.URL}

	ch, err := p.StreamCompletion(context.Background(), "hi", "gpt-4o")
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	_, err = collect(t, ch)
	if err == nil {
		t.Fatal("Expected error snapshot for malformed stream")
	}
}

func TestName(t *testing.T) {
	if New("k").Name() != "openai" {
		t.Error("Expected provider name openai")
	}
}
