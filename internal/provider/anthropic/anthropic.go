package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/joseph123019/ai-model-playground/internal/pricing"
	"github.com/joseph123019/ai-model-playground/internal/provider"
)

type AnthropicStreamer struct {
	apiKey  string
	baseURL string
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicStreamEvent struct {
	Type    string             `json:"type"`
	Message *anthropicMsgStart `json:"message,omitempty"`
	Delta   anthropicDelta     `json:"delta,omitempty"`
	Usage   *anthropicUsage    `json:"usage,omitempty"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicMsgStart struct {
	Usage anthropicUsage `json:"usage"`
}

type anthropicDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func New(apiKey string) provider.Streamer {
	return &AnthropicStreamer{
		apiKey:  apiKey,
		baseURL: "https://api.anthropic.com/v1",
	}
}

func (p *AnthropicStreamer) Name() string {
	return "anthropic"
}

// StreamCompletion streams a message, yielding a snapshot with the full
// accumulated text on every text delta. message_start carries the
// authoritative input token count; output tokens are estimated from text
// length until the message_delta usage arrives.
func (p *AnthropicStreamer) StreamCompletion(ctx context.Context, prompt, model string) (<-chan provider.Snapshot, error) {
	anthropicReq := anthropicRequest{
		Model:     model,
		MaxTokens: 4096,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		Stream:    true,
	}
	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	ch := make(chan provider.Snapshot)

	go func() {
		defer close(ch)

		fail := func(err error) {
			select {
			case ch <- provider.Snapshot{Model: model, Err: fmt.Errorf("anthropic api error: %w", err)}:
			case <-ctx.Done():
			}
		}

		resp, err := http.DefaultClient.Do(httpReq)
		if err != nil {
			fail(err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			fail(fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
			return
		}

		var fullContent strings.Builder
		var inputTokens, outputTokens int
		var sawOutputUsage bool

		final := func() {
			select {
			case ch <- provider.Snapshot{
				Content: fullContent.String(),
				Tokens:  inputTokens + outputTokens,
				Cost:    pricing.Cost(model, inputTokens, outputTokens),
				Model:   model,
			}:
			case <-ctx.Done():
			}
		}

		reader := bufio.NewReader(resp.Body)
		var currentEvent string

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					final()
					return
				}
				fail(err)
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "event: ") {
				currentEvent = strings.TrimPrefix(line, "event: ")
				continue
			}

			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			switch currentEvent {
			case "message_start":
				var ev anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					continue
				}
				if ev.Message != nil {
					inputTokens = ev.Message.Usage.InputTokens
				}

			case "content_block_delta":
				var ev anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					continue
				}
				if ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
					continue
				}
				fullContent.WriteString(ev.Delta.Text)
				if !sawOutputUsage {
					outputTokens += pricing.EstimateTokens(ev.Delta.Text)
				}

				select {
				case ch <- provider.Snapshot{
					Content: fullContent.String(),
					Tokens:  inputTokens + outputTokens,
					Cost:    pricing.Cost(model, inputTokens, outputTokens),
					Model:   model,
				}:
				case <-ctx.Done():
					return
				}

			case "message_delta":
				// Authoritative output count replaces the estimate.
				var ev anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					continue
				}
				if ev.Usage != nil && ev.Usage.OutputTokens > 0 {
					outputTokens = ev.Usage.OutputTokens
					sawOutputUsage = true
				}

			case "message_stop":
				final()
				return

			case "error":
				var ev anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &ev); err == nil && ev.Error != nil {
					fail(fmt.Errorf("stream error: %s", ev.Error.Message))
					return
				}
			}
		}
	}()

	return ch, nil
}
