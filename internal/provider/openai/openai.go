package openai

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

type OpenAIStreamer struct {
	apiKey  string
	baseURL string
}

type openAIRequest struct {
	Model         string              `json:"model"`
	Messages      []openAIMessage     `json:"messages"`
	Stream        bool                `json:"stream"`
	StreamOptions openAIStreamOptions `json:"stream_options"`
}

type openAIStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIStreamResponse struct {
	ID      string         `json:"id"`
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage"`
	Model   string         `json:"model"`
}

type openAIChoice struct {
	Delta openAIDelta `json:"delta"`
}

type openAIDelta struct {
	Content string `json:"content"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func New(apiKey string) provider.Streamer {
	return &OpenAIStreamer{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
	}
}

func (p *OpenAIStreamer) Name() string {
	return "openai"
}

// StreamCompletion streams a chat completion, yielding a snapshot with the
// full accumulated text on every content delta. Input tokens come from the
// inline usage frame when OpenAI reports one; output tokens are estimated
// from emitted text length until then.
func (p *OpenAIStreamer) StreamCompletion(ctx context.Context, prompt, model string) (<-chan provider.Snapshot, error) {
	openAIReq := openAIRequest{
		Model:         model,
		Messages:      []openAIMessage{{Role: "user", Content: prompt}},
		Stream:        true,
		StreamOptions: openAIStreamOptions{IncludeUsage: true},
	}
	body, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	ch := make(chan provider.Snapshot)

	go func() {
		defer close(ch)

		fail := func(err error) {
			select {
			case ch <- provider.Snapshot{Model: model, Err: fmt.Errorf("openai api error: %w", err)}:
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
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				final()
				return
			}

			var openAIResp openAIStreamResponse
			if err := json.Unmarshal([]byte(data), &openAIResp); err != nil {
				fail(err)
				return
			}

			// The usage frame carries authoritative counts; until it
			// arrives output tokens are a text-length estimate. Once
			// authoritative, estimation stops so the count never stacks
			// or regresses.
			if openAIResp.Usage != nil {
				inputTokens = openAIResp.Usage.PromptTokens
				if openAIResp.Usage.CompletionTokens > 0 {
					outputTokens = openAIResp.Usage.CompletionTokens
					sawOutputUsage = true
				}
			}

			if len(openAIResp.Choices) == 0 {
				continue
			}
			content := openAIResp.Choices[0].Delta.Content
			if content == "" {
				continue
			}

			fullContent.WriteString(content)
			if !sawOutputUsage {
				outputTokens += pricing.EstimateTokens(content)
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
		}
	}()

	return ch, nil
}
