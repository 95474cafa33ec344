package pricing

import "log"

type rate struct {
	Input  float64 // USD per 1K input tokens
	Output float64 // USD per 1K output tokens
}

// modelRates is read-only after init; safe for concurrent lookups from
// both provider tasks.
var modelRates = map[string]rate{
	// OpenAI
	"gpt-4o":      {Input: 0.0025, Output: 0.01},
	"gpt-4o-mini": {Input: 0.00015, Output: 0.0006},
	// Anthropic
	"claude-sonnet-4-20250514": {Input: 0.003, Output: 0.015},
	"claude-opus-4-20250514":   {Input: 0.015, Output: 0.075},
	// Legacy models kept for backward compatibility
	"claude-3-5-sonnet-20241022": {Input: 0.003, Output: 0.015},
	"claude-3-5-haiku-20241022":  {Input: 0.0008, Output: 0.004},
	"claude-opus-4-1-20250805":   {Input: 0.015, Output: 0.075},
}

var displayNames = map[string]string{
	"gpt-4o":                     "GPT-4o",
	"gpt-4o-mini":                "GPT-4o Mini",
	"claude-sonnet-4-20250514":   "Claude Sonnet 4",
	"claude-opus-4-20250514":     "Claude Opus 4",
	"claude-3-5-sonnet-20241022": "Claude 3.5 Sonnet",
	"claude-3-5-haiku-20241022":  "Claude 3.5 Haiku",
	"claude-opus-4-1-20250805":   "Claude Opus 4.1",
}

// Cost returns the USD cost for a request against the given model.
// An unknown model costs zero; billing degradation must never fail the
// user-visible comparison.
func Cost(model string, inputTokens, outputTokens int) float64 {
	r, ok := modelRates[model]
	if !ok {
		log.Printf("pricing: unknown model %q, charging zero cost", model)
		return 0
	}

	inputCost := float64(inputTokens) / 1000 * r.Input
	outputCost := float64(outputTokens) / 1000 * r.Output

	return inputCost + outputCost
}

// DisplayName maps a model identifier to its human-readable label,
// echoing the raw identifier when unmapped.
func DisplayName(model string) string {
	if name, ok := displayNames[model]; ok {
		return name
	}
	return model
}

// EstimateTokens approximates the token count of emitted text while a
// stream is in flight. Rough estimation: 1 token is about 4 characters
// of English text.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
