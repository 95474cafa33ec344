package catalog

// ModelInfo describes one entry in the fixed model catalog.
type ModelInfo struct {
	ID          string
	DisplayName string
	Provider    string  // "openai" or "anthropic"
	InputCost   float64 // USD per 1K tokens
	OutputCost  float64 // USD per 1K tokens
	Speed       string  // "fast", "medium", "slow"
	Tier        string  // "budget", "standard", "premium"
}

// Models is read-only after init; safe for concurrent access.
var Models = map[string]ModelInfo{
	"gpt-4o": {
		ID:          "gpt-4o",
		DisplayName: "GPT-4o",
		Provider:    "openai",
		InputCost:   0.0025,
		OutputCost:  0.01,
		Speed:       "fast",
		Tier:        "standard",
	},
	"gpt-4o-mini": {
		ID:          "gpt-4o-mini",
		DisplayName: "GPT-4o Mini",
		Provider:    "openai",
		InputCost:   0.00015,
		OutputCost:  0.0006,
		Speed:       "fast",
		Tier:        "budget",
	},
	"claude-sonnet-4-20250514": {
		ID:          "claude-sonnet-4-20250514",
		DisplayName: "Claude Sonnet 4",
		Provider:    "anthropic",
		InputCost:   0.003,
		OutputCost:  0.015,
		Speed:       "fast",
		Tier:        "standard",
	},
	"claude-opus-4-20250514": {
		ID:          "claude-opus-4-20250514",
		DisplayName: "Claude Opus 4",
		Provider:    "anthropic",
		InputCost:   0.015,
		OutputCost:  0.075,
		Speed:       "medium",
		Tier:        "premium",
	},
}

// Mode selects which two models are compared for a request.
type Mode string

const (
	ModeCheapest        Mode = "cheapest"
	ModeFastestCheapest Mode = "fastest-cheapest"
	ModePremium         Mode = "premium"
	ModeManual          Mode = "manual"
)

// ManualModels carries explicit model overrides for ModeManual.
type ManualModels struct {
	OpenAI    string `json:"openai,omitempty"`
	Anthropic string `json:"anthropic,omitempty"`
}

// Pair is the concrete pair of models resolved for one comparison.
type Pair struct {
	OpenAI    ModelInfo
	Anthropic ModelInfo
}

// Select resolves a selection mode to a model pair. Manual mode requires
// both identifiers to be present in the catalog; otherwise it falls back
// to the cheapest pair. Unknown modes also resolve to the cheapest pair.
func Select(mode Mode, manual *ManualModels) Pair {
	if mode == ModeManual && manual != nil {
		oa, okOA := Models[manual.OpenAI]
		an, okAN := Models[manual.Anthropic]
		if okOA && okAN && oa.Provider == "openai" && an.Provider == "anthropic" {
			return Pair{OpenAI: oa, Anthropic: an}
		}
	}

	switch mode {
	case ModePremium:
		return Pair{
			OpenAI:    Models["gpt-4o"],
			Anthropic: Models["claude-opus-4-20250514"],
		}
	case ModeCheapest, ModeFastestCheapest:
		// Both modes currently resolve to the same pair. Intentional:
		// the catalog has no cheaper fast pair to distinguish them yet.
		fallthrough
	default:
		return Pair{
			OpenAI:    Models["gpt-4o-mini"],
			Anthropic: Models["claude-sonnet-4-20250514"],
		}
	}
}
