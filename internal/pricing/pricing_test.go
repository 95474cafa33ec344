package pricing

import "testing"

func TestCost_KnownModel(t *testing.T) {
	// gpt-4o: 0.0025 input + 0.01 output per 1K tokens
	got := Cost("gpt-4o", 1000, 1000)
	want := 0.0125
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCost_PartialThousands(t *testing.T) {
	got := Cost("gpt-4o-mini", 500, 2000)
	want := 500.0/1000*0.00015 + 2000.0/1000*0.0006
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCost_UnknownModelIsZero(t *testing.T) {
	got := Cost("some-future-model", 1000, 1000)
	if got != 0 {
		t.Errorf("Expected zero cost for unknown model, got %v", got)
	}
}

func TestCost_ZeroTokens(t *testing.T) {
	if got := Cost("claude-sonnet-4-20250514", 0, 0); got != 0 {
		t.Errorf("Expected zero cost for zero tokens, got %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("gpt-4o"); got != "GPT-4o" {
		t.Errorf("Expected GPT-4o, got %s", got)
	}
	if got := DisplayName("claude-opus-4-20250514"); got != "Claude Opus 4" {
		t.Errorf("Expected Claude Opus 4, got %s", got)
	}
}

func TestDisplayName_UnmappedEchoesIdentifier(t *testing.T) {
	if got := DisplayName("mystery-model-v9"); got != "mystery-model-v9" {
		t.Errorf("Expected raw identifier back, got %s", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"hello world!", 3},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.text); got != c.want {
			t.Errorf("EstimateTokens(%q): expected %d, got %d", c.text, c.want, got)
		}
	}
}
