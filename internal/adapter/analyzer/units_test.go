package analyzer

import (
	"strings"
	"testing"
)

func TestTokensToChars(t *testing.T) {
	tests := []struct {
		tokens int
		want   int
	}{
		{0, 0},
		{1, 4},
		{50, 200},
		{512, 2048},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := TokensToChars(tt.tokens); got != tt.want {
			t.Errorf("TokensToChars(%d) = %d, want %d", tt.tokens, got, tt.want)
		}
	}
}

func TestCharsToTokens_RoundsUp(t *testing.T) {
	tests := []struct {
		chars int
		want  int
	}{
		{0, 0},
		{1, 1},
		{4, 1},
		{5, 2},
		{2048, 512},
		{2049, 513},
	}
	for _, tt := range tests {
		if got := CharsToTokens(tt.chars); got != tt.want {
			t.Errorf("CharsToTokens(%d) = %d, want %d", tt.chars, got, tt.want)
		}
	}
}

func TestUnitRoundTrip(t *testing.T) {
	for n := 0; n <= 10000; n++ {
		if got := CharsToTokens(TokensToChars(n)); got != n {
			t.Fatalf("round trip of %d returned %d", n, got)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
	if got := EstimateTokens("abcd"); got != 1 {
		t.Errorf("expected 1 token, got %d", got)
	}
	if got := EstimateTokens("abcde"); got != 2 {
		t.Errorf("expected 2 tokens, got %d", got)
	}
	// runes, not bytes
	if got := EstimateTokens("ééééé"); got != 2 {
		t.Errorf("expected 2 tokens for 5 runes, got %d", got)
	}
}

func TestEstimateTokens_Monotonic(t *testing.T) {
	prev := 0
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("x")
		got := EstimateTokens(sb.String())
		if got < prev {
			t.Fatalf("estimate decreased at length %d: %d < %d", i+1, got, prev)
		}
		prev = got
	}
}
