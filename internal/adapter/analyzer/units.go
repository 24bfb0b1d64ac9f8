package analyzer

import "unicode/utf8"

// CharsPerToken is the heuristic ratio used for every unit conversion.
const CharsPerToken = 4

// TokensToChars converts a token count to a character count.
func TokensToChars(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return tokens * CharsPerToken
}

// CharsToTokens converts a character count to tokens, rounding up so that
// CharsToTokens(TokensToChars(n)) == n.
func CharsToTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + CharsPerToken - 1) / CharsPerToken
}

// EstimateTokens approximates the token count of text as ceil(runes / 4).
func EstimateTokens(text string) int {
	return CharsToTokens(utf8.RuneCountInString(text))
}
