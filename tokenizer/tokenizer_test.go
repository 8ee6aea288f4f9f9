package tokenizer

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/dynquery"
)

func TestTokenIterator(t *testing.T) {
	src := "Price > 10 AND Category == @0"
	tokenizer := New(src)

	expectedTypes := []TokenType{
		IDENTIFIER, GREATER_THAN, INTEGER, IDENTIFIER, IDENTIFIER, DOUBLE_EQUAL, IDENTIFIER, EOF,
	}

	var actualTypes []TokenType
	for token, err := range tokenizer.Tokens() {
		assert.NoError(t, err)

		actualTypes = append(actualTypes, token.Type)
	}

	assert.Equal(t, expectedTypes, actualTypes)
}

func TestIteratorEarlyTermination(t *testing.T) {
	tokenizer := New("a + b + c + d")

	count := 0
	for _, err := range tokenizer.Tokens() {
		assert.NoError(t, err)

		count++

		if count >= 3 {
			break
		}
	}

	assert.Equal(t, 3, count)
}

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []Token
	}{
		{
			name: "punctuation",
			src:  "! % & ( ) * + , - . / : < = > ? [ ] |",
			expected: []Token{
				{EXCLAMATION, "!", 0}, {PERCENT, "%", 2}, {AMPERSAND, "&", 4}, {OPENED_PARENS, "(", 6},
				{CLOSED_PARENS, ")", 8}, {ASTERISK, "*", 10}, {PLUS, "+", 12}, {COMMA, ",", 14},
				{MINUS, "-", 16}, {DOT, ".", 18}, {SLASH, "/", 20}, {COLON, ":", 22},
				{LESS_THAN, "<", 24}, {EQUAL, "=", 26}, {GREATER_THAN, ">", 28}, {QUESTION, "?", 30},
				{OPENED_BRACKET, "[", 32}, {CLOSED_BRACKET, "]", 34}, {BAR, "|", 36}, {EOF, "", 37},
			},
		},
		{
			name: "two character operators",
			src:  "!= && <= <> == >= ||",
			expected: []Token{
				{EXCLAMATION_EQUAL, "!=", 0}, {DOUBLE_AMPERSAND, "&&", 3}, {LESS_EQUAL, "<=", 6},
				{LESS_GREATER, "<>", 9}, {DOUBLE_EQUAL, "==", 12}, {GREATER_EQUAL, ">=", 15},
				{DOUBLE_BAR, "||", 18}, {EOF, "", 20},
			},
		},
		{
			name: "operators without spaces",
			src:  "a<=b",
			expected: []Token{
				{IDENTIFIER, "a", 0}, {LESS_EQUAL, "<=", 1}, {IDENTIFIER, "b", 3}, {EOF, "", 4},
			},
		},
		{
			name: "identifiers",
			src:  "@0 _name it2 日本語",
			expected: []Token{
				{IDENTIFIER, "@0", 0}, {IDENTIFIER, "_name", 3}, {IDENTIFIER, "it2", 9},
				{IDENTIFIER, "日本語", 13}, {EOF, "", 16},
			},
		},
		{
			name: "strings",
			src:  `"it's" 'a' 'don''t' "say ""hi"""`,
			expected: []Token{
				{STRING, `"it's"`, 0}, {STRING, `'a'`, 7}, {STRING, `'don''t'`, 11},
				{STRING, `"say ""hi"""`, 20}, {EOF, "", 32},
			},
		},
		{
			name: "numbers",
			src:  "42 1.5 1e10 2.5f 3E-2 7F",
			expected: []Token{
				{INTEGER, "42", 0}, {REAL, "1.5", 3}, {REAL, "1e10", 7}, {REAL, "2.5f", 12},
				{REAL, "3E-2", 17}, {INTEGER, "7F", 22}, {EOF, "", 24},
			},
		},
		{
			name: "member access",
			src:  "Orders.Count(Qty > 1)",
			expected: []Token{
				{IDENTIFIER, "Orders", 0}, {DOT, ".", 6}, {IDENTIFIER, "Count", 7}, {OPENED_PARENS, "(", 12},
				{IDENTIFIER, "Qty", 13}, {GREATER_THAN, ">", 17}, {INTEGER, "1", 19}, {CLOSED_PARENS, ")", 20},
				{EOF, "", 21},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.src).AllTokens()
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestEOFIsIdempotent(t *testing.T) {
	tokenizer := New("x  ")

	token, err := tokenizer.Next()
	assert.NoError(t, err)
	assert.Equal(t, IDENTIFIER, token.Type)

	for range 3 {
		token, err = tokenizer.Next()
		assert.NoError(t, err)
		assert.Equal(t, Token{Type: EOF, Position: 3}, token)
	}
}

func TestTokenizerErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		kind     error
		position int
	}{
		{"invalid character", "a # b", dynquery.ErrInvalidCharacter, 2},
		{"unterminated double quote", `x == "abc`, dynquery.ErrUnterminatedString, 5},
		{"unterminated single quote", `'a''`, dynquery.ErrUnterminatedString, 0},
		{"dangling dot", "1.", dynquery.ErrDigitExpected, 2},
		{"dangling exponent", "1e+", dynquery.ErrDigitExpected, 3},
		{"backtick", "`", dynquery.ErrInvalidCharacter, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.src).AllTokens()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.True(t, errors.Is(err, dynquery.ErrLex))

			var parseErr *dynquery.ParseError
			assert.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.position, parseErr.Position)
		})
	}
}

func TestTokenIs(t *testing.T) {
	token := Token{Type: IDENTIFIER, Value: "AnD"}
	assert.True(t, token.Is("and"))
	assert.False(t, token.Is("or"))
	assert.False(t, Token{Type: STRING, Value: "and"}.Is("and"))
}
