package tokenizer

// TokenType represents the type of a token
type TokenType int

const (
	EOF TokenType = iota
	IDENTIFIER
	STRING  // 'c' or "text"
	INTEGER // 123
	REAL    // 1.5, 1e10, 2.5f

	EXCLAMATION   // !
	PERCENT       // %
	AMPERSAND     // &
	OPENED_PARENS // (
	CLOSED_PARENS // )
	ASTERISK      // *
	PLUS          // +
	COMMA         // ,
	MINUS         // -
	DOT           // .
	SLASH         // /
	COLON         // :
	LESS_THAN     // <
	EQUAL         // =
	GREATER_THAN  // >
	QUESTION      // ?
	OPENED_BRACKET
	CLOSED_BRACKET
	BAR

	EXCLAMATION_EQUAL  // !=
	DOUBLE_AMPERSAND   // &&
	LESS_EQUAL         // <=
	LESS_GREATER       // <>
	DOUBLE_EQUAL       // ==
	GREATER_EQUAL      // >=
	DOUBLE_BAR         // ||
)

var tokenTypeNames = map[TokenType]string{
	EOF:                "EOF",
	IDENTIFIER:         "IDENTIFIER",
	STRING:             "STRING",
	INTEGER:            "INTEGER",
	REAL:               "REAL",
	EXCLAMATION:        "!",
	PERCENT:            "%",
	AMPERSAND:          "&",
	OPENED_PARENS:      "(",
	CLOSED_PARENS:      ")",
	ASTERISK:           "*",
	PLUS:               "+",
	COMMA:              ",",
	MINUS:              "-",
	DOT:                ".",
	SLASH:              "/",
	COLON:              ":",
	LESS_THAN:          "<",
	EQUAL:              "=",
	GREATER_THAN:       ">",
	QUESTION:           "?",
	OPENED_BRACKET:     "[",
	CLOSED_BRACKET:     "]",
	BAR:                "|",
	EXCLAMATION_EQUAL:  "!=",
	DOUBLE_AMPERSAND:   "&&",
	LESS_EQUAL:         "<=",
	LESS_GREATER:       "<>",
	DOUBLE_EQUAL:       "==",
	GREATER_EQUAL:      ">=",
	DOUBLE_BAR:         "||",
}

// String returns the string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}

	return "UNKNOWN"
}

// Token represents a lexical token.
// Position is the rune offset of the first character of the token.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// Is reports whether the token is the identifier id, compared case-insensitively.
func (t Token) Is(id string) bool {
	return t.Type == IDENTIFIER && equalFold(t.Value, id)
}
