package tokenizer

import (
	"iter"
	"strings"
	"unicode"

	"github.com/shibukawa/dynquery"
)

// TokenIterator uses Go 1.23 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// Tokenizer scans an expression one token at a time.
// Once the end of input is reached every call to Next returns EOF.
type Tokenizer struct {
	src []rune
	pos int
	ch  rune
}

// New creates a tokenizer positioned at the start of text
func New(text string) *Tokenizer {
	t := &Tokenizer{src: []rune(text)}
	t.setPos(0)

	return t
}

// Tokens returns an iterator of tokens. Iteration stops after EOF or the first error.
func (t *Tokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		for {
			token, err := t.Next()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if !yield(token, nil) || token.Type == EOF {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice (for debugging)
func (t *Tokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 16)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

// Next scans the next token
func (t *Tokenizer) Next() (Token, error) {
	for unicode.IsSpace(t.ch) && !t.eof() {
		t.nextChar()
	}

	start := t.pos

	var tokenType TokenType

	switch t.ch {
	case '!':
		tokenType = t.pair('=', EXCLAMATION_EQUAL, EXCLAMATION)
	case '%':
		t.nextChar()
		tokenType = PERCENT
	case '&':
		tokenType = t.pair('&', DOUBLE_AMPERSAND, AMPERSAND)
	case '(':
		t.nextChar()
		tokenType = OPENED_PARENS
	case ')':
		t.nextChar()
		tokenType = CLOSED_PARENS
	case '*':
		t.nextChar()
		tokenType = ASTERISK
	case '+':
		t.nextChar()
		tokenType = PLUS
	case ',':
		t.nextChar()
		tokenType = COMMA
	case '-':
		t.nextChar()
		tokenType = MINUS
	case '.':
		t.nextChar()
		tokenType = DOT
	case '/':
		t.nextChar()
		tokenType = SLASH
	case ':':
		t.nextChar()
		tokenType = COLON
	case '<':
		t.nextChar()

		switch t.ch {
		case '=':
			t.nextChar()
			tokenType = LESS_EQUAL
		case '>':
			t.nextChar()
			tokenType = LESS_GREATER
		default:
			tokenType = LESS_THAN
		}
	case '=':
		tokenType = t.pair('=', DOUBLE_EQUAL, EQUAL)
	case '>':
		tokenType = t.pair('=', GREATER_EQUAL, GREATER_THAN)
	case '?':
		t.nextChar()
		tokenType = QUESTION
	case '[':
		t.nextChar()
		tokenType = OPENED_BRACKET
	case ']':
		t.nextChar()
		tokenType = CLOSED_BRACKET
	case '|':
		tokenType = t.pair('|', DOUBLE_BAR, BAR)
	case '"', '\'':
		if err := t.readString(start); err != nil {
			return Token{}, err
		}

		tokenType = STRING
	default:
		switch {
		case t.eof():
			tokenType = EOF
		case isIdentifierStart(t.ch) || t.ch == '@' || t.ch == '_':
			for {
				t.nextChar()

				if t.eof() || !(isIdentifierPart(t.ch) || t.ch == '_') {
					break
				}
			}

			tokenType = IDENTIFIER
		case unicode.IsDigit(t.ch):
			var err error

			tokenType, err = t.readNumber()
			if err != nil {
				return Token{}, err
			}
		default:
			return Token{}, dynquery.NewParseError(dynquery.ErrInvalidCharacter, t.pos, "Syntax error '%c'", t.ch)
		}
	}

	return Token{
		Type:     tokenType,
		Value:    string(t.src[start:t.pos]),
		Position: start,
	}, nil
}

// pair consumes the current character and, when the following one is next, that one too.
func (t *Tokenizer) pair(next rune, double, single TokenType) TokenType {
	t.nextChar()

	if t.ch == next && !t.eof() {
		t.nextChar()
		return double
	}

	return single
}

// readString scans a quoted literal. A doubled quote character is part of the literal.
func (t *Tokenizer) readString(start int) error {
	quote := t.ch

	for {
		t.nextChar()

		for !t.eof() && t.ch != quote {
			t.nextChar()
		}

		if t.eof() {
			return dynquery.NewParseError(dynquery.ErrUnterminatedString, start, "Unterminated string literal")
		}

		t.nextChar()

		if t.ch != quote || t.eof() {
			return nil
		}
	}
}

// readNumber scans integer and real literals
func (t *Tokenizer) readNumber() (TokenType, error) {
	tokenType := INTEGER

	t.skipDigits()

	if t.ch == '.' && !t.eof() {
		tokenType = REAL

		t.nextChar()

		if err := t.validateDigit(); err != nil {
			return tokenType, err
		}

		t.skipDigits()
	}

	if (t.ch == 'E' || t.ch == 'e') && !t.eof() {
		tokenType = REAL

		t.nextChar()

		if t.ch == '+' || t.ch == '-' {
			t.nextChar()
		}

		if err := t.validateDigit(); err != nil {
			return tokenType, err
		}

		t.skipDigits()
	}

	if (t.ch == 'F' || t.ch == 'f') && !t.eof() {
		t.nextChar()
	}

	return tokenType, nil
}

func (t *Tokenizer) skipDigits() {
	for {
		t.nextChar()

		if t.eof() || !unicode.IsDigit(t.ch) {
			return
		}
	}
}

func (t *Tokenizer) validateDigit() error {
	if t.eof() || !unicode.IsDigit(t.ch) {
		return dynquery.NewParseError(dynquery.ErrDigitExpected, t.pos, "Digit expected")
	}

	return nil
}

func (t *Tokenizer) setPos(pos int) {
	t.pos = pos
	if t.pos < len(t.src) {
		t.ch = t.src[t.pos]
	} else {
		t.ch = 0
	}
}

func (t *Tokenizer) nextChar() {
	if t.pos < len(t.src) {
		t.pos++
	}

	t.setPos(t.pos)
}

func (t *Tokenizer) eof() bool {
	return t.pos >= len(t.src)
}

func isIdentifierStart(ch rune) bool {
	return unicode.In(ch, unicode.Lu, unicode.Ll, unicode.Lt, unicode.Lm, unicode.Lo, unicode.Nl)
}

func isIdentifierPart(ch rune) bool {
	return unicode.In(ch, unicode.Lu, unicode.Ll, unicode.Lt, unicode.Lm, unicode.Lo, unicode.Nl,
		unicode.Nd, unicode.Pc, unicode.Mn, unicode.Mc, unicode.Cf)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
