// Package lexer implements the character-at-a-time scanner.
package lexer

import "github.com/JacobC09/JakePlusPlus/internal/token"

// Lexer converts source text into a stream of tokens. Every token's
// Source slices the original input, except an Error token's, which holds
// the error message; the input must outlive every token it produces.
type Lexer struct {
	input   string
	start   int
	current int
	line    int
}

// New creates a lexer for the provided source text.
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// Line reports the scanner's current source line (1-based).
func (l *Lexer) Line() int {
	return l.line
}

// ScanToken consumes leading whitespace and comments and returns the next
// token, EOF at input end, or an Error token on an unrecognised character
// or an unterminated string.
func (l *Lexer) ScanToken() token.Token {
	l.skipWhitespaceAndComments()
	l.start = l.current

	if l.atEnd() {
		return l.make(token.EOF)
	}

	ch := l.advance()

	if isAlpha(ch) {
		return l.identifier()
	}
	if isDigit(ch) {
		return l.number()
	}

	switch ch {
	case '(':
		return l.make(token.LeftParen)
	case ')':
		return l.make(token.RightParen)
	case '{':
		return l.make(token.LeftBrace)
	case '}':
		return l.make(token.RightBrace)
	case ',':
		return l.make(token.Comma)
	case ';':
		return l.make(token.Semicolon)
	case '.':
		if isDigit(l.peek()) {
			return l.fraction()
		}
		return l.make(token.Dot)
	case '+':
		return l.make(l.twoCharOrElse('=', token.PlusEqual, token.Plus))
	case '-':
		return l.make(l.twoCharOrElse('=', token.MinusEqual, token.Minus))
	case '*':
		return l.make(l.twoCharOrElse('=', token.StarEqual, token.Star))
	case '/':
		return l.make(l.twoCharOrElse('=', token.SlashEqual, token.Slash))
	case '!':
		return l.make(l.twoCharOrElse('=', token.BangEqual, token.Bang))
	case '=':
		return l.make(l.twoCharOrElse('=', token.EqualEqual, token.Equal))
	case '<':
		return l.make(l.twoCharOrElse('=', token.LessEqual, token.Less))
	case '>':
		return l.make(l.twoCharOrElse('=', token.GreaterEqual, token.Greater))
	case '"', '\'':
		return l.string(ch)
	}

	return l.errorToken("Unexpected character")
}

func (l *Lexer) twoCharOrElse(second byte, twoChar, oneChar token.Kind) token.Kind {
	if l.peek() == second {
		l.advance()
		return twoChar
	}
	return oneChar
}

func (l *Lexer) identifier() token.Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	lit := l.input[l.start:l.current]
	return l.makeKind(token.LookupIdentifier(lit))
}

func (l *Lexer) number() token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // consume '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.make(token.Number)
}

// fraction scans the digits of a number literal that began with a
// leading '.' (the '.' itself has already been consumed).
func (l *Lexer) fraction() token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	return l.make(token.Number)
}

// string scans a quoted literal opened by quote ('"' or '\''); the
// closing quote must match the opener.
func (l *Lexer) string(quote byte) token.Token {
	for !l.atEnd() && l.peek() != quote {
		if l.peek() == '\n' {
			l.line++
		}
		l.advance()
	}
	if l.atEnd() {
		return l.errorToken("String literal does not end")
	}
	l.advance() // closing quote
	return l.make(token.String)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '/':
			if l.peekNext() == '/' {
				for !l.atEnd() && l.peek() != '\n' {
					l.advance()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (l *Lexer) atEnd() bool {
	return l.current >= len(l.input)
}

func (l *Lexer) advance() byte {
	ch := l.input[l.current]
	l.current++
	return ch
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.input[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.input) {
		return 0
	}
	return l.input[l.current+1]
}

func (l *Lexer) make(kind token.Kind) token.Token {
	return l.makeKind(kind)
}

func (l *Lexer) makeKind(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Source: l.input[l.start:l.current],
		Line:   l.line,
	}
}

func (l *Lexer) errorToken(message string) token.Token {
	return token.Token{
		Kind:   token.Error,
		Source: message,
		Line:   l.line,
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
