package lexer

import (
	"strings"
	"unicode"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/token"
)

type Lexer struct {
	input  []rune
	pos    int // current position in input (points to current rune)
	line   int
	col    int
	source string // what to call the source in error messages: a filename, a cell id, "REPL input"
	Ers    err.Errors
}

func NewLexer(source, input string) *Lexer {
	return &Lexer{input: []rune(input), line: 1, col: 1, source: source, Ers: err.Errors{}}
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) advance() {
	if l.current() == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string, startCol int) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Line: l.line,
		ChStart: startCol, ChEnd: l.col, Source: l.source}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		ch := l.current()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
			continue
		}
		if ch == '/' && l.peek() == '/' {
			for l.current() != '\n' && l.current() != 0 {
				l.advance()
			}
			continue
		}
		return
	}
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()
	startCol := l.col
	ch := l.current()

	switch ch {
	case 0:
		return l.newToken(token.EOF, "", startCol)
	case '+':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.PLUS_EQ, "+=", startCol)
		}
		l.advance()
		return l.newToken(token.PLUS, "+", startCol)
	case '-':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.MINUS_EQ, "-=", startCol)
		}
		if l.peek() == '>' {
			l.advance()
			l.advance()
			return l.newToken(token.THIN_ARROW, "->", startCol)
		}
		l.advance()
		return l.newToken(token.MINUS, "-", startCol)
	case '*':
		if l.peek() == '*' {
			l.advance()
			l.advance()
			return l.newToken(token.POW, "**", startCol)
		}
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.MUL_EQ, "*=", startCol)
		}
		l.advance()
		return l.newToken(token.ASTERISK, "*", startCol)
	case '/':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.DIV_EQ, "/=", startCol)
		}
		l.advance()
		return l.newToken(token.SLASH, "/", startCol)
	case '%':
		l.advance()
		return l.newToken(token.PERCENT, "%", startCol)
	case '=':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.EQ, "==", startCol)
		}
		if l.peek() == '>' {
			l.advance()
			l.advance()
			return l.newToken(token.FAT_ARROW, "=>", startCol)
		}
		l.advance()
		return l.newToken(token.ASSIGN, "=", startCol)
	case '!':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.NOT_EQ, "!=", startCol)
		}
		l.advance()
		return l.newToken(token.BANG, "!", startCol)
	case '<':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.LT_EQ, "<=", startCol)
		}
		l.advance()
		return l.newToken(token.LT, "<", startCol)
	case '>':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.newToken(token.GT_EQ, ">=", startCol)
		}
		l.advance()
		return l.newToken(token.GT, ">", startCol)
	case '&':
		if l.peek() == '&' {
			l.advance()
			l.advance()
			return l.newToken(token.AND, "&&", startCol)
		}
	case '|':
		if l.peek() == '|' {
			l.advance()
			l.advance()
			return l.newToken(token.OR, "||", startCol)
		}
		if l.peek() == '>' {
			l.advance()
			l.advance()
			return l.newToken(token.PIPELINE, "|>", startCol)
		}
		l.advance()
		return l.newToken(token.BAR, "|", startCol)
	case '?':
		l.advance()
		return l.newToken(token.QUERY, "?", startCol)
	case '.':
		if l.peek() == '.' {
			l.advance()
			l.advance()
			if l.current() == '=' {
				l.advance()
				return l.newToken(token.DOTDOTEQ, "..=", startCol)
			}
			return l.newToken(token.DOTDOT, "..", startCol)
		}
		l.advance()
		return l.newToken(token.DOT, ".", startCol)
	case ',':
		l.advance()
		return l.newToken(token.COMMA, ",", startCol)
	case ':':
		l.advance()
		return l.newToken(token.COLON, ":", startCol)
	case ';':
		l.advance()
		return l.newToken(token.SEMICOLON, ";", startCol)
	case '(':
		l.advance()
		return l.newToken(token.LPAREN, "(", startCol)
	case ')':
		l.advance()
		return l.newToken(token.RPAREN, ")", startCol)
	case '{':
		l.advance()
		return l.newToken(token.LBRACE, "{", startCol)
	case '}':
		l.advance()
		return l.newToken(token.RBRACE, "}", startCol)
	case '[':
		l.advance()
		return l.newToken(token.LBRACK, "[", startCol)
	case ']':
		l.advance()
		return l.newToken(token.RBRACK, "]", startCol)
	case '"':
		return l.readString(startCol)
	}

	if unicode.IsDigit(ch) {
		return l.readNumber(startCol)
	}
	if isIdentStart(ch) {
		return l.readIdentifier(startCol)
	}

	l.advance()
	tok := l.newToken(token.ILLEGAL, string(ch), startCol)
	l.Ers = append(l.Ers, err.CreateErr("lex/char", &tok, string(ch)))
	return tok
}

func (l *Lexer) readIdentifier(startCol int) token.Token {
	var sb strings.Builder
	for isIdentStart(l.current()) || unicode.IsDigit(l.current()) {
		sb.WriteRune(l.current())
		l.advance()
	}
	literal := sb.String()
	if literal == "_" {
		return l.newToken(token.UNDERSCORE, literal, startCol)
	}
	return l.newToken(token.LookupIdent(literal), literal, startCol)
}

func (l *Lexer) readNumber(startCol int) token.Token {
	var sb strings.Builder
	isFloat := false
	for unicode.IsDigit(l.current()) || l.current() == '_' {
		if l.current() != '_' {
			sb.WriteRune(l.current())
		}
		l.advance()
	}
	// A '.' followed by a digit makes a float; '..' is a range operator and
	// belongs to the next token.
	if l.current() == '.' && unicode.IsDigit(l.peek()) {
		isFloat = true
		sb.WriteRune('.')
		l.advance()
		for unicode.IsDigit(l.current()) {
			sb.WriteRune(l.current())
			l.advance()
		}
	}
	if l.current() == 'e' || l.current() == 'E' {
		isFloat = true
		sb.WriteRune('e')
		l.advance()
		if l.current() == '+' || l.current() == '-' {
			sb.WriteRune(l.current())
			l.advance()
		}
		for unicode.IsDigit(l.current()) {
			sb.WriteRune(l.current())
			l.advance()
		}
	}
	if isFloat {
		return l.newToken(token.FLOAT, sb.String(), startCol)
	}
	return l.newToken(token.INT, sb.String(), startCol)
}

func (l *Lexer) readString(startCol int) token.Token {
	l.advance() // the opening quote
	var sb strings.Builder
	for {
		ch := l.current()
		if ch == '"' {
			l.advance()
			return l.newToken(token.STRING, sb.String(), startCol)
		}
		if ch == 0 || ch == '\n' {
			tok := l.newToken(token.STRING, sb.String(), startCol)
			l.Ers = append(l.Ers, err.CreateErr("lex/string/unterminated", &tok))
			return tok
		}
		if ch == '\\' {
			l.advance()
			switch l.current() {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(l.current())
			}
			l.advance()
			continue
		}
		sb.WriteRune(ch)
		l.advance()
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}
