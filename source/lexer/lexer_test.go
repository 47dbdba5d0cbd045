package lexer

import (
	"testing"

	"github.com/paiml/ruchy-sub025/source/token"
)

type testItem struct {
	expectedType    token.TokenType
	expectedLiteral string
	expectedLine    int
}

func testLexingString(t *testing.T, input string, items []testItem) {
	l := NewLexer("dummy source", input)
	for i, tt := range items {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q with literal %q, got=%q with literal %q",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
		if tok.Line != tt.expectedLine {
			t.Fatalf("tests[%d] - line wrong. expected=%d, got=%d",
				i, tt.expectedLine, tok.Line)
		}
	}
	if len(l.Ers) != 0 {
		t.Fatalf("lexer reported errors: %s", l.Ers.String())
	}
}

func TestLetAndOperators(t *testing.T) {
	input := `let mut x = 10
x += 2 ** 3
x <= 11 && !done || x != 0`
	items := []testItem{
		{token.LET, "let", 1},
		{token.MUT, "mut", 1},
		{token.IDENT, "x", 1},
		{token.ASSIGN, "=", 1},
		{token.INT, "10", 1},
		{token.IDENT, "x", 2},
		{token.PLUS_EQ, "+=", 2},
		{token.INT, "2", 2},
		{token.POW, "**", 2},
		{token.INT, "3", 2},
		{token.IDENT, "x", 3},
		{token.LT_EQ, "<=", 3},
		{token.INT, "11", 3},
		{token.AND, "&&", 3},
		{token.BANG, "!", 3},
		{token.IDENT, "done", 3},
		{token.OR, "||", 3},
		{token.IDENT, "x", 3},
		{token.NOT_EQ, "!=", 3},
		{token.INT, "0", 3},
		{token.EOF, "", 3},
	}
	testLexingString(t, input, items)
}

func TestRangesDotsAndFloats(t *testing.T) {
	// Dots are the tricky part: 1..5 is a range, 1.5 is a float, 1..=5 is an
	// inclusive range, and xs.len is field access.
	input := `1..5
1.5
1..=5
1_000_000
2.5e-3
xs.len`
	items := []testItem{
		{token.INT, "1", 1},
		{token.DOTDOT, "..", 1},
		{token.INT, "5", 1},
		{token.FLOAT, "1.5", 2},
		{token.INT, "1", 3},
		{token.DOTDOTEQ, "..=", 3},
		{token.INT, "5", 3},
		{token.INT, "1000000", 4},
		{token.FLOAT, "2.5e-3", 5},
		{token.IDENT, "xs", 6},
		{token.DOT, ".", 6},
		{token.IDENT, "len", 6},
		{token.EOF, "", 6},
	}
	testLexingString(t, input, items)
}

func TestKeywordsAndArrows(t *testing.T) {
	input := `fun f(x) -> int { match x { 1 => true, _ => false } }`
	items := []testItem{
		{token.FUN, "fun", 1},
		{token.IDENT, "f", 1},
		{token.LPAREN, "(", 1},
		{token.IDENT, "x", 1},
		{token.RPAREN, ")", 1},
		{token.THIN_ARROW, "->", 1},
		{token.IDENT, "int", 1},
		{token.LBRACE, "{", 1},
		{token.MATCH, "match", 1},
		{token.IDENT, "x", 1},
		{token.LBRACE, "{", 1},
		{token.INT, "1", 1},
		{token.FAT_ARROW, "=>", 1},
		{token.TRUE, "true", 1},
		{token.COMMA, ",", 1},
		{token.UNDERSCORE, "_", 1},
		{token.FAT_ARROW, "=>", 1},
		{token.FALSE, "false", 1},
		{token.RBRACE, "}", 1},
		{token.RBRACE, "}", 1},
	}
	testLexingString(t, input, items)
}

func TestActorsPipesAndLambdas(t *testing.T) {
	input := `c ! inc(1)
c ? get()
xs |> sum
|x| x + 1`
	items := []testItem{
		{token.IDENT, "c", 1},
		{token.BANG, "!", 1},
		{token.IDENT, "inc", 1},
		{token.LPAREN, "(", 1},
		{token.INT, "1", 1},
		{token.RPAREN, ")", 1},
		{token.IDENT, "c", 2},
		{token.QUERY, "?", 2},
		{token.IDENT, "get", 2},
		{token.LPAREN, "(", 2},
		{token.RPAREN, ")", 2},
		{token.IDENT, "xs", 3},
		{token.PIPELINE, "|>", 3},
		{token.IDENT, "sum", 3},
		{token.BAR, "|", 4},
		{token.IDENT, "x", 4},
		{token.BAR, "|", 4},
		{token.IDENT, "x", 4},
		{token.PLUS, "+", 4},
		{token.INT, "1", 4},
	}
	testLexingString(t, input, items)
}

func TestStringsAndComments(t *testing.T) {
	input := `"hello" // trailing comment
"tab\there"
"say \"hi\""`
	items := []testItem{
		{token.STRING, "hello", 1},
		{token.STRING, "tab\there", 2},
		{token.STRING, `say "hi"`, 3},
	}
	testLexingString(t, input, items)
}

func TestIllegalCharacter(t *testing.T) {
	l := NewLexer("dummy source", `let x = #`)
	for tok := l.NextToken(); tok.Type != token.EOF && tok.Type != token.ILLEGAL; tok = l.NextToken() {
	}
	if len(l.Ers) != 1 || l.Ers[0].ErrorId != "lex/char" {
		t.Fatalf("wanted one lex/char error, got %s", l.Ers.String())
	}
}

func TestUnterminatedString(t *testing.T) {
	l := NewLexer("dummy source", `"oops`)
	l.NextToken()
	if len(l.Ers) != 1 || l.Ers[0].ErrorId != "lex/string/unterminated" {
		t.Fatalf("wanted an unterminated string error, got %s", l.Ers.String())
	}
}
