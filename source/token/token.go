package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT" // add, foobar, x, y, ...
	INT    = "int"
	FLOAT  = "float"
	STRING = "string"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	POW      = "**"
	BANG     = "!"

	PLUS_EQ  = "+="
	MINUS_EQ = "-="
	MUL_EQ   = "*="
	DIV_EQ   = "/="

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LT_EQ  = "<="
	GT_EQ  = ">="

	AND = "&&"
	OR  = "||"

	DOTDOT   = ".."
	DOTDOTEQ = "..="
	DOT      = "."

	PIPELINE = "|>"
	BAR      = "|"
	QUERY    = "?"

	FAT_ARROW  = "=>"
	THIN_ARROW = "->"

	COMMA     = ","
	COLON     = ":"
	SEMICOLON = ";"

	LPAREN = "("
	RPAREN = ")"
	LBRACE = "{"
	RBRACE = "}"
	LBRACK = "["
	RBRACK = "]"

	UNDERSCORE = "_"

	// Keywords
	LET      = "let"
	MUT      = "mut"
	FUN      = "fun"
	RETURN   = "return"
	IF       = "if"
	ELSE     = "else"
	MATCH    = "match"
	FOR      = "for"
	IN       = "in"
	WHILE    = "while"
	LOOP     = "loop"
	BREAK    = "break"
	CONTINUE = "continue"
	TRUE     = "true"
	FALSE    = "false"
	NIL      = "nil"
	TRY      = "try"
	CATCH    = "catch"
	FINALLY  = "finally"
	THROW    = "throw"
	ACTOR    = "actor"
	RECEIVE  = "receive"
	SPAWN    = "spawn"
	ASYNC    = "async"
	AWAIT    = "await"
	STRUCT   = "struct"
	ENUM     = "enum"
	TYPE     = "type"
	IMPORT   = "import"
	AS       = "as"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	ChStart int
	ChEnd   int
	Source  string
}

var keywords = map[string]TokenType{
	"let":      LET,
	"mut":      MUT,
	"fun":      FUN,
	"return":   RETURN,
	"if":       IF,
	"else":     ELSE,
	"match":    MATCH,
	"for":      FOR,
	"in":       IN,
	"while":    WHILE,
	"loop":     LOOP,
	"break":    BREAK,
	"continue": CONTINUE,
	"true":     TRUE,
	"false":    FALSE,
	"nil":      NIL,
	"try":      TRY,
	"catch":    CATCH,
	"finally":  FINALLY,
	"throw":    THROW,
	"actor":    ACTOR,
	"receive":  RECEIVE,
	"spawn":    SPAWN,
	"async":    ASYNC,
	"await":    AWAIT,
	"struct":   STRUCT,
	"enum":     ENUM,
	"type":     TYPE,
	"import":   IMPORT,
	"as":       AS,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
