package text

// A bunch of text utilities to help in generating pretty and meaningful
// help messages, error messages, etc.

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/paiml/ruchy-sub025/source/token"
)

const (
	VERSION        = "0.1.0"
	BULLET         = "  ▪ "
	BULLET_SPACING = "    " // I.e. whitespace the same width as BULLET.
	PROMPT         = "→ "
)

var (
	RESET  = "\033[0m"
	RED    = "\033[31m"
	GREEN  = "\033[32m"
	YELLOW = "\033[33m"
	CYAN   = "\033[36m"
	GRAY   = "\033[90m"
)

func init() {
	if runtime.GOOS == "windows" {
		RESET, RED, GREEN, YELLOW, CYAN, GRAY = "", "", "", "", "", ""
	}
}

var OK = Green("ok")

func Emph(s string) string {
	return "'" + s + "'"
}

func Red(s string) string {
	return RED + s + RESET
}

func Green(s string) string {
	return GREEN + s + RESET
}

func Yellow(s string) string {
	return YELLOW + s + RESET
}

func Cyan(s string) string {
	return CYAN + s + RESET
}

func Gray(s string) string {
	return GRAY + s + RESET
}

func Logo() string {
	var padding string
	if len(VERSION)%2 == 1 {
		padding = ","
	}
	titleText := " Ruchy" + padding + " version " + VERSION + " "
	gear := Yellow("⚙")
	leftMargin := "  "
	bar := strings.Repeat("═", len(titleText)/2)
	logoString := "\n" +
		leftMargin + "╔" + bar + gear + bar + "╗\n" +
		leftMargin + "║" + titleText + "║\n" +
		leftMargin + "╚" + bar + gear + bar + "╝\n\n"
	return logoString
}

// Produces the 'file:line:col' prefix that error messages carry when a span
// is available.
func DescribePos(tok *token.Token) string {
	if tok == nil || tok.Source == "" {
		return ""
	}
	if tok.Line <= 0 {
		return tok.Source
	}
	return tok.Source + ":" + strconv.Itoa(tok.Line) + ":" + strconv.Itoa(tok.ChStart)
}

// Describes a token for the purposes of error messages etc.
func DescribeTok(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.STRING:
		return "<string>"
	case token.INT:
		return "<int>"
	case token.FLOAT:
		return "<float>"
	case token.IDENT:
		return "'" + tok.Literal + "'"
	}
	return "'" + tok.Literal + "'"
}

func ExtractFileName(s string) string {
	if strings.LastIndex(s, ".") >= 0 {
		s = s[:strings.LastIndex(s, ".")]
	}
	if strings.LastIndex(s, "/") >= 0 {
		s = s[strings.LastIndex(s, "/")+1:]
	}
	return s
}

func ToEscapedText(s string) string {
	result := "\""
	for _, ch := range s {
		switch ch {
		case '\n':
			result = result + "\\n"
		case '\r':
			result = result + "\\r"
		case '\t':
			result = result + "\\t"
		case '"':
			result = result + "\\\""
		case '\\':
			result = result + "\\\\"
		default:
			result = result + string(ch)
		}
	}
	return result + "\""
}
