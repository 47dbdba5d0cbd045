package err

// The engine's error values. Each error is created from an identifier such as
// "vm/div/zero" which keys into the ErrorCreatorMap in errorfile.go; the major
// category of the identifier determines the typed Kind surfaced to hosts.
// Internal code is allowed to pass plain message strings around; conversion to
// something a host can use happens at the cell boundary.

import (
	"strings"

	"github.com/paiml/ruchy-sub025/source/text"
	"github.com/paiml/ruchy-sub025/source/token"
)

type Kind int

const (
	SyntaxError Kind = iota
	ParseError
	TypeError
	RuntimeError
	UndefinedError
	CompileError
	ServerError
	IOError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case ParseError:
		return "ParseError"
	case TypeError:
		return "TypeError"
	case RuntimeError:
		return "RuntimeError"
	case UndefinedError:
		return "UndefinedError"
	case CompileError:
		return "CompileError"
	case ServerError:
		return "ServerError"
	}
	return "IOError"
}

// Major categories of error identifier, mapped to kinds. Two otherwise
// identical errors thrown in different places in the Go code must be assigned
// different identifiers, if only by suffixing /a, /b, etc to the identifier.
var kindsByCategory = map[string]Kind{
	"lex":     SyntaxError,
	"parse":   ParseError,
	"type":    TypeError,
	"eval":    RuntimeError,
	"vm":      RuntimeError,
	"comp":    CompileError,
	"undef":   UndefinedError,
	"serve":   ServerError,
	"sandbox": RuntimeError,
	"io":      IOError,
}

type Error struct {
	ErrorId string
	Message string
	Token   token.Token
	Trace   []token.Token
	Values  []any
}

type Errors []*Error

func (e *Error) Error() string {
	pos := text.DescribePos(&e.Token)
	if pos == "" {
		return e.Kind().String() + ": " + e.Message
	}
	return pos + ": " + e.Kind().String() + ": " + e.Message
}

func (e *Error) Kind() Kind {
	category := e.ErrorId
	if i := strings.Index(category, "/"); i >= 0 {
		category = category[:i]
	}
	if k, ok := kindsByCategory[category]; ok {
		return k
	}
	return RuntimeError
}

func (e *Error) AddToTrace(tok *token.Token) *Error {
	e.Trace = append(e.Trace, *tok)
	return e
}

type ErrorCreator struct {
	Message func(tok *token.Token, args ...any) string
}

func CreateErr(errorId string, tok *token.Token, args ...any) *Error {
	creator, ok := ErrorCreatorMap[errorId]
	if !ok {
		panic("unknown error identifier " + errorId + ", this is bad.")
	}
	e := &Error{ErrorId: errorId, Message: creator.Message(tok, args...), Values: args}
	if tok != nil {
		e.Token = *tok
	}
	return e
}

func (ee Errors) String() string {
	result := []string{}
	for _, e := range ee {
		result = append(result, text.BULLET+e.Error())
	}
	return strings.Join(result, "\n")
}
