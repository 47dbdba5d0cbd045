package err

// A map from error identifiers to functions that supply the corresponding
// error messages.
//
// Errors in the map are in alphabetical order of their identifiers.
//
// Major categories are comp, eval, io, lex, parse, sandbox, serve, undef,
// and vm.

import (
	"fmt"

	"github.com/paiml/ruchy-sub025/source/token"
)

func emph(a any) string {
	return fmt.Sprintf("'%v'", a)
}

var ErrorCreatorMap = map[string]ErrorCreator{

	"comp/unsupported": {
		Message: func(tok *token.Token, args ...any) string {
			return "the bytecode compiler doesn't know how to compile " + emph(args[0])
		},
	},

	"eval/actor/handler": {
		Message: func(tok *token.Token, args ...any) string {
			return "actor has no handler for message " + emph(args[0])
		},
	},

	"eval/actor/mailbox": {
		Message: func(tok *token.Token, args ...any) string {
			return "actor mailbox is full"
		},
	},

	"eval/actor/type": {
		Message: func(tok *token.Token, args ...any) string {
			return "left-hand side of message send must be an actor, not " + emph(args[0])
		},
	},

	"eval/actor/unknown": {
		Message: func(tok *token.Token, args ...any) string {
			return "can't spawn unknown actor " + emph(args[0])
		},
	},

	"eval/add": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot add " + fmt.Sprint(args[0]) + " and " + fmt.Sprint(args[1])
		},
	},

	"eval/assign/immutable": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot assign to immutable variable " + emph(args[0])
		},
	},

	"eval/builtin/args": {
		Message: func(tok *token.Token, args ...any) string {
			return "wrong arguments for builtin " + emph(args[0]) + ": " + fmt.Sprint(args[1])
		},
	},

	"eval/call/args": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprintf("function %v expects %v argument(s) but got %v", emph(args[0]), args[1], args[2])
		},
	},

	"eval/call/callable": {
		Message: func(tok *token.Token, args ...any) string {
			return "trying to call a value of type " + fmt.Sprint(args[0]) + " which can't be a function"
		},
	},

	"eval/compare": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot compare " + fmt.Sprint(args[0]) + " and " + fmt.Sprint(args[1])
		},
	},

	"eval/div": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot divide " + fmt.Sprint(args[0]) + " by " + fmt.Sprint(args[1])
		},
	},

	"eval/div/zero": {
		Message: func(tok *token.Token, args ...any) string {
			return "Division by zero"
		},
	},

	"eval/index/oob": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprintf("index %v out of bounds for length %v", args[0], args[1])
		},
	},

	"eval/index/type": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot index a value of type " + fmt.Sprint(args[0]) + " with a value of type " + fmt.Sprint(args[1])
		},
	},

	"eval/loop/break": {
		Message: func(tok *token.Token, args ...any) string {
			return emph("break") + " outside of a loop"
		},
	},

	"eval/loop/continue": {
		Message: func(tok *token.Token, args ...any) string {
			return emph("continue") + " outside of a loop"
		},
	},

	"eval/match/exhaust": {
		Message: func(tok *token.Token, args ...any) string {
			return "non-exhaustive match"
		},
	},

	"eval/method": {
		Message: func(tok *token.Token, args ...any) string {
			return "method " + emph(args[0]) + " not defined on type " + fmt.Sprint(args[1])
		},
	},

	"eval/mod/type": {
		Message: func(tok *token.Token, args ...any) string {
			return "operands of " + emph("%") + " must be integers, not " + fmt.Sprint(args[0]) + " and " + fmt.Sprint(args[1])
		},
	},

	"eval/mod/zero": {
		Message: func(tok *token.Token, args ...any) string {
			return "Modulo by zero"
		},
	},

	"eval/mul": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot multiply " + fmt.Sprint(args[0]) + " and " + fmt.Sprint(args[1])
		},
	},

	"eval/negate": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot negate a value of type " + fmt.Sprint(args[0])
		},
	},

	"eval/pipeline": {
		Message: func(tok *token.Token, args ...any) string {
			return "right-hand side of " + emph("|>") + " must be a function, not " + fmt.Sprint(args[0])
		},
	},

	"eval/pow": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot raise " + fmt.Sprint(args[0]) + " to the power of " + fmt.Sprint(args[1])
		},
	},

	"eval/range/type": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot iterate over a value of type " + fmt.Sprint(args[0])
		},
	},

	"eval/return/outside": {
		Message: func(tok *token.Token, args ...any) string {
			return emph("return") + " outside of a function"
		},
	},

	"eval/slabref": {
		Message: func(tok *token.Token, args ...any) string {
			return "slab reference " + fmt.Sprint(args[0]) + " has no backing slab"
		},
	},

	"eval/stack": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprintf("StackOverflow: call depth exceeded %v frames", args[0])
		},
	},

	"eval/sub": {
		Message: func(tok *token.Token, args ...any) string {
			return "cannot subtract " + fmt.Sprint(args[1]) + " from " + fmt.Sprint(args[0])
		},
	},

	"eval/throw": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprint(args[0])
		},
	},

	"eval/unwrap": {
		Message: func(tok *token.Token, args ...any) string {
			return "called " + emph("unwrap") + " on " + fmt.Sprint(args[0])
		},
	},

	"lex/char": {
		Message: func(tok *token.Token, args ...any) string {
			return "unexpected character " + emph(args[0])
		},
	},

	"lex/float": {
		Message: func(tok *token.Token, args ...any) string {
			return "malformed number literal " + emph(args[0])
		},
	},

	"lex/string/unterminated": {
		Message: func(tok *token.Token, args ...any) string {
			return "unterminated string literal"
		},
	},

	"parse/eof": {
		Message: func(tok *token.Token, args ...any) string {
			return "unexpected end of input"
		},
	},

	"parse/expect": {
		Message: func(tok *token.Token, args ...any) string {
			return "expected " + emph(args[0]) + ", got " + fmt.Sprint(args[1])
		},
	},

	"parse/match/arm": {
		Message: func(tok *token.Token, args ...any) string {
			return "malformed match arm"
		},
	},

	"parse/prefix": {
		Message: func(tok *token.Token, args ...any) string {
			return "can't parse " + fmt.Sprint(args[0]) + " as the start of an expression"
		},
	},

	"sandbox/memory": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprintf("MemoryLimitExceeded: cell used more than %v MB", args[0])
		},
	},

	"sandbox/permission/file": {
		Message: func(tok *token.Token, args ...any) string {
			return "PermissionDenied: cell references the filesystem, which this sandbox forbids"
		},
	},

	"sandbox/permission/net": {
		Message: func(tok *token.Token, args ...any) string {
			return "NetworkAccessDenied: cell references the network, which this sandbox forbids"
		},
	},

	"sandbox/timeout": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprintf("Timeout: cell exceeded its CPU budget of %v ms", args[0])
		},
	},

	"serve/busy": {
		Message: func(tok *token.Token, args ...any) string {
			return "session is already executing a cell"
		},
	},

	"serve/cell/unknown": {
		Message: func(tok *token.Token, args ...any) string {
			return "no cell with id " + emph(args[0])
		},
	},

	"serve/checkpoint/unknown": {
		Message: func(tok *token.Token, args ...any) string {
			return "no checkpoint named " + emph(args[0])
		},
	},

	"serve/global/absent": {
		Message: func(tok *token.Token, args ...any) string {
			return "can't update global " + emph(args[0]) + " because it doesn't exist"
		},
	},

	"serve/global/exists": {
		Message: func(tok *token.Token, args ...any) string {
			return "can't declare global " + emph(args[0]) + " because it already exists"
		},
	},

	"serve/global/immutable": {
		Message: func(tok *token.Token, args ...any) string {
			return "can't update immutable global " + emph(args[0])
		},
	},

	"serve/import/json": {
		Message: func(tok *token.Token, args ...any) string {
			return "malformed session state: " + fmt.Sprint(args[0])
		},
	},

	"serve/skipped": {
		Message: func(tok *token.Token, args ...any) string {
			return "skipped: upstream " + fmt.Sprint(args[0]) + " failed"
		},
	},

	"undef/set": {
		Message: func(tok *token.Token, args ...any) string {
			return "undefined variable " + emph(args[0])
		},
	},

	"undef/var": {
		Message: func(tok *token.Token, args ...any) string {
			return "undefined variable " + emph(args[0])
		},
	},

	"vm/stack/overflow": {
		Message: func(tok *token.Token, args ...any) string {
			return fmt.Sprintf("StackOverflow: value stack exceeded %v slots", args[0])
		},
	},

	"vm/stack/underflow": {
		Message: func(tok *token.Token, args ...any) string {
			return "stack underflow, this is an internal error"
		},
	},
}
