// All this does is contain in one place the constants controlling which bits of the
// inner workings of the lexer/parser/compiler are displayed for debugging purposes,
// together with the hard limits on evaluation. In a release the SHOW_* flags must
// all be set to false.

package settings

const (
	// These do what it sounds like.
	SHOW_LEXER    = false
	SHOW_PARSER   = false
	SHOW_COMPILER = false
	SHOW_RUNTIME  = false // Dumps each VM instruction as it executes.

	SHOW_TESTS = true // Says whether the tests should say what is being tested, useful if one of them crashes and we don't know which.
)

const (
	// The default limit on the interpreter's call depth and the VM's value
	// stack. Recursion past this fails with a stack overflow error rather
	// than exhausting memory.
	MAX_CALL_DEPTH  = 10000
	MAX_STACK_DEPTH = 10000

	// How many queued messages an actor's mailbox will hold before a send
	// becomes an error. Keeps self-sends from looping forever.
	MAX_MAILBOX = 4096
)
