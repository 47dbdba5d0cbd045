//
// Ruchy notebook engine
//
// Acknowledgments
//
// The interpreter's shape owes much to Thorsten Ball's Writing An Interpreter
// In Go (https://interpreterbook.com/), as most tree-walkers in Go do.
//

package main

import (
	"os"
	"strings"

	"github.com/paiml/ruchy-sub025/source/hub"
)

func main() {
	hb := hub.New(os.Stdout)

	// Arguments are run as a single hub command before the REPL starts, so
	// e.g. `ruchy hub sandbox educational` opens a sandboxed scratchpad.
	if len(os.Args) > 1 {
		if hb.Do(strings.Join(os.Args[1:], " ")) {
			return
		}
	}
	hub.StartRepl(hb)
}
