package test_helper

// Auxiliary types and functions for testing the interpreter, the VM, and
// the sessions they live in.

import (
	"testing"

	"github.com/paiml/ruchy-sub025/source/settings"
	"github.com/paiml/ruchy-sub025/source/text"
)

type TestItem struct {
	Input string
	Want  string
}

// RunTest runs each input through F and compares with what the test wants.
// F is the engine under test: something that turns a source string into the
// debug description of its value, or an error message.
func RunTest(t *testing.T, tests []TestItem, F func(s string) (string, error)) {
	for _, test := range tests {
		if settings.SHOW_TESTS {
			println(text.BULLET + "Running test " + text.Emph(test.Input))
		}
		got, e := F(test.Input)
		if e != nil {
			got = e.Error()
		}
		if test.Want != got {
			t.Fatalf(`Test failed with input %s | Wanted : %s | Got : %s.`, test.Input, test.Want, got)
		}
	}
}
