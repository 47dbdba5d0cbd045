package vm

import (
	"testing"

	"github.com/paiml/ruchy-sub025/source/interpreter"
	"github.com/paiml/ruchy-sub025/source/parser"
	"github.com/paiml/ruchy-sub025/source/test_helper"
	"github.com/paiml/ruchy-sub025/source/values"
)

func machineEval(s string) (string, error) {
	p := parser.NewParser("test", s)
	program := p.ParseProgram()
	if len(p.Ers) > 0 {
		return p.Ers[0].ErrorId, nil
	}
	chunk, ce := Compile(program)
	if ce != nil {
		return ce.ErrorId, nil
	}
	v, e := NewMachine().Run(chunk, values.NewEnvironment())
	if e != nil {
		return e.ErrorId, nil
	}
	return v.Describe(values.ViewDebug), nil
}

func runTest(t *testing.T, tests []test_helper.TestItem) {
	test_helper.RunTest(t, tests, machineEval)
}

func TestMachineLiterals(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `42`, Want: `42`},
		{Input: `3.5`, Want: `3.5`},
		{Input: `"foo"`, Want: `"foo"`},
		{Input: `true`, Want: `true`},
		{Input: `nil`, Want: `nil`},
		{Input: `[1, 2, 3]`, Want: `[1, 2, 3]`},
		{Input: `(1, "two")`, Want: `(1, "two")`},
	}
	runTest(t, tests)
}

func TestMachineArithmetic(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `5 + 2 * 3`, Want: `11`},
		{Input: `(5 + 2) * 3`, Want: `21`},
		{Input: `10 / 3`, Want: `3`},
		{Input: `10 % 3`, Want: `1`},
		{Input: `2 ** 10`, Want: `1024`},
		{Input: `-(5 + 2)`, Want: `-7`},
		{Input: `10 / 0`, Want: `eval/div/zero`},
		{Input: `"a" + "b"`, Want: `"ab"`},
	}
	runTest(t, tests)
}

func TestMachineShortCircuit(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `true && false`, Want: `false`},
		{Input: `false || true`, Want: `true`},
		{Input: `false && (10 / 0 == 0)`, Want: `false`},
		{Input: `true || (10 / 0 == 0)`, Want: `true`},
	}
	runTest(t, tests)
}

func TestMachineVariables(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `let x = 5
x + 2`, Want: `7`},
		{Input: `let mut x = 5
x = 7
x`, Want: `7`},
		{Input: `let mut x = 5
x += 2
x`, Want: `7`},
		{Input: `let x = 5
x = 7`, Want: `eval/assign/immutable`},
		{Input: `z`, Want: `undef/var`},
		{Input: `y = 1`, Want: `undef/set`},
	}
	runTest(t, tests)
}

func TestMachineScoping(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `let x = 1
{ let x = 10
  x }`, Want: `10`},
		{Input: `let x = 1
{ let x = 10 }
x`, Want: `1`},
	}
	runTest(t, tests)
}

func TestMachineControlFlow(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `if 1 < 2 { "yes" } else { "no" }`, Want: `"yes"`},
		{Input: `if false { 1 }`, Want: `nil`},
		{Input: `let mut n = 0
while n < 10 { n += 3 }
n`, Want: `12`},
		{Input: `let mut total = 0
for i in 1..=10 { total += i }
total`, Want: `55`},
		{Input: `let mut total = 0
for i in 1..10 { total += i }
total`, Want: `45`},
		{Input: `let mut n = 0
loop {
  n += 1
  if n == 7 { break n }
}`, Want: `7`},
		{Input: `let mut total = 0
for i in 1..=10 {
  if i % 2 == 0 { continue }
  total += i
}
total`, Want: `25`},
	}
	runTest(t, tests)
}

func TestMachineFunctions(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `fun add(a, b) { a + b }
add(2, 3)`, Want: `5`},
		{Input: `fun add(a, b) { a + b }
add(2)`, Want: `eval/call/args`},
		{Input: `let f = |x| x * 2
f(21)`, Want: `42`},
		{Input: `fun fact(n) { if n <= 1 { 1 } else { n * fact(n - 1) } }
fact(10)`, Want: `3628800`},
		{Input: `fun early(n) {
  if n > 0 { return "positive" }
  "not positive"
}
early(5)`, Want: `"positive"`},
		{Input: `5(3)`, Want: `eval/call/callable`},
	}
	runTest(t, tests)
}

func TestMachineIndexing(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `[1, 2, 3][0]`, Want: `1`},
		{Input: `[1, 2, 3][-1]`, Want: `3`},
		{Input: `[1, 2, 3][5]`, Want: `eval/index/oob`},
		{Input: `"hello"[1]`, Want: `"e"`},
	}
	runTest(t, tests)
}

func TestMachineBuiltins(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `len([1, 2, 3])`, Want: `3`},
		{Input: `abs(-5)`, Want: `5`},
		{Input: `str(42)`, Want: `"42"`},
		{Input: `map([1, 2], |x| x + 1)`, Want: `[2, 3]`},
		{Input: `filter([1, 2, 3], |x| x > 1)`, Want: `[2, 3]`},
		{Input: `reduce([1, 2, 3], 0, |a, b| a + b)`, Want: `6`},
		{Input: `[1, 2, 3] |> len`, Want: `3`},
	}
	runTest(t, tests)
}

func TestMachineUnsupported(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `match 5 { _ => 1 }`, Want: `comp/unsupported`},
		{Input: `try { 1 } catch (e) { 2 }`, Want: `comp/unsupported`},
	}
	runTest(t, tests)
}

// Both engines must agree on every terminating, non-I/O program.
func TestEngineEquivalence(t *testing.T) {
	programs := []string{
		`fun fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }
fib(15)`,
		`let mut total = 0
for i in 1..=100 { total += i * i }
total`,
		`fun twice(f, x) { f(f(x)) }
twice(|n| n * 3, 7)`,
		`let mut parts = ["c", "a", "b"]
parts |> len`,
		`2 ** 30 - 1`,
	}
	for _, program := range programs {
		fromMachine, eM := machineEval(program)
		if eM != nil {
			t.Fatalf("machine failed on %s: %v", program, eM)
		}
		fromInterpreter, eI := interpreter.EvalString("test", program, values.NewEnvironment())
		if eI != nil {
			t.Fatalf("interpreter failed on %s: %s", program, eI.Error())
		}
		if fromMachine != fromInterpreter.Describe(values.ViewDebug) {
			t.Fatalf("engines disagree on %s: machine %s, interpreter %s",
				program, fromMachine, fromInterpreter.Describe(values.ViewDebug))
		}
	}
	want := "610"
	got, _ := machineEval(programs[0])
	if got != want {
		t.Fatalf("fib(15) came out as %s", got)
	}
}
