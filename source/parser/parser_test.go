package parser_test

import (
	"testing"

	"github.com/paiml/ruchy-sub025/source/parser"
	"github.com/paiml/ruchy-sub025/source/test_helper"
)

func TestPrecedence(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `2 + 2`, Want: `(2 + 2)`},
		{Input: `2 + 3 * 4`, Want: `(2 + (3 * 4))`},
		{Input: `2 * 3 + 4`, Want: `((2 * 3) + 4)`},
		{Input: `-5`, Want: `(-5)`},
		{Input: `-5 + 3`, Want: `((-5) + 3)`},
		{Input: `-a * b`, Want: `((-a) * b)`},
		{Input: `(-5) ** 2`, Want: `((-5) ** 2)`},
		{Input: `a + b + c`, Want: `((a + b) + c)`},
		{Input: `a + b / c`, Want: `(a + (b / c))`},
		{Input: `a % b + c`, Want: `((a % b) + c)`},
		{Input: `1 < 2 == 3 < 4`, Want: `((1 < 2) == (3 < 4))`},
		{Input: `1 != 2 && 3 <= 4`, Want: `((1 != 2) && (3 <= 4))`},
		{Input: `a && b || c`, Want: `((a && b) || c)`},
		{Input: `a || b && c`, Want: `(a || (b && c))`},
		{Input: `!x && !y`, Want: `((!x) && (!y))`},
		{Input: `2 + 2 == 4 && true`, Want: `(((2 + 2) == 4) && true)`},
		{Input: `1 + 2..10`, Want: `(1 + 2)..10`},
		{Input: `1..=n - 1`, Want: `1..=(n - 1)`},
		{Input: `a + b[c]`, Want: `(a + b[c])`},
		{Input: `(2 + 2) * 2`, Want: `((2 + 2) * 2)`},
	}
	test_helper.RunTest(t, tests, parseToString)
}

func TestConstructs(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `let x = 10`, Want: `(let x = 10)`},
		{Input: `let mut x = 10`, Want: `(let mut x = 10)`},
		{Input: `x = 5`, Want: `(x = 5)`},
		{Input: `x += 1`, Want: `(x += 1)`},
		{Input: `[1, 2, 3]`, Want: `[1, 2, 3]`},
		{Input: `(1, "two")`, Want: `(1, "two")`},
		{Input: `{name: "x", age: 1}`, Want: `{name: "x", age: 1}`},
		{Input: `if x { 1 } else { 2 }`, Want: `if x { 1 } else { 2 }`},
		{Input: `if a { 1 } else if b { 2 } else { 3 }`, Want: `if a { 1 } else if b { 2 } else { 3 }`},
		{Input: `fun add(a, b) { a + b }`, Want: `fun add(a, b) { (a + b) }`},
		{Input: `|x| x + 1`, Want: `fun(x) (x + 1)`},
		{Input: `f(1, 2)`, Want: `f(1, 2)`},
		{Input: `xs.push(4)`, Want: `xs.push(4)`},
		{Input: `xs |> sum`, Want: `(xs |> sum)`},
		{Input: `xs |> f |> g`, Want: `((xs |> f) |> g)`},
		{Input: `for i in 1..=10 { i }`, Want: `for i in 1..=10 { i }`},
		{Input: `while x < 3 { x += 1 }`, Want: `while (x < 3) { (x += 1) }`},
		{Input: `loop { break 5 }`, Want: `loop { break 5 }`},
		{Input: `return x`, Want: `return x`},
		{Input: `throw "bad"`, Want: `throw "bad"`},
		{Input: `try { f() } catch (e) { -1 }`, Want: `try { f() }`},
		{Input: `match x { 1 => true, _ => false }`, Want: `match x { ... }`},
		{Input: `c ! increment(1)`, Want: `c ! increment`},
		{Input: `c ? get()`, Want: `c ? get`},
		{Input: `spawn Counter`, Want: `spawn Counter`},
		{Input: `struct Point { x: int, y: int }`, Want: `struct Point`},
		{Input: `let a = 1
let b = 2`, Want: `(let a = 1); (let b = 2)`},
	}
	test_helper.RunTest(t, tests, parseToString)
}

func TestParserErrors(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `2 +`, Want: `parse/prefix`},
		{Input: `1 + )`, Want: `parse/prefix`},
		{Input: `1 + ]`, Want: `parse/prefix`},
		{Input: `(1`, Want: `parse/expect`},
		{Input: `f(1`, Want: `parse/expect`},
		{Input: `let = 5`, Want: `parse/expect`},
		{Input: `{ 1 + 1`, Want: `parse/eof`},
		{Input: `match x { 1 }`, Want: `parse/expect`},
	}
	test_helper.RunTest(t, tests, parseErrorId)
}

func parseToString(s string) (string, error) {
	p := parser.NewParser("test", s)
	program := p.ParseProgram()
	if len(p.Ers) > 0 {
		return "", p.Ers[0]
	}
	return program.String(), nil
}

func parseErrorId(s string) (string, error) {
	p := parser.NewParser("test", s)
	p.ParseProgram()
	if len(p.Ers) == 0 {
		return "unexpected successful parsing", nil
	}
	return p.Ers[0].ErrorId, nil
}
