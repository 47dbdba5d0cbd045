package interpreter

import (
	"testing"

	"github.com/paiml/ruchy-sub025/source/test_helper"
	"github.com/paiml/ruchy-sub025/source/values"
)

// Each input is a little program; what we want is the debug description of
// its value, or the identifier of the error it raises.
func runTest(t *testing.T, tests []test_helper.TestItem) {
	test_helper.RunTest(t, tests, func(s string) (string, error) {
		env := values.NewEnvironment()
		v, e := EvalString("test", s, env)
		if e != nil {
			return e.ErrorId, nil
		}
		return v.Describe(values.ViewDebug), nil
	})
}

func TestLiterals(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `42`, Want: `42`},
		{Input: `-42`, Want: `-42`},
		{Input: `3.5`, Want: `3.5`},
		{Input: `2.0`, Want: `2.0`},
		{Input: `"foo"`, Want: `"foo"`},
		{Input: `true`, Want: `true`},
		{Input: `false`, Want: `false`},
		{Input: `nil`, Want: `nil`},
		{Input: `[1, 2, 3]`, Want: `[1, 2, 3]`},
		{Input: `(1, "two", true)`, Want: `(1, "two", true)`},
		{Input: `1..5`, Want: `1..5`},
		{Input: `1..=5`, Want: `1..=5`},
	}
	runTest(t, tests)
}

func TestArithmetic(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `5 + 2`, Want: `7`},
		{Input: `5 - 2`, Want: `3`},
		{Input: `5 * 2`, Want: `10`},
		{Input: `10 / 3`, Want: `3`},
		{Input: `10 % 3`, Want: `1`},
		{Input: `2 ** 10`, Want: `1024`},
		{Input: `5 + 2.0`, Want: `7.0`},
		{Input: `10.0 / 4`, Want: `2.5`},
		{Input: `"foo" + "bar"`, Want: `"foobar"`},
		{Input: `10 / 0`, Want: `eval/div/zero`},
		{Input: `10 % 0`, Want: `eval/mod/zero`},
		{Input: `10.0 / 0.0`, Want: `+Inf`}, // IEEE-754, not an error
		{Input: `[1, 2] + [3]`, Want: `eval/add`},
		{Input: `"foo" - 1`, Want: `eval/sub`},
	}
	runTest(t, tests)
}

func TestComparisonAndLogic(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `5 > 2`, Want: `true`},
		{Input: `5 < 2`, Want: `false`},
		{Input: `5 >= 5`, Want: `true`},
		{Input: `5 <= 4`, Want: `false`},
		{Input: `5 == 5`, Want: `true`},
		{Input: `5 != 5`, Want: `false`},
		{Input: `5 == 5.0`, Want: `false`}, // promotion happens in arithmetic, not equality
		{Input: `5 < 5.5`, Want: `true`},
		{Input: `"a" < "b"`, Want: `true`},
		{Input: `[1, 2] == [1, 2]`, Want: `true`},
		{Input: `!true`, Want: `false`},
		{Input: `true && false`, Want: `false`},
		{Input: `true || false`, Want: `true`},
		{Input: `false && (10 / 0 == 0)`, Want: `false`}, // short-circuit
		{Input: `true || (10 / 0 == 0)`, Want: `true`},
	}
	runTest(t, tests)
}

func TestLetAndAssignment(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `let x = 5
x`, Want: `5`},
		{Input: `let mut x = 5
x = 7
x`, Want: `7`},
		{Input: `let mut x = 5
x += 2
x`, Want: `7`},
		{Input: `let mut x = 5
x *= 3
x`, Want: `15`},
		{Input: `let x = 5
x = 7`, Want: `eval/assign/immutable`},
		{Input: `y = 7`, Want: `undef/set`},
		{Input: `z`, Want: `undef/var`},
		{Input: `let mut a = [1, 2, 3]
a[0] = 10
a`, Want: `[10, 2, 3]`},
	}
	runTest(t, tests)
}

func TestShadowing(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `let x = 1
let x = x + 1
x`, Want: `2`},
		{Input: `let x = 1
{ let x = 10
  x }`, Want: `10`},
		{Input: `let x = 1
{ let x = 10 }
x`, Want: `1`},
	}
	runTest(t, tests)
}

func TestIfExpressions(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `if true { 1 } else { 2 }`, Want: `1`},
		{Input: `if false { 1 } else { 2 }`, Want: `2`},
		{Input: `if false { 1 }`, Want: `nil`},
		{Input: `if 1 < 2 { "yes" } else { "no" }`, Want: `"yes"`},
		{Input: `let x = 10
if x > 5 { x * 2 } else { 0 }`, Want: `20`},
	}
	runTest(t, tests)
}

func TestIndexing(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `[1, 2, 3][0]`, Want: `1`},
		{Input: `[1, 2, 3][2]`, Want: `3`},
		{Input: `[1, 2, 3][-1]`, Want: `3`},
		{Input: `[1, 2, 3][-3]`, Want: `1`},
		{Input: `[1, 2, 3][3]`, Want: `eval/index/oob`},
		{Input: `[1, 2, 3][-4]`, Want: `eval/index/oob`},
		{Input: `"hello"[1]`, Want: `"e"`},
		{Input: `"hello"[-1]`, Want: `"o"`},
		{Input: `(1, 2, 3).1`, Want: `2`},
		{Input: `let m = {a: 1, b: 2}
m["b"]`, Want: `2`},
		{Input: `let m = {a: 1}
m.a`, Want: `1`},
	}
	runTest(t, tests)
}

func TestFunctionsAndClosures(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `fun add(a, b) { a + b }
add(2, 3)`, Want: `5`},
		{Input: `fun add(a, b) { a + b }
add(2)`, Want: `eval/call/args`},
		{Input: `let f = |x| x * 2
f(21)`, Want: `42`},
		{Input: `fun make_counter() {
  let mut count = 0
  || { count += 1
       count }
}
let c = make_counter()
c()
c()
c()`, Want: `3`},
		{Input: `fun fact(n) { if n <= 1 { 1 } else { n * fact(n - 1) } }
fact(10)`, Want: `3628800`},
		{Input: `fun fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }
fib(15)`, Want: `610`},
		{Input: `fun early(n) {
  if n > 0 { return "positive" }
  "not positive"
}
early(5)`, Want: `"positive"`},
		{Input: `5(3)`, Want: `eval/call/callable`},
		{Input: `fun loop_forever(n) { loop_forever(n + 1) }
loop_forever(0)`, Want: `eval/stack`},
	}
	runTest(t, tests)
}

func TestLoops(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `let mut total = 0
for i in 1..=10 { total += i }
total`, Want: `55`},
		{Input: `let mut total = 0
for i in 1..10 { total += i }
total`, Want: `45`},
		{Input: `let mut total = 0
for x in [2, 3, 5] { total += x }
total`, Want: `10`},
		{Input: `let mut n = 0
while n < 10 { n += 2 }
n`, Want: `10`},
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
		{Input: `break`, Want: `eval/loop/break`},
		{Input: `continue`, Want: `eval/loop/continue`},
	}
	runTest(t, tests)
}

func TestMatchExpressions(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `match 5 { 1 => "one", 5 => "five", _ => "other" }`, Want: `"five"`},
		{Input: `match 9 { 1 => "one", 5 => "five", _ => "other" }`, Want: `"other"`},
		{Input: `match 5 { x if x > 3 => "big", _ => "small" }`, Want: `"big"`},
		{Input: `match 2 { x if x > 3 => "big", _ => "small" }`, Want: `"small"`},
		{Input: `match 5 { 1 => "one" }`, Want: `eval/match/exhaust`},
		{Input: `match [1, 2] { [a, b] => a + b, _ => 0 }`, Want: `3`},
		{Input: `match Some(7) { Some(x) => x, None => 0 }`, Want: `7`},
		{Input: `match None { Some(x) => x, None => 0 }`, Want: `0`},
		{Input: `match Ok(3) { Ok(x) => x * 2, Err(e) => -1 }`, Want: `6`},
		{Input: `match 1..=10 { 5 => "no", _ => "range" }`, Want: `"range"`},
		{Input: `match 7 { 1..=5 => "low", 6..=10 => "high", _ => "out" }`, Want: `"high"`},
	}
	runTest(t, tests)
}

func TestTryCatchThrow(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `try { 10 / 0 } catch (e) { -1 }`, Want: `-1`},
		{Input: `try { 42 } catch (e) { -1 }`, Want: `42`},
		{Input: `try { throw "boom" } catch (e) { e }`, Want: `"boom"`},
		{Input: `throw "unhandled"`, Want: `eval/throw`},
		{Input: `let mut log = []
try {
  10 / 0
} catch (e) {
  log.push("caught")
} finally {
  log.push("finally")
}
log`, Want: `["caught", "finally"]`},
		{Input: `try { 1 } finally { 2 }`, Want: `1`},
	}
	runTest(t, tests)
}

func TestMethods(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `"Hello".to_upper()`, Want: `"HELLO"`},
		{Input: `"Hello".to_lower()`, Want: `"hello"`},
		{Input: `"  pad  ".trim()`, Want: `"pad"`},
		{Input: `"a,b,c".split(",")`, Want: `["a", "b", "c"]`},
		{Input: `"hello".len()`, Want: `5`},
		{Input: `"hello".contains("ell")`, Want: `true`},
		{Input: `"hello".starts_with("he")`, Want: `true`},
		{Input: `"hello".replace("l", "r")`, Want: `"herro"`},
		{Input: `[1, 2, 3].len()`, Want: `3`},
		{Input: `[1, 2, 3].map(|x| x * 2)`, Want: `[2, 4, 6]`},
		{Input: `[1, 2, 3, 4].filter(|x| x % 2 == 0)`, Want: `[2, 4]`},
		{Input: `[1, 2, 3, 4].reduce(0, |acc, x| acc + x)`, Want: `10`},
		{Input: `[1, 2, 3].sum()`, Want: `6`},
		{Input: `[3, 1, 2].sorted()`, Want: `[1, 2, 3]`},
		{Input: `[1, 2, 3].reverse()`, Want: `[3, 2, 1]`},
		{Input: `["a", "b"].join("-")`, Want: `"a-b"`},
		{Input: `[1, 2].first()`, Want: `Some(1)`},
		{Input: `[].first()`, Want: `None`},
		{Input: `let mut a = [1]
a.push(2)
a`, Want: `[1, 2]`},
		{Input: `let m = {a: 1}
m.get("a")`, Want: `Some(1)`},
		{Input: `let m = {a: 1}
m.get("z")`, Want: `None`},
		{Input: `(1..=5).sum()`, Want: `15`},
		{Input: `(1..4).to_list()`, Want: `[1, 2, 3]`},
		{Input: `5.nonsense()`, Want: `eval/method`},
	}
	runTest(t, tests)
}

func TestOptionsAndResults(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `Some(5)`, Want: `Some(5)`},
		{Input: `None`, Want: `None`},
		{Input: `Some(5).unwrap()`, Want: `5`},
		{Input: `None.unwrap_or(9)`, Want: `9`},
		{Input: `Some(5).is_some()`, Want: `true`},
		{Input: `Some(5).map(|x| x + 1)`, Want: `Some(6)`},
		{Input: `Ok(3)`, Want: `Ok(3)`},
		{Input: `Err("bad")`, Want: `Err("bad")`},
		{Input: `Ok(3).unwrap()`, Want: `3`},
		{Input: `Err("bad").is_err()`, Want: `true`},
	}
	runTest(t, tests)
}

func TestBuiltins(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `len([1, 2, 3])`, Want: `3`},
		{Input: `len("four")`, Want: `4`},
		{Input: `abs(-5)`, Want: `5`},
		{Input: `abs(-5.5)`, Want: `5.5`},
		{Input: `min(3, 1, 2)`, Want: `1`},
		{Input: `max(3, 1, 2)`, Want: `3`},
		{Input: `floor(3.7)`, Want: `3.0`},
		{Input: `ceil(3.2)`, Want: `4.0`},
		{Input: `round(3.5)`, Want: `4.0`},
		{Input: `sqrt(16)`, Want: `4.0`},
		{Input: `int("42")`, Want: `42`},
		{Input: `float("2.5")`, Want: `2.5`},
		{Input: `str(42)`, Want: `"42"`},
		{Input: `typeof(42)`, Want: `"integer"`},
		{Input: `typeof("x")`, Want: `"string"`},
		{Input: `range(3)`, Want: `0..3`},
		{Input: `map([1, 2], |x| x + 1)`, Want: `[2, 3]`},
		{Input: `filter([1, 2, 3], |x| x > 1)`, Want: `[2, 3]`},
		{Input: `reduce([1, 2, 3], 0, |a, b| a + b)`, Want: `6`},
	}
	runTest(t, tests)
}

func TestPipelines(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `5 |> abs`, Want: `5`},
		{Input: `-5 |> abs |> str`, Want: `"5"`},
		{Input: `[1, 2, 3] |> len`, Want: `3`},
	}
	runTest(t, tests)
}

func TestActors(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `actor Counter {
  count: 0
  receive increment(n) => count += n
  receive get() => count
}
let c = spawn Counter
c ! increment(5)
c ! increment(2)
c ? get()`, Want: `7`},
	}
	runTest(t, tests)
}

func TestStringConversions(t *testing.T) {
	tests := []test_helper.TestItem{
		{Input: `str(3.5)`, Want: `"3.5"`},
		{Input: `"n = " + str(7)`, Want: `"n = 7"`},
		{Input: `int("nope")`, Want: `eval/builtin/args`},
	}
	runTest(t, tests)
}
