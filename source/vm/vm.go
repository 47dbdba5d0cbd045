package vm

// The stack machine. A program counter steps through the instruction vector;
// each instruction is dispatched by tag. The VM shares the values package's
// operator contracts with the interpreter, so the two paths raise identical
// errors and are observationally equivalent wherever both run.

import (
	"io"
	"os"
	"time"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/interpreter"
	"github.com/paiml/ruchy-sub025/source/settings"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type frame struct {
	chunk *Chunk
	pc    int
	env   *values.Environment
	base  int // stack slot of the callee; the return value lands here
}

type Machine struct {
	Out      io.Writer
	Deadline time.Time // zero means no deadline
	BudgetMS int64
	MaxStack int
	MaxDepth int

	stack  []values.Value
	frames []frame
	steps  int
}

func NewMachine() *Machine {
	return &Machine{Out: os.Stdout, MaxStack: settings.MAX_STACK_DEPTH, MaxDepth: settings.MAX_CALL_DEPTH}
}

// Run executes a chunk against an environment and returns the value left on
// top of the stack.
func (m *Machine) Run(chunk *Chunk, env *values.Environment) (values.Value, *err.Error) {
	m.stack = m.stack[:0]
	m.frames = append(m.frames[:0], frame{chunk: chunk, env: env})

	for {
		f := &m.frames[len(m.frames)-1]
		if f.pc >= len(f.chunk.Code) {
			// Falling off the end of a chunk is an implicit return.
			result := values.NIL
			if len(m.stack) > f.base {
				result = m.stack[len(m.stack)-1]
			}
			if len(m.frames) == 1 {
				return result, nil
			}
			m.stack = append(m.stack[:f.base], result)
			m.frames = m.frames[:len(m.frames)-1]
			continue
		}

		ins := f.chunk.Code[f.pc]
		tok := f.chunk.Tokens[f.pc]
		f.pc++

		if e := m.checkDeadline(tok); e != nil {
			return values.UNDEF, e
		}

		switch ins.Op {

		case LoadConst:
			constant := f.chunk.constant(ins.A)
			// Function templates close over the current environment when
			// they are loaded.
			if constant.T == values.CLOSURE {
				if fn, ok := constant.V.(*Function); ok {
					constant = values.Value{T: values.CLOSURE, V: &Closure{Fn: fn, Env: f.env}}
				}
			}
			if e := m.push(constant, tok); e != nil {
				return values.UNDEF, e
			}

		case LoadVar:
			v, ok := f.env.Get(ins.Name)
			if !ok {
				if ins.Name == "None" {
					v = values.NONE
				} else if interpreter.IsBuiltin(ins.Name) {
					v = values.Value{T: values.BUILTIN, V: ins.Name}
				} else {
					return values.UNDEF, err.CreateErr("undef/var", tok, ins.Name)
				}
			}
			if e := m.push(v, tok); e != nil {
				return values.UNDEF, e
			}

		case StoreVar:
			v, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			switch ins.A {
			case storeAssign:
				switch f.env.Set(ins.Name, v) {
				case values.SetImmutable:
					return values.UNDEF, err.CreateErr("eval/assign/immutable", tok, ins.Name)
				case values.SetAbsent:
					return values.UNDEF, err.CreateErr("undef/set", tok, ins.Name)
				}
			case storeMutable:
				f.env.Define(ins.Name, v, true)
			case storeImmut:
				f.env.Define(ins.Name, v, false)
			}

		case BinaryOp:
			right, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			left, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			result, e := values.BinaryOp(ins.Name, left, right, tok)
			if e != nil {
				return values.UNDEF, e
			}
			m.stack = append(m.stack, result)

		case UnaryOp:
			operand, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			var result values.Value
			switch ins.Name {
			case "-":
				result, e = values.Negate(operand, tok)
				if e != nil {
					return values.UNDEF, e
				}
			case "!":
				result = values.MakeBool(!operand.IsTruthy())
			}
			m.stack = append(m.stack, result)

		case Jump:
			f.pc = ins.A

		case JumpIfFalse:
			condition, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			if !condition.IsTruthy() {
				f.pc = ins.A
			}

		case JumpIfTrue:
			condition, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			if condition.IsTruthy() {
				f.pc = ins.A
			}

		case Call:
			if e := m.call(ins.A, tok); e != nil {
				return values.UNDEF, e
			}

		case Return:
			result, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			if len(m.frames) == 1 {
				// The outermost chunk is a function body when the machine is
				// applying a closure for a builtin; returning ends the run.
				return result, nil
			}
			m.stack = append(m.stack[:f.base], result)
			m.frames = m.frames[:len(m.frames)-1]

		case Pop:
			if _, e := m.pop(tok); e != nil {
				return values.UNDEF, e
			}

		case Dup:
			top, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			m.stack = append(m.stack, top, top)

		case BuildArray:
			elements, e := m.popN(ins.A, tok)
			if e != nil {
				return values.UNDEF, e
			}
			m.stack = append(m.stack, values.MakeList(elements))

		case BuildTuple:
			elements, e := m.popN(ins.A, tok)
			if e != nil {
				return values.UNDEF, e
			}
			m.stack = append(m.stack, values.MakeTuple(elements))

		case Index:
			index, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			collection, e := m.pop(tok)
			if e != nil {
				return values.UNDEF, e
			}
			result, e := values.Index(collection, index, tok)
			if e != nil {
				return values.UNDEF, e
			}
			m.stack = append(m.stack, result)

		case PushScope:
			f.env = f.env.NewChild()

		case PopScope:
			f.env = f.env.Ext
		}
	}
}

func (m *Machine) push(v values.Value, tok *token.Token) *err.Error {
	if len(m.stack) >= m.MaxStack {
		return err.CreateErr("vm/stack/overflow", tok, m.MaxStack)
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *Machine) pop(tok *token.Token) (values.Value, *err.Error) {
	if len(m.stack) == 0 {
		return values.UNDEF, err.CreateErr("vm/stack/underflow", tok)
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top, nil
}

// popN pops n values and hands them back in source order.
func (m *Machine) popN(n int, tok *token.Token) ([]values.Value, *err.Error) {
	if len(m.stack) < n {
		return nil, err.CreateErr("vm/stack/underflow", tok)
	}
	elements := append([]values.Value{}, m.stack[len(m.stack)-n:]...)
	m.stack = m.stack[:len(m.stack)-n]
	return elements, nil
}

func (m *Machine) checkDeadline(tok *token.Token) *err.Error {
	if m.Deadline.IsZero() {
		return nil
	}
	m.steps++
	if m.steps%256 != 0 {
		return nil
	}
	if time.Now().After(m.Deadline) {
		return err.CreateErr("sandbox/timeout", tok, m.BudgetMS)
	}
	return nil
}

func (m *Machine) call(argc int, tok *token.Token) *err.Error {
	calleeAt := len(m.stack) - argc - 1
	if calleeAt < 0 {
		return err.CreateErr("vm/stack/underflow", tok)
	}
	callee := m.stack[calleeAt]

	switch payload := callee.V.(type) {

	case *Closure:
		if callee.T != values.CLOSURE {
			break
		}
		if argc != len(payload.Fn.Params) {
			name := payload.Fn.Name
			if name == "" {
				name = "<lambda>"
			}
			return err.CreateErr("eval/call/args", tok, name, len(payload.Fn.Params), argc)
		}
		if len(m.frames) >= m.MaxDepth {
			return err.CreateErr("eval/stack", tok, m.MaxDepth)
		}
		env := payload.Env.NewChild()
		for i, param := range payload.Fn.Params {
			env.Define(param, m.stack[calleeAt+1+i], true)
		}
		m.stack = m.stack[:calleeAt+1] // args are bound; the callee slot is the base
		m.frames = append(m.frames, frame{chunk: payload.Fn.Body, env: env, base: calleeAt})
		return nil

	case *values.Closure:
		// Defined under the tree-walking engine and reached through a global.
		if callee.T != values.CLOSURE {
			break
		}
		args := append([]values.Value{}, m.stack[calleeAt+1:]...)
		m.stack = m.stack[:calleeAt]
		result, e := interpreter.ApplyClosure(payload, args, tok, m.Out, m.Deadline, m.BudgetMS)
		if e != nil {
			return e
		}
		m.stack = append(m.stack, result)
		return nil

	case string:
		if callee.T != values.BUILTIN {
			break
		}
		args := append([]values.Value{}, m.stack[calleeAt+1:]...)
		m.stack = m.stack[:calleeAt]
		result, e := m.callBuiltin(payload, args, tok)
		if e != nil {
			return e
		}
		m.stack = append(m.stack, result)
		return nil
	}

	return err.CreateErr("eval/call/callable", tok, callee.TypeName())
}
