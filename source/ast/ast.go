package ast

import (
	"bytes"
	"strings"

	"github.com/paiml/ruchy-sub025/source/token"
)

// The base Node interface. The evaluator and the bytecode compiler need
// nothing beyond the node's kind and its token (for error messages).
type Node interface {
	Children() []Node
	GetToken() *token.Token
	String() string
}

// Nodes in alphabetical order.

// An actor declaration: state fields plus receive handlers.
type ActorExpression struct {
	Token    token.Token
	Name     string
	States   []StateField
	Handlers []*ReceiveHandler
}

type StateField struct {
	Name  string
	Value Node
}

type ReceiveHandler struct {
	Token   token.Token
	Message string
	Params  []Param
	Body    Node
}

func (ae *ActorExpression) Children() []Node {
	result := []Node{}
	for _, s := range ae.States {
		result = append(result, s.Value)
	}
	for _, h := range ae.Handlers {
		result = append(result, h.Body)
	}
	return result
}
func (ae *ActorExpression) GetToken() *token.Token { return &ae.Token }
func (ae *ActorExpression) String() string         { return "actor " + ae.Name }

type AssignmentExpression struct {
	Token    token.Token // the '=' or compound operator
	Left     Node
	Operator string
	Right    Node
}

func (ae *AssignmentExpression) Children() []Node       { return []Node{ae.Left, ae.Right} }
func (ae *AssignmentExpression) GetToken() *token.Token { return &ae.Token }
func (ae *AssignmentExpression) String() string {
	return "(" + ae.Left.String() + " " + ae.Operator + " " + ae.Right.String() + ")"
}

type AwaitExpression struct {
	Token token.Token
	Value Node
}

func (aw *AwaitExpression) Children() []Node       { return []Node{aw.Value} }
func (aw *AwaitExpression) GetToken() *token.Token { return &aw.Token }
func (aw *AwaitExpression) String() string         { return "await " + aw.Value.String() }

type BlockExpression struct {
	Token      token.Token // the '{'
	Statements []Node
}

func (be *BlockExpression) Children() []Node       { return be.Statements }
func (be *BlockExpression) GetToken() *token.Token { return &be.Token }
func (be *BlockExpression) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, s := range be.Statements {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) Children() []Node       { return []Node{} }
func (b *BooleanLiteral) GetToken() *token.Token { return &b.Token }
func (b *BooleanLiteral) String() string         { return b.Token.Literal }

type BreakExpression struct {
	Token token.Token
	Value Node // may be nil
}

func (br *BreakExpression) Children() []Node {
	if br.Value == nil {
		return []Node{}
	}
	return []Node{br.Value}
}
func (br *BreakExpression) GetToken() *token.Token { return &br.Token }
func (br *BreakExpression) String() string {
	if br.Value == nil {
		return "break"
	}
	return "break " + br.Value.String()
}

type CallExpression struct {
	Token    token.Token // the '('
	Function Node
	Args     []Node
}

func (ce *CallExpression) Children() []Node       { return append([]Node{ce.Function}, ce.Args...) }
func (ce *CallExpression) GetToken() *token.Token { return &ce.Token }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Args {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

type ContinueExpression struct {
	Token token.Token
}

func (ce *ContinueExpression) Children() []Node       { return []Node{} }
func (ce *ContinueExpression) GetToken() *token.Token { return &ce.Token }
func (ce *ContinueExpression) String() string         { return "continue" }

type EnumDefinition struct {
	Token    token.Token
	Name     string
	Variants []string
}

func (ed *EnumDefinition) Children() []Node       { return []Node{} }
func (ed *EnumDefinition) GetToken() *token.Token { return &ed.Token }
func (ed *EnumDefinition) String() string         { return "enum " + ed.Name }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) Children() []Node       { return []Node{} }
func (fl *FloatLiteral) GetToken() *token.Token { return &fl.Token }
func (fl *FloatLiteral) String() string         { return fl.Token.Literal }

type ForExpression struct {
	Token    token.Token
	VarName  string
	Iterable Node
	Body     *BlockExpression
}

func (fe *ForExpression) Children() []Node       { return []Node{fe.Iterable, fe.Body} }
func (fe *ForExpression) GetToken() *token.Token { return &fe.Token }
func (fe *ForExpression) String() string {
	return "for " + fe.VarName + " in " + fe.Iterable.String() + " " + fe.Body.String()
}

type FunctionLiteral struct {
	Token      token.Token
	Name       string // empty for lambdas
	Params     []Param
	ReturnType string // optional annotation; "" if absent
	Body       Node
	IsAsync    bool
}

type Param struct {
	Name string
	Type string // optional annotation; "" if absent
}

func (fn *FunctionLiteral) Children() []Node       { return []Node{fn.Body} }
func (fn *FunctionLiteral) GetToken() *token.Token { return &fn.Token }
func (fn *FunctionLiteral) String() string {
	params := []string{}
	for _, p := range fn.Params {
		params = append(params, p.Name)
	}
	head := "fun"
	if fn.Name != "" {
		head = head + " " + fn.Name
	}
	return head + "(" + strings.Join(params, ", ") + ") " + fn.Body.String()
}

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) Children() []Node       { return []Node{} }
func (i *Identifier) GetToken() *token.Token { return &i.Token }
func (i *Identifier) String() string         { return i.Value }

type IfExpression struct {
	Token       token.Token
	Condition   Node
	Consequence *BlockExpression
	Alternative Node // a BlockExpression, another IfExpression, or nil
}

func (ie *IfExpression) Children() []Node {
	result := []Node{ie.Condition, ie.Consequence}
	if ie.Alternative != nil {
		result = append(result, ie.Alternative)
	}
	return result
}
func (ie *IfExpression) GetToken() *token.Token { return &ie.Token }
func (ie *IfExpression) String() string {
	result := "if " + ie.Condition.String() + " " + ie.Consequence.String()
	if ie.Alternative != nil {
		result = result + " else " + ie.Alternative.String()
	}
	return result
}

type ImportExpression struct {
	Token  token.Token
	Module string
	Names  []string
	Alias  string
}

func (im *ImportExpression) Children() []Node       { return []Node{} }
func (im *ImportExpression) GetToken() *token.Token { return &im.Token }
func (im *ImportExpression) String() string         { return "import " + im.Module }

type IndexExpression struct {
	Token token.Token // the '['
	Left  Node
	Index Node
}

func (ix *IndexExpression) Children() []Node       { return []Node{ix.Left, ix.Index} }
func (ix *IndexExpression) GetToken() *token.Token { return &ix.Token }
func (ix *IndexExpression) String() string {
	return ix.Left.String() + "[" + ix.Index.String() + "]"
}

type InfixExpression struct {
	Token    token.Token
	Left     Node
	Operator string
	Right    Node
}

func (ie *InfixExpression) Children() []Node       { return []Node{ie.Left, ie.Right} }
func (ie *InfixExpression) GetToken() *token.Token { return &ie.Token }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) Children() []Node       { return []Node{} }
func (il *IntegerLiteral) GetToken() *token.Token { return &il.Token }
func (il *IntegerLiteral) String() string         { return il.Token.Literal }

type LetExpression struct {
	Token   token.Token
	Name    string
	Mutable bool
	VarType string // optional annotation; "" if absent
	Right   Node
}

func (le *LetExpression) Children() []Node       { return []Node{le.Right} }
func (le *LetExpression) GetToken() *token.Token { return &le.Token }
func (le *LetExpression) String() string {
	head := "let "
	if le.Mutable {
		head = head + "mut "
	}
	return "(" + head + le.Name + " = " + le.Right.String() + ")"
}

type ListLiteral struct {
	Token    token.Token // the '['
	Elements []Node
}

func (ll *ListLiteral) Children() []Node       { return ll.Elements }
func (ll *ListLiteral) GetToken() *token.Token { return &ll.Token }
func (ll *ListLiteral) String() string {
	elements := []string{}
	for _, e := range ll.Elements {
		elements = append(elements, e.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

type LoopExpression struct {
	Token token.Token
	Body  *BlockExpression
}

func (le *LoopExpression) Children() []Node       { return []Node{le.Body} }
func (le *LoopExpression) GetToken() *token.Token { return &le.Token }
func (le *LoopExpression) String() string         { return "loop " + le.Body.String() }

type MatchArm struct {
	Pattern Node
	Guard   Node // may be nil
	Body    Node
}

type MatchExpression struct {
	Token     token.Token
	Scrutinee Node
	Arms      []*MatchArm
}

func (me *MatchExpression) Children() []Node {
	result := []Node{me.Scrutinee}
	for _, arm := range me.Arms {
		result = append(result, arm.Pattern)
		if arm.Guard != nil {
			result = append(result, arm.Guard)
		}
		result = append(result, arm.Body)
	}
	return result
}
func (me *MatchExpression) GetToken() *token.Token { return &me.Token }
func (me *MatchExpression) String() string {
	return "match " + me.Scrutinee.String() + " { ... }"
}

type MethodCallExpression struct {
	Token    token.Token
	Receiver Node
	Method   string
	Args     []Node
}

func (mc *MethodCallExpression) Children() []Node {
	return append([]Node{mc.Receiver}, mc.Args...)
}
func (mc *MethodCallExpression) GetToken() *token.Token { return &mc.Token }
func (mc *MethodCallExpression) String() string {
	args := []string{}
	for _, a := range mc.Args {
		args = append(args, a.String())
	}
	return mc.Receiver.String() + "." + mc.Method + "(" + strings.Join(args, ", ") + ")"
}

type NilLiteral struct {
	Token token.Token
}

func (nl *NilLiteral) Children() []Node       { return []Node{} }
func (nl *NilLiteral) GetToken() *token.Token { return &nl.Token }
func (nl *NilLiteral) String() string         { return "nil" }

type ObjectLiteral struct {
	Token  token.Token // the '{'
	Keys   []string
	Values []Node
}

func (ol *ObjectLiteral) Children() []Node       { return ol.Values }
func (ol *ObjectLiteral) GetToken() *token.Token { return &ol.Token }
func (ol *ObjectLiteral) String() string {
	pairs := []string{}
	for i, k := range ol.Keys {
		pairs = append(pairs, k+": "+ol.Values[i].String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type PipelineExpression struct {
	Token token.Token // the '|>'
	Left  Node
	Right Node
}

func (pe *PipelineExpression) Children() []Node       { return []Node{pe.Left, pe.Right} }
func (pe *PipelineExpression) GetToken() *token.Token { return &pe.Token }
func (pe *PipelineExpression) String() string {
	return "(" + pe.Left.String() + " |> " + pe.Right.String() + ")"
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Node
}

func (pe *PrefixExpression) Children() []Node       { return []Node{pe.Right} }
func (pe *PrefixExpression) GetToken() *token.Token { return &pe.Token }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// A Program is the parse of one unit of source: a cell, a REPL line, a file.
type Program struct {
	Token      token.Token
	Statements []Node
}

func (p *Program) Children() []Node       { return p.Statements }
func (p *Program) GetToken() *token.Token { return &p.Token }
func (p *Program) String() string {
	result := []string{}
	for _, s := range p.Statements {
		result = append(result, s.String())
	}
	return strings.Join(result, "; ")
}

type RangeExpression struct {
	Token     token.Token // the '..' or '..='
	Low       Node
	High      Node
	Inclusive bool
}

func (re *RangeExpression) Children() []Node       { return []Node{re.Low, re.High} }
func (re *RangeExpression) GetToken() *token.Token { return &re.Token }
func (re *RangeExpression) String() string {
	op := ".."
	if re.Inclusive {
		op = "..="
	}
	return re.Low.String() + op + re.High.String()
}

type ReturnExpression struct {
	Token token.Token
	Value Node // may be nil
}

func (re *ReturnExpression) Children() []Node {
	if re.Value == nil {
		return []Node{}
	}
	return []Node{re.Value}
}
func (re *ReturnExpression) GetToken() *token.Token { return &re.Token }
func (re *ReturnExpression) String() string {
	if re.Value == nil {
		return "return"
	}
	return "return " + re.Value.String()
}

// A message send: 'ref ! msg(args)' enqueues, 'ref ? msg(args)' enqueues and
// waits for the handler's reply.
type SendExpression struct {
	Token   token.Token
	Target  Node
	Message string
	Args    []Node
	Ask     bool
}

func (se *SendExpression) Children() []Node       { return append([]Node{se.Target}, se.Args...) }
func (se *SendExpression) GetToken() *token.Token { return &se.Token }
func (se *SendExpression) String() string {
	op := " ! "
	if se.Ask {
		op = " ? "
	}
	return se.Target.String() + op + se.Message
}

type SpawnExpression struct {
	Token token.Token
	Name  string
}

func (se *SpawnExpression) Children() []Node       { return []Node{} }
func (se *SpawnExpression) GetToken() *token.Token { return &se.Token }
func (se *SpawnExpression) String() string         { return "spawn " + se.Name }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) Children() []Node       { return []Node{} }
func (sl *StringLiteral) GetToken() *token.Token { return &sl.Token }
func (sl *StringLiteral) String() string         { return "\"" + sl.Value + "\"" }

type StructDefinition struct {
	Token  token.Token
	Name   string
	Fields []Param
}

func (sd *StructDefinition) Children() []Node       { return []Node{} }
func (sd *StructDefinition) GetToken() *token.Token { return &sd.Token }
func (sd *StructDefinition) String() string         { return "struct " + sd.Name }

type ThrowExpression struct {
	Token token.Token
	Value Node
}

func (te *ThrowExpression) Children() []Node       { return []Node{te.Value} }
func (te *ThrowExpression) GetToken() *token.Token { return &te.Token }
func (te *ThrowExpression) String() string         { return "throw " + te.Value.String() }

type TryExpression struct {
	Token       token.Token
	Body        *BlockExpression
	CatchVar    string
	CatchBody   *BlockExpression // may be nil
	FinallyBody *BlockExpression // may be nil
}

func (te *TryExpression) Children() []Node {
	result := []Node{te.Body}
	if te.CatchBody != nil {
		result = append(result, te.CatchBody)
	}
	if te.FinallyBody != nil {
		result = append(result, te.FinallyBody)
	}
	return result
}
func (te *TryExpression) GetToken() *token.Token { return &te.Token }
func (te *TryExpression) String() string         { return "try " + te.Body.String() }

type TupleLiteral struct {
	Token    token.Token // the '('
	Elements []Node
}

func (tl *TupleLiteral) Children() []Node       { return tl.Elements }
func (tl *TupleLiteral) GetToken() *token.Token { return &tl.Token }
func (tl *TupleLiteral) String() string {
	elements := []string{}
	for _, e := range tl.Elements {
		elements = append(elements, e.String())
	}
	if len(elements) == 1 {
		return "(" + elements[0] + ",)"
	}
	return "(" + strings.Join(elements, ", ") + ")"
}

type TypeAlias struct {
	Token  token.Token
	Name   string
	Target string
}

func (ta *TypeAlias) Children() []Node       { return []Node{} }
func (ta *TypeAlias) GetToken() *token.Token { return &ta.Token }
func (ta *TypeAlias) String() string         { return "type " + ta.Name + " = " + ta.Target }

type WhileExpression struct {
	Token     token.Token
	Condition Node
	Body      *BlockExpression
}

func (we *WhileExpression) Children() []Node       { return []Node{we.Condition, we.Body} }
func (we *WhileExpression) GetToken() *token.Token { return &we.Token }
func (we *WhileExpression) String() string {
	return "while " + we.Condition.String() + " " + we.Body.String()
}
