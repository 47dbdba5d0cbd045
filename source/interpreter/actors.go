package interpreter

// Actors run on the interpreter's own thread. A send enqueues a message on
// the actor's FIFO mailbox; whoever caused the first enqueue then drains the
// mailbox to quiescence, each handler running to completion before the next
// message is looked at. An ask is a send that also hands back the value of
// the handler it triggered.

import (
	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/settings"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

func evalActorExpression(node *ast.ActorExpression, c *Context) (values.Value, *signal) {
	def := &values.ActorDef{
		Name:     node.Name,
		States:   node.States,
		Handlers: map[string]*ast.ReceiveHandler{},
		Env:      c.Env,
	}
	for _, handler := range node.Handlers {
		def.Handlers[handler.Message] = handler
	}
	definition := values.Value{T: values.ACTOR_DEF, V: def}
	c.Env.Define(node.Name, definition, false)
	return definition, nil
}

func evalSpawnExpression(node *ast.SpawnExpression, c *Context) (values.Value, *signal) {
	v, ok := c.Env.Get(node.Name)
	if !ok || v.T != values.ACTOR_DEF {
		return values.UNDEF, errSignal(err.CreateErr("eval/actor/unknown", &node.Token, node.Name))
	}
	def := v.V.(*values.ActorDef)

	// Each instance evaluates the state initializers afresh.
	state := values.NewMap()
	for _, field := range def.States {
		initial, sig := Eval(field.Value, c.withEnv(def.Env))
		if sig != nil {
			return values.UNDEF, sig
		}
		state.Set(field.Name, initial)
	}
	return values.Value{T: values.ACTOR, V: &values.ActorRef{Def: def, State: state}}, nil
}

func evalSendExpression(node *ast.SendExpression, c *Context) (values.Value, *signal) {
	target, sig := Eval(node.Target, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	if target.T != values.ACTOR {
		return values.UNDEF, errSignal(err.CreateErr("eval/actor/type", &node.Token, target.TypeName()))
	}
	args, sig := evalExpressions(node.Args, c)
	if sig != nil {
		return values.UNDEF, sig
	}

	ref := target.V.(*values.ActorRef)
	if len(ref.Mailbox) >= settings.MAX_MAILBOX {
		return values.UNDEF, errSignal(err.CreateErr("eval/actor/mailbox", &node.Token))
	}
	ref.Mailbox = append(ref.Mailbox, values.Message{Name: node.Message, Args: args})

	// If a handler further up the stack is already draining this mailbox,
	// the message waits its turn and an ask can't observe a reply.
	if ref.Draining {
		return values.NIL, nil
	}
	reply, sig := drainMailbox(ref, &node.Token, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	if node.Ask {
		return reply, nil
	}
	return values.NIL, nil
}

// drainMailbox processes messages until the mailbox is empty and returns the
// result of the first handler it ran, which is the one the triggering send
// enqueued.
func drainMailbox(ref *values.ActorRef, tok *token.Token, c *Context) (values.Value, *signal) {
	ref.Draining = true
	defer func() { ref.Draining = false }()

	reply := values.NIL
	first := true
	for len(ref.Mailbox) > 0 {
		message := ref.Mailbox[0]
		ref.Mailbox = ref.Mailbox[1:]

		result, sig := runHandler(ref, message, tok, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		if first {
			reply = result
			first = false
		}
	}
	return reply, nil
}

func runHandler(ref *values.ActorRef, message values.Message, tok *token.Token, c *Context) (values.Value, *signal) {
	handler, ok := ref.Def.Handlers[message.Name]
	if !ok {
		return values.UNDEF, errSignal(err.CreateErr("eval/actor/handler", tok, message.Name))
	}
	if len(message.Args) != len(handler.Params) {
		return values.UNDEF, errSignal(err.CreateErr("eval/call/args",
			&handler.Token, message.Name, len(handler.Params), len(message.Args)))
	}

	// State fields appear to the handler as mutable variables; whatever it
	// leaves in them becomes the new state.
	frame := ref.Def.Env.NewChild()
	for _, key := range ref.State.Keys {
		frame.Define(key, ref.State.Entries[key], true)
	}
	for i, param := range handler.Params {
		frame.Define(param.Name, message.Args[i], true)
	}

	result, sig := Eval(handler.Body, c.withEnv(frame))
	if sig != nil {
		if sig.kind == sigReturn {
			result, sig = sig.val, nil
		} else {
			return values.UNDEF, sig
		}
	}

	for _, key := range ref.State.Keys {
		if v, ok := frame.Get(key); ok {
			ref.State.Set(key, v)
		}
	}
	return result, nil
}
