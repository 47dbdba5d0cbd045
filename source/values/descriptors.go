package values

// Rendering of values for the user. In display view strings appear unquoted,
// as 'println' would show them; in debug view they are quoted and escaped,
// which is what the notebook shows for a cell's result. Elements inside
// containers always render in debug view.

import (
	"math"
	"strconv"
	"strings"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/text"
)

type View int

const (
	ViewStdOut View = iota
	ViewDebug
)

func (v Value) Describe(view View) string {
	switch v.T {
	case NULL:
		return "nil"
	case BOOL:
		if v.V.(bool) {
			return "true"
		}
		return "false"
	case INT:
		return strconv.FormatInt(v.V.(int64), 10)
	case FLOAT:
		return describeFloat(v.V.(float64))
	case STRING:
		if view == ViewDebug {
			return text.ToEscapedText(v.V.(string))
		}
		return v.V.(string)
	case LIST:
		return "[" + describeElements(v.V.(*List).Elements) + "]"
	case TUPLE:
		elements := v.V.(*Tuple).Elements
		if len(elements) == 1 {
			return "(" + elements[0].Describe(ViewDebug) + ",)"
		}
		return "(" + describeElements(elements) + ")"
	case MAP:
		m := v.V.(*Map)
		pairs := []string{}
		for _, k := range m.Keys {
			pairs = append(pairs, k+": "+m.Entries[k].Describe(ViewDebug))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	case CLOSURE:
		return "<closure>"
	case BUILTIN:
		return "<builtin " + v.V.(string) + ">"
	case OPTION:
		o := v.V.(*Option)
		if !o.Present {
			return "None"
		}
		return "Some(" + o.Inner.Describe(ViewDebug) + ")"
	case RESULT:
		r := v.V.(*Result)
		if r.Ok {
			return "Ok(" + r.Inner.Describe(ViewDebug) + ")"
		}
		return "Err(" + r.Inner.Describe(ViewDebug) + ")"
	case RANGE:
		r := v.V.(*Range)
		op := ".."
		if r.Inclusive {
			op = "..="
		}
		return strconv.FormatInt(r.Low, 10) + op + strconv.FormatInt(r.High, 10)
	case ACTOR_DEF:
		return "<actor definition " + v.V.(*ActorDef).Name + ">"
	case ACTOR:
		return "<actor " + v.V.(*ActorRef).Def.Name + ">"
	case ERROR:
		return "Error(" + text.ToEscapedText(v.V.(*err.Error).Message) + ")"
	}
	return "UNDEFINED VALUE"
}

func describeElements(elements []Value) string {
	result := []string{}
	for _, e := range elements {
		result = append(result, e.Describe(ViewDebug))
	}
	return strings.Join(result, ", ")
}

// Floats with an integral value and magnitude under 10^10 render as 'N.0' so
// they don't display identically to integers.
func describeFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e10 && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
