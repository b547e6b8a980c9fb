package runtime

import (
	"fmt"
	"strconv"

	"rinha/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindFunction
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindUnit:
		return "unit"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

type IntValue struct {
	Val int64
}

func (v IntValue) Kind() Kind { return KindInt }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// FunctionValue wraps the function node itself. There is no captured
// environment: free names in the body resolve against the caller's live
// bindings at call time.
type FunctionValue struct {
	Declaration *ast.Function
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

// UnitValue is the absence of a result: a terminal let, a false
// conditional with no otherwise branch, a print.
type UnitValue struct{}

func (UnitValue) Kind() Kind { return KindUnit }

// Display renders a value the way print shows it: integers in decimal,
// booleans as true/false, strings verbatim.
func Display(v Value) string {
	switch val := v.(type) {
	case IntValue:
		return strconv.FormatInt(val.Val, 10)
	case BoolValue:
		return strconv.FormatBool(val.Val)
	case StringValue:
		return val.Val
	case *FunctionValue:
		return "<#closure>"
	case UnitValue:
		return "unit"
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}
