package interpreter

import (
	"fmt"
	"io"
	"os"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/runtime"
)

// Interpreter drives evaluation against a single shared environment.
// Evaluation is strictly depth-first and single-threaded; the environment
// is the only state that survives between top-level Evaluate calls.
type Interpreter struct {
	env         *runtime.Environment
	out         io.Writer
	strictArity bool
}

type Option func(*Interpreter)

// WithOutput directs print output somewhere other than stdout.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithStrictArity makes calls fail when argument and parameter counts
// differ, instead of pairing them up to the shorter sequence.
func WithStrictArity() Option {
	return func(i *Interpreter) { i.strictArity = true }
}

func NewInterpreter(opts ...Option) *Interpreter {
	interp := &Interpreter{
		env: runtime.NewEnvironment(),
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(interp)
	}
	return interp
}

// Environment exposes the live bindings, mainly for the repl and tests.
func (i *Interpreter) Environment() *runtime.Environment {
	return i.env
}

// Evaluate walks one node and produces its value. Every error is fatal to
// the walk: there is no recovery construct in the language.
func (i *Interpreter) Evaluate(node ast.Node) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.IntLiteral:
		return runtime.IntValue{Val: n.Value}, nil
	case *ast.BoolLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.StrLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.Var:
		val, err := i.env.Get(n.Text)
		if err != nil {
			return nil, locate(err, n.Location())
		}
		return val, nil
	case *ast.Let:
		return i.evaluateLet(n)
	case *ast.Binary:
		return i.evaluateBinary(n)
	case *ast.If:
		return i.evaluateIf(n)
	case *ast.Function:
		return &runtime.FunctionValue{Declaration: n}, nil
	case *ast.Call:
		return i.evaluateCall(n)
	case *ast.Print:
		return i.evaluatePrint(n)
	case nil:
		return nil, fmt.Errorf("cannot evaluate nil node")
	default:
		return nil, fmt.Errorf("unsupported node kind %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateLet(let *ast.Let) (runtime.Value, error) {
	if let.Name == nil {
		return nil, fmt.Errorf("let missing name")
	}
	value, err := i.Evaluate(let.Value)
	if err != nil {
		return nil, err
	}
	i.env.Set(let.Name.Text, value)
	if let.Next == nil {
		return runtime.UnitValue{}, nil
	}
	return i.Evaluate(let.Next)
}

func (i *Interpreter) evaluateBinary(expr *ast.Binary) (runtime.Value, error) {
	left, err := i.Evaluate(expr.LHS)
	if err != nil {
		return nil, err
	}
	right, err := i.Evaluate(expr.RHS)
	if err != nil {
		return nil, err
	}
	result, err := Apply(expr.Op, left, right)
	if err != nil {
		return nil, locate(err, expr.Location())
	}
	return result, nil
}

func (i *Interpreter) evaluateIf(expr *ast.If) (runtime.Value, error) {
	cond, err := i.Evaluate(expr.Condition)
	if err != nil {
		return nil, err
	}
	flag, ok := cond.(runtime.BoolValue)
	if !ok {
		return nil, locate(&TypeMismatchError{What: "if condition", Left: cond.Kind()}, expr.Location())
	}
	if flag.Val {
		return i.Evaluate(expr.Then)
	}
	if expr.Otherwise == nil {
		return runtime.UnitValue{}, nil
	}
	return i.Evaluate(expr.Otherwise)
}

func (i *Interpreter) evaluatePrint(print *ast.Print) (runtime.Value, error) {
	value, err := i.Evaluate(print.Value)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintln(i.out, runtime.Display(value)); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return runtime.UnitValue{}, nil
}

// evaluateCall is where the scoping discipline lives. The callee runs
// against the caller's live environment, isolated only by the snapshot
// taken here: parameters are bound into the shared mapping, the body
// executes, and the snapshot is reinstated whether the body succeeded or
// not. Free names in the body therefore resolve against the caller's
// bindings, and nothing the body binds survives the return.
func (i *Interpreter) evaluateCall(call *ast.Call) (runtime.Value, error) {
	callee, err := i.Evaluate(call.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*runtime.FunctionValue)
	if !ok {
		return nil, locate(&NotCallableError{Kind: callee.Kind()}, call.Location())
	}
	params := fn.Declaration.Parameters
	if i.strictArity && len(call.Arguments) != len(params) {
		return nil, locate(&ArityMismatchError{Want: len(params), Got: len(call.Arguments)}, call.Location())
	}

	snapshot := i.env.Snapshot()
	defer i.env.Restore(snapshot)

	pairs := len(call.Arguments)
	if len(params) < pairs {
		pairs = len(params)
	}
	for idx := 0; idx < pairs; idx++ {
		arg, err := i.Evaluate(call.Arguments[idx])
		if err != nil {
			return nil, err
		}
		i.env.Set(params[idx].Text, arg)
	}
	return i.Evaluate(fn.Declaration.Body)
}
