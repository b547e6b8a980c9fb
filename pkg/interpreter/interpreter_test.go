package interpreter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/runtime"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewInterpreter(WithOutput(&out)), &out
}

func evaluate(t *testing.T, interp *Interpreter, node ast.Node) runtime.Value {
	t.Helper()
	val, err := interp.Evaluate(node)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	return val
}

func TestEvaluateLiterals(t *testing.T) {
	interp, _ := newTestInterpreter(t)

	if iv := evaluate(t, interp, ast.Int(42)).(runtime.IntValue); iv.Val != 42 {
		t.Fatalf("unexpected int %#v", iv)
	}
	if bv := evaluate(t, interp, ast.Bool(true)).(runtime.BoolValue); !bv.Val {
		t.Fatalf("unexpected bool %#v", bv)
	}
	if sv := evaluate(t, interp, ast.Str("hello")).(runtime.StringValue); sv.Val != "hello" {
		t.Fatalf("unexpected string %#v", sv)
	}
}

func TestLetBindingVisibleInNext(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	val := evaluate(t, interp, ast.Bind("x", ast.Int(5), ast.Ref("x")))
	if iv := val.(runtime.IntValue); iv.Val != 5 {
		t.Fatalf("expected 5, got %#v", val)
	}
}

func TestTerminalLetYieldsUnit(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	val := evaluate(t, interp, ast.Bind("x", ast.Int(5), nil))
	if _, ok := val.(runtime.UnitValue); !ok {
		t.Fatalf("expected unit, got %#v", val)
	}
}

func TestBinaryAddition(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	val := evaluate(t, interp, ast.Bin(ast.OpAdd, ast.Int(2), ast.Int(3)))
	if iv := val.(runtime.IntValue); iv.Val != 5 {
		t.Fatalf("expected 5, got %#v", val)
	}
}

func TestDivisionByZero(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	_, err := interp.Evaluate(ast.Bin(ast.OpDiv, ast.Int(4), ast.Int(0)))
	if err == nil {
		t.Fatalf("expected division to fail")
	}
	var divZero *DivisionByZeroError
	if !errors.As(err, &divZero) {
		t.Fatalf("expected DivisionByZeroError, got %T: %v", err, err)
	}
}

func TestVarUnbound(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	_, err := interp.Evaluate(ast.Ref("ghost"))
	if err == nil {
		t.Fatalf("expected lookup to fail")
	}
	var unbound *runtime.UnboundNameError
	if !errors.As(err, &unbound) || unbound.Name != "ghost" {
		t.Fatalf("expected UnboundNameError for 'ghost', got %v", err)
	}
}

func TestIfEvaluatesTakenBranchOnly(t *testing.T) {
	interp, out := newTestInterpreter(t)
	val := evaluate(t, interp, ast.Cond(
		ast.Bool(true),
		ast.Bind("_", ast.PrintExpr(ast.Str("then")), ast.Int(1)),
		ast.Bind("_", ast.PrintExpr(ast.Str("otherwise")), ast.Int(2)),
	))
	if iv := val.(runtime.IntValue); iv.Val != 1 {
		t.Fatalf("expected then result, got %#v", val)
	}
	if got := out.String(); got != "then\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestIfFalseWithoutOtherwiseYieldsUnit(t *testing.T) {
	interp, out := newTestInterpreter(t)
	val := evaluate(t, interp, ast.Cond(ast.Bool(false), ast.PrintExpr(ast.Str("then")), nil))
	if _, ok := val.(runtime.UnitValue); !ok {
		t.Fatalf("expected unit, got %#v", val)
	}
	if out.Len() != 0 {
		t.Fatalf("then branch ran: %q", out.String())
	}
}

func TestIfConditionMustBeBool(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	_, err := interp.Evaluate(ast.Cond(ast.Int(1), ast.Int(2), ast.Int(3)))
	if err == nil {
		t.Fatalf("expected condition check to fail")
	}
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "if condition") {
		t.Fatalf("error %q does not mention the condition", err)
	}
}

func TestFunctionEvaluatesToItself(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	fn := ast.Fn([]string{"x"}, ast.Ref("x"))
	val := evaluate(t, interp, fn)
	fv, ok := val.(*runtime.FunctionValue)
	if !ok || fv.Declaration != fn {
		t.Fatalf("expected the function node itself, got %#v", val)
	}
}

func TestPrintWritesAndYieldsUnit(t *testing.T) {
	interp, out := newTestInterpreter(t)
	val := evaluate(t, interp, ast.PrintExpr(ast.Str("hello")))
	if _, ok := val.(runtime.UnitValue); !ok {
		t.Fatalf("expected unit, got %#v", val)
	}
	if got := out.String(); got != "hello\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestPrintOrder(t *testing.T) {
	interp, out := newTestInterpreter(t)
	evaluate(t, interp, ast.Bind(
		"_", ast.PrintExpr(ast.Str("first")),
		ast.PrintExpr(ast.Str("second")),
	))
	if got := out.String(); got != "first\nsecond\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestFactorialRecursion(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	factorial := ast.Fn([]string{"n"},
		ast.Cond(
			ast.Bin(ast.OpEq, ast.Ref("n"), ast.Int(0)),
			ast.Int(1),
			ast.Bin(ast.OpMul,
				ast.Ref("n"),
				ast.CallExpr(ast.Ref("factorial"), ast.Bin(ast.OpSub, ast.Ref("n"), ast.Int(1))),
			),
		),
	)
	val := evaluate(t, interp, ast.Bind("factorial", factorial,
		ast.CallExpr(ast.Ref("factorial"), ast.Int(5))))
	if iv := val.(runtime.IntValue); iv.Val != 120 {
		t.Fatalf("expected 120, got %#v", val)
	}
}

func TestCallRestoresShadowedBinding(t *testing.T) {
	// The callee lets x internally; the caller's x must come back after
	// the call even though both share one flat mapping.
	interp, _ := newTestInterpreter(t)
	shadow := ast.Fn(nil, ast.Bind("x", ast.Int(99), ast.Ref("x")))
	val := evaluate(t, interp, ast.Bind("x", ast.Int(1),
		ast.Bind("shadow", shadow,
			ast.Bind("result", ast.CallExpr(ast.Ref("shadow")),
				ast.Bin(ast.OpAdd,
					ast.Bin(ast.OpMul, ast.Ref("result"), ast.Int(1000)),
					ast.Ref("x"))))))
	if iv := val.(runtime.IntValue); iv.Val != 99001 {
		t.Fatalf("expected call result 99 and restored x 1, got %#v", val)
	}
}

func TestCallSeesCallerBindings(t *testing.T) {
	// Free names resolve against the caller's live environment, even for
	// bindings created after the function value was.
	interp, _ := newTestInterpreter(t)
	val := evaluate(t, interp, ast.Bind(
		"f", ast.Fn(nil, ast.Ref("y")),
		ast.Bind("y", ast.Int(7), ast.CallExpr(ast.Ref("f"))),
	))
	if iv := val.(runtime.IntValue); iv.Val != 7 {
		t.Fatalf("expected 7, got %#v", val)
	}
}

func TestCallNotCallable(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	_, err := interp.Evaluate(ast.CallExpr(ast.Int(1)))
	if err == nil {
		t.Fatalf("expected call to fail")
	}
	var notCallable *NotCallableError
	if !errors.As(err, &notCallable) || notCallable.Kind != runtime.KindInt {
		t.Fatalf("expected NotCallableError for int, got %v", err)
	}
}

func TestExtraArgumentsAreNeverEvaluated(t *testing.T) {
	interp, out := newTestInterpreter(t)
	identity := ast.Fn([]string{"a"}, ast.Ref("a"))
	val := evaluate(t, interp, ast.Bind("id", identity,
		ast.CallExpr(ast.Ref("id"), ast.Int(1), ast.PrintExpr(ast.Str("side effect")))))
	if iv := val.(runtime.IntValue); iv.Val != 1 {
		t.Fatalf("expected 1, got %#v", val)
	}
	if out.Len() != 0 {
		t.Fatalf("extra argument evaluated: %q", out.String())
	}
}

func TestMissingArgumentLeavesParameterUnbound(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	second := ast.Fn([]string{"a", "b"}, ast.Ref("b"))
	_, err := interp.Evaluate(ast.Bind("second", second,
		ast.CallExpr(ast.Ref("second"), ast.Int(1))))
	if err == nil {
		t.Fatalf("expected unbound parameter")
	}
	var unbound *runtime.UnboundNameError
	if !errors.As(err, &unbound) || unbound.Name != "b" {
		t.Fatalf("expected UnboundNameError for 'b', got %v", err)
	}
}

func TestMissingArgumentFallsBackToCallerBinding(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	second := ast.Fn([]string{"a", "b"}, ast.Ref("b"))
	val := evaluate(t, interp, ast.Bind("second", second,
		ast.Bind("b", ast.Int(9),
			ast.CallExpr(ast.Ref("second"), ast.Int(1)))))
	if iv := val.(runtime.IntValue); iv.Val != 9 {
		t.Fatalf("expected the caller's binding, got %#v", val)
	}
}

func TestArgumentSeesEarlierParameters(t *testing.T) {
	// Arguments evaluate in order against the live environment, so a later
	// argument observes the parameter bindings made before it.
	interp, _ := newTestInterpreter(t)
	second := ast.Fn([]string{"a", "b"}, ast.Ref("b"))
	val := evaluate(t, interp, ast.Bind("second", second,
		ast.CallExpr(ast.Ref("second"), ast.Int(5), ast.Ref("a"))))
	if iv := val.(runtime.IntValue); iv.Val != 5 {
		t.Fatalf("expected 5, got %#v", val)
	}
}

func TestStrictArity(t *testing.T) {
	var out bytes.Buffer
	interp := NewInterpreter(WithOutput(&out), WithStrictArity())
	identity := ast.Fn([]string{"a"}, ast.Ref("a"))
	_, err := interp.Evaluate(ast.Bind("id", identity,
		ast.CallExpr(ast.Ref("id"), ast.Int(1), ast.PrintExpr(ast.Str("side effect")))))
	if err == nil {
		t.Fatalf("expected arity check to fail")
	}
	var arity *ArityMismatchError
	if !errors.As(err, &arity) {
		t.Fatalf("expected ArityMismatchError, got %T: %v", err, err)
	}
	if arity.Want != 1 || arity.Got != 2 {
		t.Fatalf("unexpected counts %+v", arity)
	}
	if out.Len() != 0 {
		t.Fatalf("arguments evaluated before arity check: %q", out.String())
	}
}

func TestCallRestoresEnvironmentOnError(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	failing := ast.Fn(nil, ast.Bind("x", ast.Int(99), ast.Ref("ghost")))
	_, err := interp.Evaluate(ast.Bind("x", ast.Int(1),
		ast.Bind("fail", failing,
			ast.CallExpr(ast.Ref("fail")))))
	if err == nil {
		t.Fatalf("expected call to fail")
	}
	val, getErr := interp.Environment().Get("x")
	if getErr != nil {
		t.Fatalf("lookup failed: %v", getErr)
	}
	if iv := val.(runtime.IntValue); iv.Val != 1 {
		t.Fatalf("callee mutation leaked through failed call: %#v", val)
	}
}

func TestErrorsCarrySourceSpans(t *testing.T) {
	ref := ast.Ref("ghost")
	ref.SetLocation(ast.Location{Start: 10, End: 15, Filename: "prog.rinha"})
	interp, _ := newTestInterpreter(t)
	_, err := interp.Evaluate(ref)
	if err == nil {
		t.Fatalf("expected lookup to fail")
	}
	if !strings.Contains(err.Error(), "prog.rinha:10..15") {
		t.Fatalf("error %q does not carry the span", err)
	}
	var unbound *runtime.UnboundNameError
	if !errors.As(err, &unbound) {
		t.Fatalf("span annotation broke error matching: %v", err)
	}
}

func TestProgramRunDiscardsResult(t *testing.T) {
	interp, out := newTestInterpreter(t)
	file := ast.NewFile("order.rinha", ast.Bind(
		"_", ast.PrintExpr(ast.Int(1)),
		ast.PrintExpr(ast.Int(2)),
	))
	prog := NewProgram(file)
	if prog.Name != "order.rinha" {
		t.Fatalf("unexpected program name %q", prog.Name)
	}
	if err := prog.Run(interp); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := out.String(); got != "1\n2\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
