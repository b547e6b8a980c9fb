package interpreter

import (
	"strings"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/runtime"
)

// Apply computes one binary operation over two already-evaluated
// operands. Both sides always reach here: And and Or do not
// short-circuit, because Binary evaluates its children unconditionally
// before dispatching.
func Apply(op ast.Operator, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return applyArithmetic(op, left, right)
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		return applyOrdering(op, left, right)
	case ast.OpEq, ast.OpNeq, ast.OpNeg:
		eq := valuesEqual(left, right)
		if op != ast.OpEq {
			eq = !eq
		}
		return runtime.BoolValue{Val: eq}, nil
	case ast.OpAnd, ast.OpOr:
		lb, lok := left.(runtime.BoolValue)
		rb, rok := right.(runtime.BoolValue)
		if !lok || !rok {
			return nil, &TypeMismatchError{Op: op, Left: left.Kind(), Right: right.Kind()}
		}
		if op == ast.OpAnd {
			return runtime.BoolValue{Val: lb.Val && rb.Val}, nil
		}
		return runtime.BoolValue{Val: lb.Val || rb.Val}, nil
	default:
		return nil, &UnknownOperatorError{Op: op}
	}
}

func applyArithmetic(op ast.Operator, left, right runtime.Value) (runtime.Value, error) {
	switch lv := left.(type) {
	case runtime.IntValue:
		rv, ok := right.(runtime.IntValue)
		if !ok {
			break
		}
		switch op {
		case ast.OpAdd:
			return runtime.IntValue{Val: lv.Val + rv.Val}, nil
		case ast.OpSub:
			return runtime.IntValue{Val: lv.Val - rv.Val}, nil
		case ast.OpMul:
			return runtime.IntValue{Val: lv.Val * rv.Val}, nil
		case ast.OpDiv:
			if rv.Val == 0 {
				return nil, &DivisionByZeroError{}
			}
			return runtime.IntValue{Val: lv.Val / rv.Val}, nil
		}
	case runtime.StringValue:
		if op != ast.OpAdd {
			break
		}
		if rv, ok := right.(runtime.StringValue); ok {
			return runtime.StringValue{Val: lv.Val + rv.Val}, nil
		}
	}
	return nil, &TypeMismatchError{Op: op, Left: left.Kind(), Right: right.Kind()}
}

func applyOrdering(op ast.Operator, left, right runtime.Value) (runtime.Value, error) {
	switch lv := left.(type) {
	case runtime.IntValue:
		if rv, ok := right.(runtime.IntValue); ok {
			return orderingResult(op, compareInts(lv.Val, rv.Val)), nil
		}
	case runtime.StringValue:
		if rv, ok := right.(runtime.StringValue); ok {
			return orderingResult(op, strings.Compare(lv.Val, rv.Val)), nil
		}
	}
	return nil, &TypeMismatchError{Op: op, Left: left.Kind(), Right: right.Kind()}
}

func orderingResult(op ast.Operator, cmp int) runtime.Value {
	var result bool
	switch op {
	case ast.OpLt:
		result = cmp < 0
	case ast.OpGt:
		result = cmp > 0
	case ast.OpLte:
		result = cmp <= 0
	case ast.OpGte:
		result = cmp >= 0
	}
	return runtime.BoolValue{Val: result}
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// valuesEqual is structural over scalars. Functions compare by node
// identity; operands of different kinds are never equal.
func valuesEqual(left, right runtime.Value) bool {
	switch lv := left.(type) {
	case runtime.IntValue:
		if rv, ok := right.(runtime.IntValue); ok {
			return lv.Val == rv.Val
		}
	case runtime.BoolValue:
		if rv, ok := right.(runtime.BoolValue); ok {
			return lv.Val == rv.Val
		}
	case runtime.StringValue:
		if rv, ok := right.(runtime.StringValue); ok {
			return lv.Val == rv.Val
		}
	case *runtime.FunctionValue:
		if rv, ok := right.(*runtime.FunctionValue); ok {
			return lv.Declaration == rv.Declaration
		}
	case runtime.UnitValue:
		_, ok := right.(runtime.UnitValue)
		return ok
	}
	return false
}
