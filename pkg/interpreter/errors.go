package interpreter

import (
	"fmt"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/runtime"
)

// NotCallableError reports a call whose callee evaluated to something
// other than a function.
type NotCallableError struct {
	Kind runtime.Kind
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("calling non-function value of kind %s", e.Kind)
}

// UnknownOperatorError reports a Binary node carrying an operator tag the
// operator table does not know.
type UnknownOperatorError struct {
	Op ast.Operator
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q", string(e.Op))
}

// TypeMismatchError reports operands whose kinds do not support the
// requested operation. What is set instead of Op for non-operator
// contexts, currently only conditional guards.
type TypeMismatchError struct {
	Op    ast.Operator
	Left  runtime.Kind
	Right runtime.Kind
	What  string
}

func (e *TypeMismatchError) Error() string {
	if e.What != "" {
		return fmt.Sprintf("%s must be a bool, got %s", e.What, e.Left)
	}
	return fmt.Sprintf("operator %s not supported between %s and %s", e.Op, e.Left, e.Right)
}

// DivisionByZeroError reports a Div whose divisor evaluated to zero.
type DivisionByZeroError struct{}

func (e *DivisionByZeroError) Error() string {
	return "division by zero"
}

// ArityMismatchError reports a call whose argument count differs from the
// callee's parameter count. Raised only under strict arity checking; the
// default mode pairs arguments with parameters up to the shorter sequence.
type ArityMismatchError struct {
	Want int
	Got  int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("function expects %d arguments, got %d", e.Want, e.Got)
}

// locate prefixes an error with the offending node's source span. Errors
// pass through untouched when the document carried no locations.
func locate(err error, loc ast.Location) error {
	if err == nil || loc == (ast.Location{}) {
		return err
	}
	return fmt.Errorf("%s: %w", loc, err)
}
