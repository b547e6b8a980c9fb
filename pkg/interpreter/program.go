package interpreter

import (
	"rinha/interpreter-go/pkg/ast"
)

// Program pairs an informational name with the root node to evaluate.
type Program struct {
	Name string
	Root ast.Node
}

func NewProgram(file *ast.File) *Program {
	return &Program{Name: file.Name, Root: file.Expression}
}

// Run evaluates the root and discards its value. A program's observable
// effect is whatever its print nodes wrote to the interpreter's output.
func (p *Program) Run(interp *Interpreter) error {
	_, err := interp.Evaluate(p.Root)
	return err
}
