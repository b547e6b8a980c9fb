package ast

// Terse node builders for constructing trees in tests.

func Int(value int64) *IntLiteral  { return NewIntLiteral(value) }
func Bool(value bool) *BoolLiteral { return NewBoolLiteral(value) }
func Str(value string) *StrLiteral { return NewStrLiteral(value) }
func Ref(name string) *Var         { return NewVar(name) }

func Bind(name string, value, next Node) *Let {
	return NewLet(NewParameter(name), value, next)
}

func Bin(op Operator, lhs, rhs Node) *Binary {
	return NewBinary(op, lhs, rhs)
}

func Cond(condition, then, otherwise Node) *If {
	return NewIf(condition, then, otherwise)
}

func Fn(params []string, body Node) *Function {
	list := make([]*Parameter, 0, len(params))
	for _, p := range params {
		list = append(list, NewParameter(p))
	}
	return NewFunction(list, body)
}

func CallExpr(callee Node, arguments ...Node) *Call {
	return NewCall(callee, arguments)
}

func PrintExpr(value Node) *Print {
	return NewPrint(value)
}
