package ast

import "fmt"

type NodeType string

const (
	NodeInt      NodeType = "Int"
	NodeBool     NodeType = "Bool"
	NodeStr      NodeType = "Str"
	NodeVar      NodeType = "Var"
	NodeLet      NodeType = "Let"
	NodeBinary   NodeType = "Binary"
	NodeIf       NodeType = "If"
	NodeFunction NodeType = "Function"
	NodeCall     NodeType = "Call"
	NodePrint    NodeType = "Print"
)

// Operator tags carried by Binary nodes. OpNeg is the legacy spelling of
// OpNeq found in older documents; both mean inequality.
type Operator string

const (
	OpAdd Operator = "Add"
	OpSub Operator = "Sub"
	OpMul Operator = "Mul"
	OpDiv Operator = "Div"
	OpEq  Operator = "Eq"
	OpNeq Operator = "Neq"
	OpNeg Operator = "Neg"
	OpLt  Operator = "Lt"
	OpGt  Operator = "Gt"
	OpLte Operator = "Lte"
	OpGte Operator = "Gte"
	OpAnd Operator = "And"
	OpOr  Operator = "Or"
)

// Location is a span in the original source text, as recorded by whatever
// produced the document. Decoded when present; the zero value otherwise.
type Location struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Filename string `json:"filename"`
}

func (l Location) String() string {
	name := l.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d..%d", name, l.Start, l.End)
}

type Node interface {
	NodeType() NodeType
	Location() Location
	isNode()
}

type nodeImpl struct {
	Kind NodeType `json:"kind"`
	Loc  Location `json:"location"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Kind: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Kind }
func (n nodeImpl) Location() Location { return n.Loc }
func (nodeImpl) isNode()              {}

// SetLocation attaches a source span to a constructed node.
func (n *nodeImpl) SetLocation(loc Location) { n.Loc = loc }

// Parameter is a bindable name. It is not a node: it has no kind tag and
// never evaluates on its own.
type Parameter struct {
	Text string   `json:"text"`
	Loc  Location `json:"location"`
}

func NewParameter(text string) *Parameter {
	return &Parameter{Text: text}
}

// File is the top-level document: a named program with one root expression.
type File struct {
	Name       string   `json:"name"`
	Expression Node     `json:"expression"`
	Loc        Location `json:"location"`
}

func NewFile(name string, expression Node) *File {
	return &File{Name: name, Expression: expression}
}

// Literals

type IntLiteral struct {
	nodeImpl

	Value int64 `json:"value"`
}

func NewIntLiteral(value int64) *IntLiteral {
	return &IntLiteral{nodeImpl: newNodeImpl(NodeInt), Value: value}
}

type BoolLiteral struct {
	nodeImpl

	Value bool `json:"value"`
}

func NewBoolLiteral(value bool) *BoolLiteral {
	return &BoolLiteral{nodeImpl: newNodeImpl(NodeBool), Value: value}
}

type StrLiteral struct {
	nodeImpl

	Value string `json:"value"`
}

func NewStrLiteral(value string) *StrLiteral {
	return &StrLiteral{nodeImpl: newNodeImpl(NodeStr), Value: value}
}

// Var

type Var struct {
	nodeImpl

	Text string `json:"text"`
}

func NewVar(text string) *Var {
	return &Var{nodeImpl: newNodeImpl(NodeVar), Text: text}
}

// Let binds Name to the evaluated Value, then continues with Next.
// Next is optional: a terminal let yields no value.

type Let struct {
	nodeImpl

	Name  *Parameter `json:"name"`
	Value Node       `json:"value"`
	Next  Node       `json:"next,omitempty"`
}

func NewLet(name *Parameter, value, next Node) *Let {
	return &Let{nodeImpl: newNodeImpl(NodeLet), Name: name, Value: value, Next: next}
}

// Binary

type Binary struct {
	nodeImpl

	Op  Operator `json:"op"`
	LHS Node     `json:"lhs"`
	RHS Node     `json:"rhs"`
}

func NewBinary(op Operator, lhs, rhs Node) *Binary {
	return &Binary{nodeImpl: newNodeImpl(NodeBinary), Op: op, LHS: lhs, RHS: rhs}
}

// If. Otherwise is optional: with a false condition and no otherwise
// branch the conditional yields no value.

type If struct {
	nodeImpl

	Condition Node `json:"condition"`
	Then      Node `json:"then"`
	Otherwise Node `json:"otherwise,omitempty"`
}

func NewIf(condition, then, otherwise Node) *If {
	return &If{nodeImpl: newNodeImpl(NodeIf), Condition: condition, Then: then, Otherwise: otherwise}
}

// Function is a literal that evaluates to itself. It carries no captured
// environment: free names in the body resolve against whatever bindings
// are live when the function is eventually called.

type Function struct {
	nodeImpl

	Parameters []*Parameter `json:"parameters"`
	Body       Node         `json:"value"`
}

func NewFunction(parameters []*Parameter, body Node) *Function {
	return &Function{nodeImpl: newNodeImpl(NodeFunction), Parameters: parameters, Body: body}
}

// Call

type Call struct {
	nodeImpl

	Callee    Node   `json:"callee"`
	Arguments []Node `json:"arguments"`
}

func NewCall(callee Node, arguments []Node) *Call {
	return &Call{nodeImpl: newNodeImpl(NodeCall), Callee: callee, Arguments: arguments}
}

// Print

type Print struct {
	nodeImpl

	Value Node `json:"value"`
}

func NewPrint(value Node) *Print {
	return &Print{nodeImpl: newNodeImpl(NodePrint), Value: value}
}
