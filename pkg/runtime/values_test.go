package runtime

import (
	"testing"

	"rinha/interpreter-go/pkg/ast"
)

func TestDisplay(t *testing.T) {
	fn := &FunctionValue{Declaration: ast.Fn([]string{"x"}, ast.Ref("x"))}
	cases := []struct {
		name  string
		value Value
		want  string
	}{
		{"int", IntValue{Val: 42}, "42"},
		{"negative int", IntValue{Val: -7}, "-7"},
		{"bool true", BoolValue{Val: true}, "true"},
		{"bool false", BoolValue{Val: false}, "false"},
		{"string verbatim", StringValue{Val: "hello world"}, "hello world"},
		{"function", fn, "<#closure>"},
		{"unit", UnitValue{}, "unit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Display(tc.value); got != tc.want {
				t.Fatalf("Display(%#v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestKindNames(t *testing.T) {
	kinds := map[Kind]string{
		KindInt:      "int",
		KindBool:     "bool",
		KindString:   "string",
		KindFunction: "function",
		KindUnit:     "unit",
	}
	for kind, want := range kinds {
		if got := kind.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
