package ast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// DecodeFile interprets a serialized program document: a top-level object
// with a name and a root expression, recursively containing kind-tagged
// nodes.
func DecodeFile(data []byte) (*File, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	name, _ := doc["name"].(string)
	exprRaw, ok := doc["expression"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document missing expression")
	}
	expr, err := DecodeNode(exprRaw)
	if err != nil {
		return nil, err
	}
	file := NewFile(name, expr)
	if loc, ok := doc["location"].(map[string]any); ok {
		file.Loc = decodeLocation(loc)
	}
	return file, nil
}

// LoadFile reads and decodes a program document from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	file, err := DecodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// DecodeNode interprets one kind-tagged node object.
func DecodeNode(node map[string]any) (Node, error) {
	decoded, err := decodeNode(node)
	if err != nil {
		return nil, err
	}
	if loc, ok := node["location"].(map[string]any); ok {
		decoded.(interface{ SetLocation(Location) }).SetLocation(decodeLocation(loc))
	}
	return decoded, nil
}

func decodeNode(node map[string]any) (Node, error) {
	kind, _ := node["kind"].(string)
	switch NodeType(kind) {
	case NodeInt:
		val, err := intValue(node["value"])
		if err != nil {
			return nil, fmt.Errorf("Int: %w", err)
		}
		return NewIntLiteral(val), nil
	case NodeBool:
		val, ok := node["value"].(bool)
		if !ok {
			return nil, fmt.Errorf("Bool value %T is not a boolean", node["value"])
		}
		return NewBoolLiteral(val), nil
	case NodeStr:
		val, ok := node["value"].(string)
		if !ok {
			return nil, fmt.Errorf("Str value %T is not a string", node["value"])
		}
		return NewStrLiteral(val), nil
	case NodeVar:
		text, ok := node["text"].(string)
		if !ok || text == "" {
			return nil, fmt.Errorf("Var missing text")
		}
		return NewVar(text), nil
	case NodeLet:
		name, err := decodeParameter(node["name"])
		if err != nil {
			return nil, fmt.Errorf("Let name: %w", err)
		}
		value, err := decodeChild(node, "Let", "value")
		if err != nil {
			return nil, err
		}
		next, err := decodeOptionalChild(node, "next")
		if err != nil {
			return nil, err
		}
		return NewLet(name, value, next), nil
	case NodeBinary:
		op, ok := node["op"].(string)
		if !ok || op == "" {
			return nil, fmt.Errorf("Binary missing op")
		}
		lhs, err := decodeChild(node, "Binary", "lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := decodeChild(node, "Binary", "rhs")
		if err != nil {
			return nil, err
		}
		return NewBinary(Operator(op), lhs, rhs), nil
	case NodeIf:
		condition, err := decodeChild(node, "If", "condition")
		if err != nil {
			return nil, err
		}
		then, err := decodeChild(node, "If", "then")
		if err != nil {
			return nil, err
		}
		otherwise, err := decodeOptionalChild(node, "otherwise")
		if err != nil {
			return nil, err
		}
		return NewIf(condition, then, otherwise), nil
	case NodeFunction:
		paramsRaw, _ := node["parameters"].([]any)
		params := make([]*Parameter, 0, len(paramsRaw))
		for _, raw := range paramsRaw {
			param, err := decodeParameter(raw)
			if err != nil {
				return nil, fmt.Errorf("Function parameter: %w", err)
			}
			params = append(params, param)
		}
		body, err := decodeChild(node, "Function", "value")
		if err != nil {
			return nil, err
		}
		return NewFunction(params, body), nil
	case NodeCall:
		callee, err := decodeChild(node, "Call", "callee")
		if err != nil {
			return nil, err
		}
		argsRaw, _ := node["arguments"].([]any)
		args := make([]Node, 0, len(argsRaw))
		for _, raw := range argsRaw {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("Call argument %T is not a node", raw)
			}
			arg, err := DecodeNode(child)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return NewCall(callee, args), nil
	case NodePrint:
		value, err := decodeChild(node, "Print", "value")
		if err != nil {
			return nil, err
		}
		return NewPrint(value), nil
	default:
		if kind == "" {
			return nil, fmt.Errorf("node missing kind")
		}
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}

func decodeChild(node map[string]any, kind, field string) (Node, error) {
	raw, ok := node[field].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s missing %s", kind, field)
	}
	return DecodeNode(raw)
}

func decodeOptionalChild(node map[string]any, field string) (Node, error) {
	raw, present := node[field]
	if !present || raw == nil {
		return nil, nil
	}
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s %T is not a node", field, raw)
	}
	return DecodeNode(child)
}

func decodeParameter(raw any) (*Parameter, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%T is not a parameter object", raw)
	}
	text, ok := obj["text"].(string)
	if !ok || text == "" {
		return nil, fmt.Errorf("parameter missing text")
	}
	param := NewParameter(text)
	if loc, ok := obj["location"].(map[string]any); ok {
		param.Loc = decodeLocation(loc)
	}
	return param, nil
}

func decodeLocation(obj map[string]any) Location {
	loc := Location{}
	if start, ok := obj["start"].(float64); ok {
		loc.Start = int(start)
	}
	if end, ok := obj["end"].(float64); ok {
		loc.End = int(end)
	}
	if filename, ok := obj["filename"].(string); ok {
		loc.Filename = filename
	}
	return loc
}

func intValue(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("value %s is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("value %T is not an integer", raw)
	}
}
