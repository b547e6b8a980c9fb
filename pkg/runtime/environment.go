package runtime

import (
	"fmt"
	"sort"
)

// UnboundNameError reports a lookup for a name with no live binding.
type UnboundNameError struct {
	Name string
}

func (e *UnboundNameError) Error() string {
	return fmt.Sprintf("undefined variable '%s'", e.Name)
}

// Environment is the single flat mapping from name to value. There are no
// nested scopes and no per-closure capture: a Set inside a function body
// mutates the same mapping the caller sees, except across the explicit
// Snapshot/Restore a call performs around the body.
type Environment struct {
	values map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

// Get retrieves a binding.
func (e *Environment) Get(name string) (Value, error) {
	if v, ok := e.values[name]; ok {
		return v, nil
	}
	return nil, &UnboundNameError{Name: name}
}

// Set inserts or overwrites a binding, unconditionally.
func (e *Environment) Set(name string, value Value) {
	e.values[name] = value
}

// Snapshot returns a copy of the current bindings. Values are immutable,
// so copying the map is enough to isolate the snapshot from later Sets.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Restore reinstates a snapshot wholesale: bindings added since the
// snapshot are discarded and bindings overwritten since reappear. The
// snapshot itself stays usable afterwards.
func (e *Environment) Restore(snapshot map[string]Value) {
	values := make(map[string]Value, len(snapshot))
	for k, v := range snapshot {
		values[k] = v
	}
	e.values = values
}

// Len reports the number of live bindings.
func (e *Environment) Len() int {
	return len(e.values)
}

// Keys returns the bound names in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
