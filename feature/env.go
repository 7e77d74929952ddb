package feature

import "strings"

// maxResolveSteps bounds variable dereferencing so that binding cycles
// cannot loop forever.
const maxResolveSteps = 32

// IsVariable reports whether a feature value is a variable reference.
func IsVariable(value string) bool {
	return strings.HasPrefix(value, "?")
}

// Env maps variables to the values they are bound to. A value may itself
// be a variable. Branches of the search clone the environment before
// binding, so a failed branch never leaks bindings into its siblings.
type Env map[string]string

// Clone returns an independent copy of e.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Resolve follows variable bindings starting at value until it reaches an
// unbound variable, an atom, or the step limit.
func (e Env) Resolve(value string) string {
	current := value
	for steps := 0; steps < maxResolveSteps && IsVariable(current); steps++ {
		next, ok := e[current]
		if !ok || next == current {
			break
		}
		current = next
	}
	return current
}

// Bind binds variable to value.
func (e Env) Bind(variable, value string) {
	e[variable] = value
}

// Unify makes left and right equal under e, binding variables as needed.
// Two variables are unified by binding the right one to the left one. Two
// atoms unify only when they are equal.
func (e Env) Unify(left, right string) bool {
	l := e.Resolve(left)
	r := e.Resolve(right)
	switch {
	case IsVariable(l) && IsVariable(r):
		if l != r {
			e.Bind(r, l)
		}
		return true
	case IsVariable(l):
		e.Bind(l, r)
		return true
	case IsVariable(r):
		e.Bind(r, l)
		return true
	}
	return l == r
}
