package analyzer

import "github.com/viant/semcheck/semtype"

// Scope is a single lexical scope's bindings from qualified variable name to
// semantic type.
type Scope map[string]semtype.SemType

// Env is the scope stack of the function currently being walked: the bottom
// scope belongs to the function body, the top to the innermost control-flow
// region.
type Env struct {
	scopes []Scope
}

func NewEnv() *Env {
	return &Env{}
}

// Push opens a scope on region entry.
func (e *Env) Push() {
	e.scopes = append(e.scopes, Scope{})
}

// Pop discards the innermost scope on region exit.
func (e *Env) Pop() {
	if len(e.scopes) == 0 {
		return
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// Depth reports how many scopes are open.
func (e *Env) Depth() int {
	return len(e.scopes)
}

// Bind writes into the top scope only.
func (e *Env) Bind(name string, ti semtype.SemType) {
	if len(e.scopes) == 0 {
		return
	}
	e.scopes[len(e.scopes)-1][name] = ti
}

// Lookup scans the stack top-down and returns the first binding for name.
func (e *Env) Lookup(name string) (semtype.SemType, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if ti, ok := e.scopes[i][name]; ok {
			return ti, true
		}
	}
	return semtype.SemType{}, false
}

// Unify merges the top scope into the one below it, modelling the join after
// a control-flow region: for every name bound in both, the outer binding
// becomes the merge of the two. Names that exist only in the inner scope do
// not escape. The top scope is left in place; callers pop it when the region
// actually ends (a break unifies without popping).
func (e *Env) Unify() {
	if len(e.scopes) < 2 {
		return
	}
	outer := e.scopes[len(e.scopes)-2]
	inner := e.scopes[len(e.scopes)-1]
	for name, innerType := range inner {
		if outerType, ok := outer[name]; ok {
			outerType.Merge(innerType)
			outer[name] = outerType
		}
	}
}
