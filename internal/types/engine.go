package types

// Key identifies one evaluation of a named type: the declaring symbol's
// identity plus, for a generic instantiation, a stable string joining the
// concrete argument types' identities. Two evaluations with the same Key
// must reuse the same in-progress placeholder so references made while
// the body is still being evaluated see the cycle close correctly.
type Key struct {
	Sym      any
	Generics string
}

// Engine owns the process-wide in-progress/placeholder table described in
// spec.md §4.4. It has no knowledge of the AST or the symbol table: the
// generator drives it by calling EvalNamed with a thunk that performs the
// actual type-expression evaluation, recursing back into EvalNamed for
// nested named-type references.
type Engine struct {
	inProgress map[Key]*RealType
	done       map[Key]*RealType
}

func NewEngine() *Engine {
	return &Engine{inProgress: map[Key]*RealType{}, done: map[Key]*RealType{}}
}

// EvalNamed implements spec.md §4.4's three-step recipe:
//  1. a cache hit returns the already-finished type;
//  2. a key already in progress returns its placeholder, to be patched by
//     the outer call once evalBody returns;
//  3. otherwise install a fresh placeholder, run evalBody, then copy the
//     result's fields into the placeholder in place so any reference
//     captured during evaluation observes the finished type.
func (e *Engine) EvalNamed(key Key, evalBody func() *RealType) *RealType {
	if rt, ok := e.done[key]; ok {
		return rt
	}
	if ph, ok := e.inProgress[key]; ok {
		return ph
	}
	placeholder := &RealType{Kind: KindPlaceholder}
	e.inProgress[key] = placeholder
	final := evalBody()
	delete(e.inProgress, key)
	*placeholder = *final
	e.done[key] = placeholder
	return placeholder
}

// Reset discards all cached and in-progress evaluations. Unused by the
// single-run CLI driver but kept for tests that want a fresh engine per
// case without reconstructing one by hand.
func (e *Engine) Reset() {
	e.inProgress = map[Key]*RealType{}
	e.done = map[Key]*RealType{}
}
