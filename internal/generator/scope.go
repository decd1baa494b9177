package generator

import (
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/types"
)

// localVar is a local_var_sym (spec.md §3): either a stack slot (regular
// declaration) or a bare compile-time value (a comptime declaration,
// which never gets an alloca).
type localVar struct {
	RealType   *types.RealType
	Storage    ir.Value // alloca pointer; nil for comptime vars
	IsComptime bool
	Const      *constVal // set when IsComptime
}

// loopRecord is the (check-or-step, exit) pair break/continue branch to,
// per spec.md §4.6.
type loopRecord struct {
	continueTarget *ir.Block
	breakTarget    *ir.Block
}

// scope is one lexical block: a set of local bindings plus a LIFO defer
// stack, per spec.md §9's "explicit stacks owned by the generator" note.
type scope struct {
	parent *scope
	vars   map[string]*localVar
	defers []deferredStmt
	loop   *loopRecord // nil unless this scope (or an ancestor) owns a loop
}

type deferredStmt struct {
	run func() // lowers one deferred statement/block into the current block
}

func newScope(parent *scope) *scope {
	s := &scope{parent: parent, vars: map[string]*localVar{}}
	if parent != nil {
		s.loop = parent.loop
	}
	return s
}

func (s *scope) declare(name string, v *localVar) { s.vars[name] = v }

func (s *scope) lookup(name string) (*localVar, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *scope) nearestLoop() *loopRecord {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.loop != nil {
			return cur.loop
		}
	}
	return nil
}
