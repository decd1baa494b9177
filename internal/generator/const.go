package generator

import "github.com/zpp-lang/zppc/internal/types"

// constKind discriminates the handful of compile-time value shapes the
// Expression Evaluator folds eagerly, per spec.md §4.5's constant-folding
// note (numeric binary ops on two constants, and/or diamond elision).
type constKind uint8

const (
	constInt constKind = iota
	constFloat
	constBool
	constChar
	constNull
	constUndef
	constString
)

// constVal is a fully-evaluated compile-time value: it never carries an
// ir.Value, since emitting one is the whole point of deferring it.
type constVal struct {
	Kind constKind
	Type *types.RealType

	I    int64   // constInt
	F    float64 // constFloat
	B    bool    // constBool
	C    rune    // constChar
	S    string  // constString
}

func intConst(t *types.RealType, v int64) *constVal   { return &constVal{Kind: constInt, Type: t, I: v} }
func floatConst(t *types.RealType, v float64) *constVal {
	return &constVal{Kind: constFloat, Type: t, F: v}
}
func boolConst(v bool) *constVal   { return &constVal{Kind: constBool, Type: types.Int(1, false), B: v} }
func charConst(v rune) *constVal   { return &constVal{Kind: constChar, Type: types.U8, C: v} }
func stringConst(v string) *constVal { return &constVal{Kind: constString, S: v} }
