package generator

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/lexer"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// evalLValue lowers e to a pointer to its storage, for `.ref`/`.mut` and
// for the left side of a plain or compound (non-discard) assignment.
// Only identifiers, field access, deref and index expressions are valid
// l-values, per spec.md §4.6.
func (g *Generator) evalLValue(mod *mapper.Module, e ast.Expr) (ir.Value, *types.RealType, *Error) {
	switch n := e.(type) {
	case *ast.Ident:
		lv, ok := g.sc.lookup(n.Name)
		if !ok || lv.IsComptime {
			return nil, nil, semErr(diag.CodeSemNotMutable, n.Pos(), "%q has no addressable storage", n.Name)
		}
		return lv.Storage, lv.RealType, nil
	case *ast.UnaryExpr:
		if n.Op == ast.UnaryDeref {
			v, t, _, err := g.evalExpr(mod, n.Operand, nil)
			if err != nil {
				return nil, nil, err
			}
			if t.Kind != types.KindPtr {
				return nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "cannot dereference non-pointer")
			}
			return v, t.Target, nil
		}
	case *ast.DotExpr:
		base, bt, err := g.evalLValue(mod, n.Left)
		if err != nil {
			return nil, nil, err
		}
		if bt.Kind != types.KindStruct {
			return nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "field access on non-struct")
		}
		idx, ft, ferr := fieldIndex(bt, n.Field, n.Pos())
		if ferr != nil {
			return nil, nil, ferr
		}
		b := ir.NewBuilder(g.cur.Entry)
		ptr := b.GEPInbounds(g.irType(bt), base, ir.ConstInt(ir.I32, 0), ir.ConstInt(ir.I32, int64(idx)))
		return ptr, ft, nil
	case *ast.IndexExpr:
		base, bt, err := g.evalLValue(mod, n.Left)
		if err != nil {
			return nil, nil, err
		}
		idxV, _, _, ierr := g.evalExpr(mod, n.Index, types.I64)
		if ierr != nil {
			return nil, nil, ierr
		}
		if bt.Kind != types.KindArray {
			return nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "index on non-array")
		}
		b := ir.NewBuilder(g.cur.Entry)
		ptr := b.GEPInbounds(g.irType(bt), base, ir.ConstInt(ir.I32, 0), idxV)
		return ptr, bt.Elem, nil
	}
	return nil, nil, semErr(diag.CodeSemTypeMismatch, e.Pos(), "expression is not an l-value")
}

func fieldIndex(t *types.RealType, name string, at lexer.Span) (int, *types.RealType, *Error) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, f.Type, nil
		}
	}
	return 0, nil, semErr(diag.CodeSemUndeclaredIdentifier, at, "no field %q", name)
}

func (g *Generator) evalDot(mod *mapper.Module, n *ast.DotExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	baseV, baseT, _, err := g.evalExpr(mod, n.Left, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if baseT.Kind != types.KindStruct {
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "field access on non-struct value")
	}
	idx := -1
	var ft *types.RealType
	for i, f := range baseT.Fields {
		if f.Name == n.Field {
			idx, ft = i, f.Type
			break
		}
	}
	if idx < 0 {
		return nil, nil, nil, semErr(diag.CodeSemUndeclaredIdentifier, n.Pos(), "no field %q", n.Field)
	}
	b := ir.NewBuilder(g.cur.Entry)
	return b.ExtractValue(baseV, uint64(idx)), ft, nil, nil
}

func (g *Generator) evalIndex(mod *mapper.Module, n *ast.IndexExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	ptr, t, err := g.evalLValue(mod, n)
	if err != nil {
		return nil, nil, nil, err
	}
	b := ir.NewBuilder(g.cur.Entry)
	return b.Load(g.irType(t), ptr), t, nil, nil
}

func (g *Generator) evalCast(mod *mapper.Module, n *ast.CastExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	to, terr := g.evalType(mod, n.Type)
	if terr != nil {
		return nil, nil, nil, terr
	}
	v, from, _, err := g.evalExpr(mod, n.Value, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	b := ir.NewBuilder(g.cur.Entry)
	if from.Kind == types.KindPtr && to.Kind == types.KindPtr {
		return b.Bitcast(v, g.irType(to)), to, nil, nil
	}
	if from.IsNumeric() && to.IsNumeric() {
		return g.convertNumeric(b, v, from, to), to, nil, nil
	}
	return nil, nil, nil, semErr(diag.CodeSemInvalidCast, n.Pos(), "cannot cast %s to %s", typeIdentity(from), typeIdentity(to))
}

func (g *Generator) convertNumeric(b *ir.Builder, v ir.Value, from, to *types.RealType) ir.Value {
	switch {
	case from.Kind == types.KindInt && to.Kind == types.KindInt:
		if to.Bits > from.Bits {
			if from.Signed {
				return b.SExt(v, g.irType(to))
			}
			return b.ZExt(v, g.irType(to))
		}
		if to.Bits < from.Bits {
			return b.Trunc(v, g.irType(to))
		}
		return v
	case from.Kind == types.KindInt && to.Kind == types.KindFloat:
		if from.Signed {
			return b.SIToFP(v, g.irType(to))
		}
		return b.UIToFP(v, g.irType(to))
	case from.Kind == types.KindFloat && to.Kind == types.KindInt:
		if to.Signed {
			return b.FPToSI(v, g.irType(to))
		}
		return b.FPToUI(v, g.irType(to))
	case from.Kind == types.KindFloat && to.Kind == types.KindFloat:
		if to.Bits > from.Bits {
			return b.FPExt(v, g.irType(to))
		}
		if to.Bits < from.Bits {
			return b.FPTrunc(v, g.irType(to))
		}
		return v
	default:
		return v
	}
}

func (g *Generator) evalStructInit(mod *mapper.Module, n *ast.StructInitExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	if ctx != nil && ctx.Kind == types.KindUnion {
		if len(n.Fields) != 1 {
			return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(), "union initialiser must set exactly one field")
		}
		f := n.Fields[0]
		return g.buildUnionInit(ctx, f.Name, f.Expr, mod, n)
	}
	t := ctx
	if t == nil || t.Kind != types.KindStruct {
		fields := make([]types.Field, len(n.Fields))
		vals := make([]ir.Value, len(n.Fields))
		for i, f := range n.Fields {
			v, ft, _, err := g.evalExpr(mod, f.Expr, nil)
			if err != nil {
				return nil, nil, nil, err
			}
			fields[i] = types.Field{Name: f.Name, Type: ft}
			vals[i] = v
		}
		t = types.Struct(fields)
		b := ir.NewBuilder(g.cur.Entry)
		agg := ir.Value(ir.ConstUndef(g.irType(t)))
		for i, v := range vals {
			agg = b.InsertValue(agg, v, uint64(i))
		}
		return agg, t, nil, nil
	}
	b := ir.NewBuilder(g.cur.Entry)
	agg := ir.Value(ir.ConstUndef(g.irType(t)))
	for _, f := range n.Fields {
		idx, ft, ferr := fieldIndex(t, f.Name, f.Span)
		if ferr != nil {
			return nil, nil, nil, ferr
		}
		v, _, _, err := g.evalExpr(mod, f.Expr, ft)
		if err != nil {
			return nil, nil, nil, err
		}
		agg = b.InsertValue(agg, v, uint64(idx))
	}
	return agg, t, nil, nil
}

func (g *Generator) buildUnionInit(ut *types.RealType, fieldName string, valExpr ast.Expr, mod *mapper.Module, at ast.Node) (ir.Value, *types.RealType, *constVal, *Error) {
	var ft *types.RealType
	for _, f := range ut.Fields {
		if f.Name == fieldName {
			ft = f.Type
		}
	}
	if ft == nil {
		return nil, nil, nil, semErr(diag.CodeSemUndeclaredIdentifier, at.Pos(), "no union member %q", fieldName)
	}
	storageT := unionStorageType(ut)
	var v ir.Value
	if valExpr != nil {
		val, _, _, err := g.evalExpr(mod, valExpr, ft)
		if err != nil {
			return nil, nil, nil, err
		}
		v = val
	} else {
		v = ir.ConstUndef(g.irType(ft))
	}
	if !types.Equal(ft, storageT) {
		// Narrower-than-storage tag: materialise through a stack slot and
		// bitcast-reload, since LLVM has no "union" aggregate of its own.
		b := ir.NewBuilder(g.cur.Entry)
		slot := b.Alloca(g.irType(storageT))
		typed := b.Bitcast(slot, ir.PointerTo(g.irType(ft)))
		b.Store(v, typed)
		return b.Load(g.irType(storageT), slot), ut, nil, nil
	}
	return v, ut, nil, nil
}

func (g *Generator) evalArrayInit(mod *mapper.Module, n *ast.ArrayInitExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	elemCtx := (*types.RealType)(nil)
	if ctx != nil && ctx.Kind == types.KindArray {
		elemCtx = ctx.Elem
	}
	vals := make([]ir.Value, len(n.Elems))
	var elemT *types.RealType
	for i, e := range n.Elems {
		v, t, _, err := g.evalExpr(mod, e, elemCtx)
		if err != nil {
			return nil, nil, nil, err
		}
		vals[i] = v
		if elemT == nil {
			elemT = t
		}
	}
	if elemT == nil {
		elemT = elemCtx
	}
	t := types.Array(int64(len(n.Elems)), elemT)
	b := ir.NewBuilder(g.cur.Entry)
	agg := ir.Value(ir.ConstUndef(g.irType(t)))
	for i, v := range vals {
		agg = b.InsertValue(agg, v, uint64(i))
	}
	return agg, t, nil, nil
}

// evalCall lowers a direct or indirect function call, pushing each
// argument's declared parameter type as evaluation context so untyped
// literal arguments coerce, per spec.md §4.5.
func (g *Generator) evalCall(mod *mapper.Module, n *ast.CallExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	calleeV, calleeT, _, err := g.evalExpr(mod, n.Callee, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if calleeT.Kind != types.KindFn {
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "callee is not a function")
	}
	if len(n.Args) != len(calleeT.Args) {
		return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(),
			"expected %d argument(s), got %d", len(calleeT.Args), len(n.Args))
	}
	argVals := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		v, _, _, aerr := g.evalExpr(mod, a, calleeT.Args[i])
		if aerr != nil {
			return nil, nil, nil, aerr
		}
		argVals[i] = v
	}
	b := ir.NewBuilder(g.cur.Entry)
	return b.Call(calleeV, argVals...), calleeT.Ret, nil, nil
}
