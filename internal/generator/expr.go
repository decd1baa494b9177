package generator

import (
	"strconv"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// irType lowers a real type to the backend's type representation, per
// spec.md §4.4's real-type-to-ir-type mapping.
func (g *Generator) irType(t *types.RealType) ir.Type {
	switch t.Kind {
	case types.KindInt:
		switch t.Bits {
		case 1:
			return ir.I1
		case 8:
			return ir.I8
		case 16:
			return ir.I16
		case 32:
			return ir.I32
		default:
			return ir.I64
		}
	case types.KindFloat:
		if t.Bits == 32 {
			return ir.F32
		}
		return ir.F64
	case types.KindVoid:
		return ir.Void
	case types.KindPtr:
		return ir.PointerTo(g.irType(t.Target))
	case types.KindArray:
		return ir.ArrayOf(t.Length, g.irType(t.Elem))
	case types.KindStruct:
		fs := make([]ir.Type, len(t.Fields))
		for i, f := range t.Fields {
			fs[i] = g.irType(f.Type)
		}
		return ir.StructOf(fs...)
	case types.KindUnion:
		return g.irType(unionStorageType(t))
	case types.KindFn:
		args := make([]ir.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = g.irType(a)
		}
		return ir.PointerTo(ir.FuncType(g.irType(t.Ret), args...))
	default:
		return ir.I8
	}
}

// unionStorageType picks the largest field as the union's sole backing
// field, per spec.md §3's "overlapping storage, sized to the largest
// member" note; the generator stores the union by byte-reinterpreting
// (bitcast through a pointer) whichever field is live.
func unionStorageType(t *types.RealType) *types.RealType {
	var best *types.RealType
	bestSize := int64(-1)
	for _, f := range t.Fields {
		sz := typeSizeBytes(f.Type)
		if sz > bestSize {
			bestSize, best = sz, f.Type
		}
	}
	if best == nil {
		return types.U8
	}
	return best
}

// typeSizeBytes implements spec.md §4.5's `type_size!` formula.
func typeSizeBytes(t *types.RealType) int64 {
	switch t.Kind {
	case types.KindInt, types.KindFloat:
		return int64(t.Bits) / 8
	case types.KindPtr, types.KindFn:
		return 8
	case types.KindArray:
		return t.Length * typeSizeBytes(t.Elem)
	case types.KindUnion:
		max := int64(0)
		for _, f := range t.Fields {
			if sz := typeSizeBytes(f.Type); sz > max {
				max = sz
			}
		}
		return max
	case types.KindStruct:
		max := int64(0)
		for _, f := range t.Fields {
			if sz := typeSizeBytes(f.Type); sz > max {
				max = sz
			}
		}
		return max * int64(len(t.Fields))
	default:
		return 0
	}
}

// evalExpr is the Expression Evaluator (spec.md §4.5): it lowers e to an
// IR value, reporting its real type. ctx is the contextual type pushed by
// the caller (an enclosing assignment's target, a call's parameter type,
// …); it is nil when no context applies. When e folds to a compile-time
// constant, the returned *constVal is non-nil and val holds the matching
// IR constant so callers that only want the materialised value don't need
// to special-case folding.
func (g *Generator) evalExpr(mod *mapper.Module, e ast.Expr, ctx *types.RealType) (val ir.Value, rt *types.RealType, cv *constVal, err *Error) {
	switch n := e.(type) {
	case *ast.LitNumber:
		return g.evalLitNumber(n, ctx)
	case *ast.LitFloat:
		return g.evalLitFloat(n, ctx)
	case *ast.LitChar:
		c := charConst(n.Value)
		return ir.ConstInt(ir.I8, int64(n.Value)), types.U8, c, nil
	case *ast.LitBool:
		c := boolConst(n.Value)
		return ir.ConstInt(ir.I1, boolToInt(n.Value)), types.Int(1, false), c, nil
	case *ast.LitNone:
		target := ctx
		if target == nil || target.Kind != types.KindPtr {
			target = types.Ptr(false, types.Void())
		}
		return ir.ConstNullPtr(g.irType(target)), target, &constVal{Kind: constNull, Type: target}, nil
	case *ast.LitUndefined:
		target := ctx
		if target == nil {
			return nil, nil, nil, semErr(diag.CodeSemAmbiguousType, n.Pos(), "Undefined needs a contextual type")
		}
		return ir.ConstUndef(g.irType(target)), target, &constVal{Kind: constUndef, Type: target}, nil
	case *ast.LitString:
		ptr := g.IR.GlobalString(n.Value)
		t := types.Ptr(false, types.U8)
		return ptr, t, stringConst(n.Value), nil
	case *ast.Ident:
		return g.evalIdent(mod, n)
	case *ast.BinaryExpr:
		return g.evalBinary(mod, n, ctx)
	case *ast.UnaryExpr:
		return g.evalUnary(mod, n, ctx)
	case *ast.CallExpr:
		return g.evalCall(mod, n, ctx)
	case *ast.InternalCallExpr:
		return g.evalInternalCall(mod, n, ctx)
	case *ast.DotExpr:
		return g.evalDot(mod, n)
	case *ast.IndexExpr:
		return g.evalIndex(mod, n)
	case *ast.CastExpr:
		return g.evalCast(mod, n)
	case *ast.StructInitExpr:
		return g.evalStructInit(mod, n, ctx)
	case *ast.ArrayInitExpr:
		return g.evalArrayInit(mod, n, ctx)
	case *ast.InlineIfExpr:
		return g.evalInlineIf(mod, n, ctx)
	case *ast.EnumLiteral:
		return g.evalEnumLiteral(mod, n, ctx)
	case *ast.GenericInstExpr:
		return g.evalGenericInst(mod, n, ctx)
	default:
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, e.Pos(), "unsupported expression")
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (g *Generator) evalLitNumber(n *ast.LitNumber, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	v, perr := strconv.ParseInt(n.Raw, 10, 64)
	if perr != nil {
		return nil, nil, nil, typeErr(diag.CodeTypeUnknown, n.Pos(), "invalid integer literal %q", n.Raw)
	}
	t := types.I32
	if ctx != nil && ctx.Kind == types.KindInt {
		t = ctx
	}
	return ir.ConstInt(g.irType(t), v), t, intConst(t, v), nil
}

func (g *Generator) evalLitFloat(n *ast.LitFloat, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	v, perr := strconv.ParseFloat(n.Raw, 64)
	if perr != nil {
		return nil, nil, nil, typeErr(diag.CodeTypeUnknown, n.Pos(), "invalid float literal %q", n.Raw)
	}
	t := types.F64
	if ctx != nil && ctx.Kind == types.KindFloat {
		t = ctx
	}
	return ir.ConstFloat(g.irType(t), v), t, floatConst(t, v), nil
}

func (g *Generator) evalIdent(mod *mapper.Module, n *ast.Ident) (ir.Value, *types.RealType, *constVal, *Error) {
	if lv, ok := g.sc.lookup(n.Name); ok {
		if lv.IsComptime {
			v, cerr := g.materializeConst(lv.Const, n)
			return v, lv.RealType, lv.Const, cerr
		}
		b := ir.NewBuilder(g.cur.Entry)
		return b.Load(g.irType(lv.RealType), lv.Storage), lv.RealType, nil, nil
	}
	sym, err := g.lookup(mod, n.Name)
	if err != nil {
		return nil, nil, nil, err
	}
	if sym == nil {
		return nil, nil, nil, semErr(diag.CodeSemUndeclaredIdentifier, n.Pos(), "undeclared identifier %q", n.Name)
	}
	switch sym.Kind {
	case mapper.FnSym:
		entry, ferr := g.genFunc(sym, nil)
		if ferr != nil {
			return nil, nil, nil, ferr
		}
		return entry.Fn.F, types.Fn(entry.ArgTypes, entry.RetType), nil, nil
	case mapper.GlobalVarSym:
		return g.evalGlobalVar(sym)
	default:
		return nil, nil, nil, semErr(diag.CodeSemWrongSymbolKind, n.Pos(), "%q is not a value", n.Name)
	}
}

func (g *Generator) materializeConst(c *constVal, at ast.Node) (ir.Value, *Error) {
	switch c.Kind {
	case constInt:
		return ir.ConstInt(g.irType(c.Type), c.I), nil
	case constFloat:
		return ir.ConstFloat(g.irType(c.Type), c.F), nil
	case constBool:
		return ir.ConstInt(ir.I1, boolToInt(c.B)), nil
	case constChar:
		return ir.ConstInt(ir.I8, int64(c.C)), nil
	case constNull:
		return ir.ConstNullPtr(g.irType(c.Type)), nil
	case constUndef:
		return ir.ConstUndef(g.irType(c.Type)), nil
	case constString:
		return g.IR.GlobalString(c.S), nil
	default:
		return nil, semErr(diag.CodeSemTypeMismatch, at.Pos(), "unrepresentable constant")
	}
}
