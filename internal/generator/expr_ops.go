package generator

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// evalBinary lowers a binary expression, constant-folding when both sides
// fold and short-circuiting and/or with a diamond CFG otherwise, per
// spec.md §4.5.
func (g *Generator) evalBinary(mod *mapper.Module, n *ast.BinaryExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		return g.evalShortCircuit(mod, n)
	}

	lv, lt, lc, err := g.evalExpr(mod, n.Left, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	rv, rt, rc, err := g.evalExpr(mod, n.Right, lt)
	if err != nil {
		return nil, nil, nil, err
	}
	if !types.Equal(lt, rt) && lt.IsNumeric() && rt.IsNumeric() {
		// untyped-constant coercion: widen the literal side to match.
		if lc != nil && rc == nil {
			lv, lt = g.coerceNumeric(lv, lt, rt)
		} else if rc != nil && lc == nil {
			rv, rt = g.coerceNumeric(rv, rt, lt)
		}
	}

	if lc != nil && rc != nil {
		if folded := foldBinary(n.Op, lc, rc); folded != nil {
			v, cerr := g.materializeConst(folded, n)
			return v, folded.Type, folded, cerr
		}
	}

	b := ir.NewBuilder(g.cur.Entry)
	v, rty, berr := g.emitBinary(b, n, lv, lt, rv, rt)
	return v, rty, nil, berr
}

func (g *Generator) coerceNumeric(v ir.Value, from, to *types.RealType) (ir.Value, *types.RealType) {
	b := ir.NewBuilder(g.cur.Entry)
	if from.Kind == types.KindInt && to.Kind == types.KindInt {
		if to.Bits > from.Bits {
			if from.Signed {
				return b.SExt(v, g.irType(to)), to
			}
			return b.ZExt(v, g.irType(to)), to
		}
		return v, from
	}
	if from.Kind == types.KindFloat && to.Kind == types.KindFloat {
		if to.Bits > from.Bits {
			return b.FPExt(v, g.irType(to)), to
		}
	}
	return v, from
}

func (g *Generator) emitBinary(b *ir.Builder, n *ast.BinaryExpr, lv ir.Value, lt *types.RealType, rv ir.Value, rt *types.RealType) (ir.Value, *types.RealType, *Error) {
	isFloat := lt.Kind == types.KindFloat
	switch n.Op {
	case ast.OpAdd:
		if isFloat {
			return b.FAdd(lv, rv), lt, nil
		}
		return b.Add(lv, rv), lt, nil
	case ast.OpSub:
		if isFloat {
			return b.FSub(lv, rv), lt, nil
		}
		return b.Sub(lv, rv), lt, nil
	case ast.OpMul:
		if isFloat {
			return b.FMul(lv, rv), lt, nil
		}
		return b.Mul(lv, rv), lt, nil
	case ast.OpDiv:
		if isFloat {
			return b.FDiv(lv, rv), lt, nil
		}
		if lt.Signed {
			return b.SDiv(lv, rv), lt, nil
		}
		return b.UDiv(lv, rv), lt, nil
	case ast.OpMod:
		if isFloat {
			return b.FRem(lv, rv), lt, nil
		}
		if lt.Signed {
			return b.SRem(lv, rv), lt, nil
		}
		return b.URem(lv, rv), lt, nil
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		boolT := types.Int(1, false)
		if isFloat {
			return b.FCmp(fCmpFor(n.Op), lv, rv), boolT, nil
		}
		return b.ICmp(iCmpFor(n.Op, lt.Signed), lv, rv), boolT, nil
	default:
		return nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "unsupported operator %s", n.Op)
	}
}

func iCmpFor(op ast.BinaryOp, signed bool) ir.ICmpPred {
	switch op {
	case ast.OpEq:
		return ir.IEq
	case ast.OpNeq:
		return ir.INeq
	case ast.OpLt:
		if signed {
			return ir.ISlt
		}
		return ir.IUlt
	case ast.OpGt:
		if signed {
			return ir.ISgt
		}
		return ir.IUgt
	case ast.OpLe:
		if signed {
			return ir.ISle
		}
		return ir.IUle
	default:
		if signed {
			return ir.ISge
		}
		return ir.IUge
	}
}

func fCmpFor(op ast.BinaryOp) ir.FCmpPred {
	switch op {
	case ast.OpEq:
		return ir.FOeq
	case ast.OpNeq:
		return ir.FOne
	case ast.OpLt:
		return ir.FOlt
	case ast.OpGt:
		return ir.FOgt
	case ast.OpLe:
		return ir.FOle
	default:
		return ir.FOge
	}
}

// foldBinary constant-folds two already-evaluated constants, returning nil
// when the operator/kind combination isn't one the folder handles (the
// caller then falls through to ordinary IR emission).
func foldBinary(op ast.BinaryOp, l, r *constVal) *constVal {
	if l.Kind == constInt && r.Kind == constInt {
		switch op {
		case ast.OpAdd:
			return intConst(l.Type, l.I+r.I)
		case ast.OpSub:
			return intConst(l.Type, l.I-r.I)
		case ast.OpMul:
			return intConst(l.Type, l.I*r.I)
		case ast.OpDiv:
			if r.I == 0 {
				return nil
			}
			return intConst(l.Type, l.I/r.I)
		case ast.OpMod:
			if r.I == 0 {
				return nil
			}
			return intConst(l.Type, l.I%r.I)
		case ast.OpEq:
			return boolConst(l.I == r.I)
		case ast.OpNeq:
			return boolConst(l.I != r.I)
		case ast.OpLt:
			return boolConst(l.I < r.I)
		case ast.OpGt:
			return boolConst(l.I > r.I)
		case ast.OpLe:
			return boolConst(l.I <= r.I)
		case ast.OpGe:
			return boolConst(l.I >= r.I)
		}
	}
	if l.Kind == constFloat && r.Kind == constFloat {
		switch op {
		case ast.OpAdd:
			return floatConst(l.Type, l.F+r.F)
		case ast.OpSub:
			return floatConst(l.Type, l.F-r.F)
		case ast.OpMul:
			return floatConst(l.Type, l.F*r.F)
		case ast.OpDiv:
			return floatConst(l.Type, l.F/r.F)
		case ast.OpEq:
			return boolConst(l.F == r.F)
		case ast.OpNeq:
			return boolConst(l.F != r.F)
		case ast.OpLt:
			return boolConst(l.F < r.F)
		case ast.OpGt:
			return boolConst(l.F > r.F)
		case ast.OpLe:
			return boolConst(l.F <= r.F)
		case ast.OpGe:
			return boolConst(l.F >= r.F)
		}
	}
	return nil
}

// evalShortCircuit lowers and/or, per spec.md §4.5/§7's testable property
// 7: a constant-folded left side elides the branch entirely rather than
// emitting a diamond with a dead arm.
func (g *Generator) evalShortCircuit(mod *mapper.Module, n *ast.BinaryExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	boolT := types.Int(1, false)
	lv, _, lc, err := g.evalExpr(mod, n.Left, boolT)
	if err != nil {
		return nil, nil, nil, err
	}
	if lc != nil && lc.Kind == constBool {
		short := (n.Op == ast.OpAnd && !lc.B) || (n.Op == ast.OpOr && lc.B)
		if short {
			return lv, boolT, lc, nil
		}
		rv, _, rc, rerr := g.evalExpr(mod, n.Right, boolT)
		return rv, boolT, rc, rerr
	}

	startBlock := g.cur.Entry
	rhsBlock := g.cur.Fn.NewBlock("")
	joinBlock := g.cur.Fn.NewBlock("")

	b := ir.NewBuilder(startBlock)
	if n.Op == ast.OpAnd {
		b.CondBr(lv, rhsBlock, joinBlock)
	} else {
		b.CondBr(lv, joinBlock, rhsBlock)
	}

	g.cur.Entry = rhsBlock
	rv, _, _, rerr := g.evalExpr(mod, n.Right, boolT)
	if rerr != nil {
		return nil, nil, nil, rerr
	}
	rhsEnd := g.cur.Entry
	ir.NewBuilder(rhsEnd).Br(joinBlock)

	g.cur.Entry = joinBlock
	jb := ir.NewBuilder(joinBlock)
	phi := jb.Phi(ir.I1, ir.Incoming{Value: lv, Block: startBlock}, ir.Incoming{Value: rv, Block: rhsEnd})
	return phi, boolT, nil, nil
}

// evalUnary lowers a prefix or chained-postfix unary expression.
func (g *Generator) evalUnary(mod *mapper.Module, n *ast.UnaryExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	switch n.Op {
	case ast.UnaryRef, ast.UnaryMutRef:
		ptr, t, err := g.evalLValue(mod, n.Operand)
		if err != nil {
			return nil, nil, nil, err
		}
		return ptr, types.Ptr(n.Op == ast.UnaryMutRef, t), nil, nil
	case ast.UnaryDeref:
		v, t, _, err := g.evalExpr(mod, n.Operand, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		if t.Kind != types.KindPtr {
			return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "cannot dereference non-pointer")
		}
		b := ir.NewBuilder(g.cur.Entry)
		return b.Load(g.irType(t.Target), v), t.Target, nil, nil
	case ast.UnaryNot:
		v, t, c, err := g.evalExpr(mod, n.Operand, types.Int(1, false))
		if err != nil {
			return nil, nil, nil, err
		}
		if c != nil && c.Kind == constBool {
			nc := boolConst(!c.B)
			nv, cerr := g.materializeConst(nc, n)
			return nv, t, nc, cerr
		}
		b := ir.NewBuilder(g.cur.Entry)
		return b.ICmp(ir.IEq, v, ir.ConstInt(ir.I1, 0)), t, nil, nil
	case ast.UnaryNeg:
		v, t, c, err := g.evalExpr(mod, n.Operand, ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		if c != nil {
			switch c.Kind {
			case constInt:
				nc := intConst(t, -c.I)
				nv, cerr := g.materializeConst(nc, n)
				return nv, t, nc, cerr
			case constFloat:
				nc := floatConst(t, -c.F)
				nv, cerr := g.materializeConst(nc, n)
				return nv, t, nc, cerr
			}
		}
		b := ir.NewBuilder(g.cur.Entry)
		if t.Kind == types.KindFloat {
			return b.FNeg(v), t, nil, nil
		}
		return b.Neg(v), t, nil, nil
	default:
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "unsupported unary operator")
	}
}

// evalInlineIf lowers the `a if cond else b` expression form as a diamond
// CFG with a join-block phi.
func (g *Generator) evalInlineIf(mod *mapper.Module, n *ast.InlineIfExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	cv, _, cc, err := g.evalExpr(mod, n.Cond, types.Int(1, false))
	if err != nil {
		return nil, nil, nil, err
	}
	if cc != nil && cc.Kind == constBool {
		if cc.B {
			return g.evalExpr(mod, n.Then, ctx)
		}
		return g.evalExpr(mod, n.Else, ctx)
	}

	thenBlock := g.cur.Fn.NewBlock("")
	elseBlock := g.cur.Fn.NewBlock("")
	joinBlock := g.cur.Fn.NewBlock("")

	ir.NewBuilder(g.cur.Entry).CondBr(cv, thenBlock, elseBlock)

	g.cur.Entry = thenBlock
	tv, tt, _, terr := g.evalExpr(mod, n.Then, ctx)
	if terr != nil {
		return nil, nil, nil, terr
	}
	thenEnd := g.cur.Entry
	ir.NewBuilder(thenEnd).Br(joinBlock)

	g.cur.Entry = elseBlock
	ev, _, _, eerr := g.evalExpr(mod, n.Else, tt)
	if eerr != nil {
		return nil, nil, nil, eerr
	}
	elseEnd := g.cur.Entry
	ir.NewBuilder(elseEnd).Br(joinBlock)

	g.cur.Entry = joinBlock
	jb := ir.NewBuilder(joinBlock)
	phi := jb.Phi(g.irType(tt), ir.Incoming{Value: tv, Block: thenEnd}, ir.Incoming{Value: ev, Block: elseEnd})
	return phi, tt, nil, nil
}

// evalGlobalVar lowers a reference to a module-level variable: its
// constant initialiser is evaluated again at each reference and the
// materialised constant is returned. No LLVM global is emitted and
// nothing is cached, so a global has no addressable storage.
func (g *Generator) evalGlobalVar(sym *mapper.Symbol) (ir.Value, *types.RealType, *constVal, *Error) {
	decl := sym.Decl.(*ast.GlobalVarDecl)
	t, terr := g.evalType(sym.Module, decl.Type)
	if terr != nil {
		return nil, nil, nil, terr
	}
	// Global initialisers in zpp are restricted to constant expressions;
	// the generator reuses the expression evaluator's folding path rather
	// than a separate constant-expression grammar.
	savedCur, savedSc := g.cur, g.sc
	g.cur, g.sc = nil, nil
	_, _, cv, err := g.evalExpr(sym.Module, decl.Init, t)
	g.cur, g.sc = savedCur, savedSc
	if err != nil {
		return nil, nil, nil, err
	}
	if cv == nil {
		return nil, nil, nil, semErr(diag.CodeSemAmbiguousType, decl.Pos(), "global %q has a non-constant initialiser", decl.Name)
	}
	v, cerr := g.materializeConst(cv, decl)
	return v, t, cv, cerr
}

func (g *Generator) evalEnumLiteral(mod *mapper.Module, n *ast.EnumLiteral, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	if ctx == nil || ctx.Kind != types.KindUnion {
		// The parser turns every capitalised name into an EnumLiteral, so
		// outside a union context it resolves as an ordinary identifier
		// (comptime constants, capitalised functions and globals).
		return g.evalIdent(mod, &ast.Ident{Base: n.Base, Name: n.Name})
	}
	for _, f := range ctx.Fields {
		if f.Name == n.Name {
			return g.buildUnionInit(ctx, f.Name, nil, nil, n)
		}
	}
	return nil, nil, nil, semErr(diag.CodeSemUndeclaredIdentifier, n.Pos(), "union has no member %q", n.Name)
}

func (g *Generator) evalGenericInst(mod *mapper.Module, n *ast.GenericInstExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	ident, ok := n.Callee.(*ast.Ident)
	if !ok {
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "generic instantiation target must be a name")
	}
	sym, err := g.lookup(mod, ident.Name)
	if err != nil {
		return nil, nil, nil, err
	}
	if sym == nil || sym.Kind != mapper.FnSym {
		return nil, nil, nil, semErr(diag.CodeSemUndeclaredIdentifier, n.Pos(), "undeclared generic function %q", ident.Name)
	}
	generics := make([]*types.RealType, len(n.Args))
	for i, a := range n.Args {
		rt, terr := g.evalType(mod, a)
		if terr != nil {
			return nil, nil, nil, terr
		}
		generics[i] = rt
	}
	entry, gerr := g.genFunc(sym, generics)
	if gerr != nil {
		return nil, nil, nil, gerr
	}
	return entry.Fn.F, types.Fn(entry.ArgTypes, entry.RetType), nil, nil
}
