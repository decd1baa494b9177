package generator

import (
	"strings"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/lexer"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// isComptimeName implements spec.md §4.6's implementer-specified
// comptime-declaration convention: an all-uppercase (and non-empty)
// name declares a compile-time constant instead of a stack slot.
func isComptimeName(name string) bool {
	if name == "" {
		return false
	}
	return name == strings.ToUpper(name) && strings.ToUpper(name) != strings.ToLower(name)
}

func (g *Generator) lowerVarDecl(mod *mapper.Module, n *ast.VarDeclStmt) *Error {
	var declType *types.RealType
	if n.Type != nil {
		t, terr := g.evalType(mod, n.Type)
		if terr != nil {
			return terr
		}
		declType = t
	}

	if isComptimeName(n.Name) {
		_, t, cv, err := g.evalExpr(mod, n.Init, declType)
		if err != nil {
			return err
		}
		if cv == nil {
			return semErr(diag.CodeSemAmbiguousType, n.Pos(), "comptime declaration %q needs a compile-time initialiser", n.Name)
		}
		g.sc.declare(n.Name, &localVar{RealType: t, IsComptime: true, Const: cv})
		return nil
	}

	v, t, _, err := g.evalExpr(mod, n.Init, declType)
	if err != nil {
		return err
	}
	ab := ir.NewBuilder(g.cur.Allocas)
	slot := ab.Alloca(g.irType(t))
	b := ir.NewBuilder(g.cur.Entry)
	b.Store(v, slot)
	g.sc.declare(n.Name, &localVar{RealType: t, Storage: slot})
	return nil
}

func (g *Generator) lowerAssign(mod *mapper.Module, n *ast.AssignStmt) *Error {
	if n.Discard {
		_, _, _, err := g.evalExpr(mod, n.RExpr, nil)
		return err
	}

	ptr, t, lerr := g.evalLValue(mod, n.LExpr)
	if lerr != nil {
		return lerr
	}

	if n.Op == ast.AssignSet {
		v, _, _, err := g.evalExpr(mod, n.RExpr, t)
		if err != nil {
			return err
		}
		ir.NewBuilder(g.cur.Entry).Store(v, ptr)
		return nil
	}

	b := ir.NewBuilder(g.cur.Entry)
	cur := b.Load(g.irType(t), ptr)
	rv, _, _, err := g.evalExpr(mod, n.RExpr, t)
	if err != nil {
		return err
	}
	var result ir.Value
	isFloat := t.Kind == types.KindFloat
	switch n.Op {
	case ast.AssignAddSet:
		if isFloat {
			result = b.FAdd(cur, rv)
		} else {
			result = b.Add(cur, rv)
		}
	case ast.AssignSubSet:
		if isFloat {
			result = b.FSub(cur, rv)
		} else {
			result = b.Sub(cur, rv)
		}
	case ast.AssignMulSet:
		if isFloat {
			result = b.FMul(cur, rv)
		} else {
			result = b.Mul(cur, rv)
		}
	default:
		return semErr(diag.CodeSemTypeMismatch, n.Pos(), "unsupported compound assignment operator %s", n.Op)
	}
	b.Store(result, ptr)
	return nil
}

// lowerTry implements spec.md §4.6's two desugarings:
//   try [name: T =] expr: body  ->  name : T = expr; if name != 0: body
//   try expr                    ->  t : <ret> = expr; if t != 0: return t
func (g *Generator) lowerTry(mod *mapper.Module, n *ast.TryStmt) *Error {
	if n.Body == nil {
		declType := g.cur.RetType
		v, t, _, err := g.evalExpr(mod, n.Value, declType)
		if err != nil {
			return err
		}
		ab := ir.NewBuilder(g.cur.Allocas)
		slot := ab.Alloca(g.irType(t))
		ir.NewBuilder(g.cur.Entry).Store(v, slot)

		cond, cerr := g.nonZeroCond(t, v, n.Pos())
		if cerr != nil {
			return cerr
		}
		thenBlock := g.cur.Fn.NewBlock("")
		joinBlock := g.cur.Fn.NewBlock("")
		ir.NewBuilder(g.cur.Entry).CondBr(cond, thenBlock, joinBlock)

		g.cur.Entry = thenBlock
		b := ir.NewBuilder(g.cur.Entry)
		loaded := b.Load(g.irType(t), slot)
		g.runDefersTo(nil)
		ir.NewBuilder(g.cur.Entry).Ret(loaded)

		g.cur.Entry = joinBlock
		return nil
	}

	name := n.VarName
	v, t, _, err := g.evalExpr(mod, n.Value, exprTypeOrNil(n.VarType, mod, g))
	if err != nil {
		return err
	}
	ab := ir.NewBuilder(g.cur.Allocas)
	slot := ab.Alloca(g.irType(t))
	ir.NewBuilder(g.cur.Entry).Store(v, slot)
	g.sc.declare(name, &localVar{RealType: t, Storage: slot})

	cond, cerr := g.nonZeroCond(t, v, n.Pos())
	if cerr != nil {
		return cerr
	}
	thenBlock := g.cur.Fn.NewBlock("")
	joinBlock := g.cur.Fn.NewBlock("")
	ir.NewBuilder(g.cur.Entry).CondBr(cond, thenBlock, joinBlock)

	g.cur.Entry = thenBlock
	if err := g.lowerBlock(mod, n.Body); err != nil {
		return err
	}
	if !g.cur.Entry.IsTerminated() {
		ir.NewBuilder(g.cur.Entry).Br(joinBlock)
	}

	g.cur.Entry = joinBlock
	return nil
}

func exprTypeOrNil(t ast.TypeExpr, mod *mapper.Module, g *Generator) *types.RealType {
	if t == nil {
		return nil
	}
	rt, err := g.evalType(mod, t)
	if err != nil {
		return nil
	}
	return rt
}

func (g *Generator) nonZeroCond(t *types.RealType, v ir.Value, span lexer.Span) (ir.Value, *Error) {
	b := ir.NewBuilder(g.cur.Entry)
	switch t.Kind {
	case types.KindInt:
		return b.ICmp(ir.INeq, v, ir.ConstInt(g.irType(t), 0)), nil
	case types.KindPtr:
		return b.ICmp(ir.INeq, v, ir.ConstNullPtr(g.irType(t))), nil
	default:
		return nil, semErr(diag.CodeSemTypeMismatch, span, "try expression must be numeric or pointer")
	}
}
