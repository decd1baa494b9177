package generator

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// evalInternalCall lowers the fixed set of `name!(…)(…)` builtins spec.md
// §4.5/§9 names. Each one is special-cased here rather than resolved
// through the symbol table, since none of them is a real zpp-level
// declaration.
func (g *Generator) evalInternalCall(mod *mapper.Module, n *ast.InternalCallExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	switch n.Name {
	case "ptr2int":
		return g.internalPtr2Int(mod, n)
	case "int2ptr":
		return g.internalInt2Ptr(mod, n, ctx)
	case "is_debug_build":
		return ir.ConstInt(ir.I1, boolToInt(g.Opts.Debug)), types.Int(1, false), boolConst(g.Opts.Debug), nil
	case "is_release_build":
		return ir.ConstInt(ir.I1, boolToInt(!g.Opts.Debug)), types.Int(1, false), boolConst(!g.Opts.Debug), nil
	case "type_size", "size_of":
		return g.internalTypeSize(mod, n)
	case "undefined_of":
		return g.internalUndefinedOf(mod, n)
	case "internal_call":
		return g.internalExternOrInternalCall(mod, n, false)
	case "extern_call":
		return g.internalExternOrInternalCall(mod, n, true)
	default:
		return nil, nil, nil, semErr(diag.CodeSemUndeclaredIdentifier, n.Pos(), "unknown builtin %q!", n.Name)
	}
}

func (g *Generator) internalPtr2Int(mod *mapper.Module, n *ast.InternalCallExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	if len(n.Args) != 1 {
		return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(), "ptr2int! takes exactly one argument")
	}
	v, t, _, err := g.evalExpr(mod, n.Args[0], nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if t.Kind != types.KindPtr {
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "ptr2int! argument must be a pointer")
	}
	b := ir.NewBuilder(g.cur.Entry)
	return b.PtrToInt(v, ir.I64), types.U64, nil, nil
}

func (g *Generator) internalInt2Ptr(mod *mapper.Module, n *ast.InternalCallExpr, ctx *types.RealType) (ir.Value, *types.RealType, *constVal, *Error) {
	if len(n.Args) != 1 {
		return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(), "int2ptr! takes exactly one argument")
	}
	target := types.Ptr(false, types.Void())
	if len(n.Generics) == 1 {
		rt, terr := g.evalType(mod, n.Generics[0])
		if terr != nil {
			return nil, nil, nil, terr
		}
		target = rt
	} else if ctx != nil && ctx.Kind == types.KindPtr {
		target = ctx
	}
	v, t, _, err := g.evalExpr(mod, n.Args[0], types.U64)
	if err != nil {
		return nil, nil, nil, err
	}
	if !t.IsNumeric() {
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "int2ptr! argument must be an integer")
	}
	b := ir.NewBuilder(g.cur.Entry)
	return b.IntToPtr(v, g.irType(target)), target, nil, nil
}

func (g *Generator) internalTypeSize(mod *mapper.Module, n *ast.InternalCallExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	if len(n.Generics) != 1 {
		return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(), "%s! takes exactly one generic type argument", n.Name)
	}
	t, terr := g.evalType(mod, n.Generics[0])
	if terr != nil {
		return nil, nil, nil, terr
	}
	sz := typeSizeBytes(t)
	return ir.ConstInt(ir.I64, sz), types.U64, intConst(types.U64, sz), nil
}

func (g *Generator) internalUndefinedOf(mod *mapper.Module, n *ast.InternalCallExpr) (ir.Value, *types.RealType, *constVal, *Error) {
	if len(n.Generics) != 1 {
		return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(), "undefined_of! takes exactly one generic type argument")
	}
	t, terr := g.evalType(mod, n.Generics[0])
	if terr != nil {
		return nil, nil, nil, terr
	}
	return ir.ConstUndef(g.irType(t)), t, &constVal{Kind: constUndef, Type: t}, nil
}

// internalExternOrInternalCall lowers `internal_call!|Ret|("name", args…)`
// and `extern_call!|Ret|("name", "lib", args…)`: both declare-once an
// external function of the inferred signature and call it directly,
// bypassing the symbol table (spec.md §4.5's escape hatch for calling into
// the C ABI without a zpp-level declaration).
func (g *Generator) internalExternOrInternalCall(mod *mapper.Module, n *ast.InternalCallExpr, extern bool) (ir.Value, *types.RealType, *constVal, *Error) {
	minArgs := 1
	if extern {
		minArgs = 2
	}
	if len(n.Args) < minArgs {
		return nil, nil, nil, semErr(diag.CodeSemArityMismatch, n.Pos(), "%s! needs a callee name argument", n.Name)
	}
	nameLit, ok := n.Args[0].(*ast.LitString)
	if !ok {
		return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "%s! callee name must be a string literal", n.Name)
	}
	callArgs := n.Args[1:]
	if extern {
		libLit, ok := n.Args[1].(*ast.LitString)
		if !ok {
			return nil, nil, nil, semErr(diag.CodeSemTypeMismatch, n.Pos(), "extern_call! library name must be a string literal")
		}
		g.libs[libLit.Value] = true
		callArgs = n.Args[2:]
	}

	retT := types.Void()
	if len(n.Generics) == 1 {
		rt, terr := g.evalType(mod, n.Generics[0])
		if terr != nil {
			return nil, nil, nil, terr
		}
		retT = rt
	}

	argVals := make([]ir.Value, len(callArgs))
	argTypes := make([]*types.RealType, len(callArgs))
	for i, a := range callArgs {
		v, t, _, err := g.evalExpr(mod, a, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		argVals[i] = v
		argTypes[i] = t
	}
	irArgs := make([]ir.Type, len(argTypes))
	for i, t := range argTypes {
		irArgs[i] = g.irType(t)
	}
	fn := g.IR.Extern(nameLit.Value, g.irType(retT), irArgs)
	b := ir.NewBuilder(g.cur.Entry)
	return b.Call(fn.F, argVals...), retT, nil, nil
}
