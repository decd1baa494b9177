package generator

import (
	"strings"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// genFunc monomorphises and emits sym's body, per spec.md §4.7. The
// funcEntry is registered in the appropriate cache *before* its body is
// lowered, so a recursive call generated while lowering that very body
// resolves to the same (still-being-built) function rather than
// recursing into genFunc a second time.
func (g *Generator) genFunc(sym *mapper.Symbol, generics []*types.RealType) (*funcEntry, *Error) {
	decl, ok := sym.Decl.(*ast.FuncDecl)
	if !ok {
		return nil, semErr(diag.CodeSemWrongSymbolKind, sym.Decl.Pos(), "%q is not a function", sym.Name)
	}
	if len(generics) != len(decl.Generics) {
		return nil, typeErr(diag.CodeTypeWrongArity, decl.Pos(),
			"fn %q expects %d generic argument(s), got %d", sym.Name, len(decl.Generics), len(generics))
	}

	var key genericKey
	if len(generics) == 0 {
		if e, ok := g.funcCache[sym]; ok {
			g.Log.Debugw("genFunc cache hit", "fn", sym.Name, "module", sym.Module.Path)
			return e, nil
		}
	} else {
		idents := make([]string, len(generics))
		for i, t := range generics {
			idents[i] = typeIdentity(t)
		}
		key = genericKey{Sym: sym, Generics: strings.Join(idents, ",")}
		if e, ok := g.genericCache[key]; ok {
			g.Log.Debugw("genFunc generic cache hit", "fn", sym.Name, "generics", key.Generics)
			return e, nil
		}
	}
	g.Log.Debugw("genFunc lowering", "fn", sym.Name, "module", sym.Module.Path, "generics", len(generics))

	bindings := map[string]*types.RealType{}
	for i, gp := range decl.Generics {
		bindings[gp] = generics[i]
	}

	entry := &funcEntry{Sym: sym, Proto: decl, Generics: bindings, Mod: sym.Module}
	if len(generics) == 0 {
		g.funcCache[sym] = entry
	} else {
		g.genericCache[key] = entry
	}

	savedCur, savedSc := g.cur, g.sc
	g.cur, g.sc = entry, nil

	if err := g.buildFuncSignature(sym, decl, entry, generics); err != nil {
		g.cur, g.sc = savedCur, savedSc
		return nil, err
	}
	if err := g.buildFuncBody(sym, decl, entry); err != nil {
		g.cur, g.sc = savedCur, savedSc
		return nil, err
	}

	entry.done = true
	g.cur, g.sc = savedCur, savedSc
	return entry, nil
}

func (g *Generator) buildFuncSignature(sym *mapper.Symbol, decl *ast.FuncDecl, entry *funcEntry, generics []*types.RealType) *Error {
	argTypes := make([]*types.RealType, len(decl.Args))
	for i, a := range decl.Args {
		t, terr := g.evalType(sym.Module, a.Type)
		if terr != nil {
			return terr
		}
		if a.Out {
			t = types.Ptr(true, t)
		}
		argTypes[i] = t
	}
	retType := types.Void()
	if decl.RetType != nil {
		t, terr := g.evalType(sym.Module, decl.RetType)
		if terr != nil {
			return terr
		}
		retType = t
	}
	entry.ArgTypes = argTypes
	entry.RetType = retType

	name := mangle(sym.Module.Path, sym.Name, generics)
	irArgs := make([]ir.Type, len(argTypes))
	for i, t := range argTypes {
		irArgs[i] = g.irType(t)
	}
	paramNames := make([]string, len(decl.Args))
	for i, a := range decl.Args {
		paramNames[i] = a.Name
	}
	fn := g.IR.NewFunc(name, g.irType(retType), paramNames, irArgs)
	entry.Fn = fn
	entry.Allocas = fn.NewBlock("allocas")
	entry.Entry = fn.NewBlock("entry")
	return nil
}

func (g *Generator) buildFuncBody(sym *mapper.Symbol, decl *ast.FuncDecl, entry *funcEntry) *Error {
	g.sc = newScope(nil)
	for i, a := range decl.Args {
		if a.Out {
			g.sc.declare(a.Name, &localVar{RealType: entry.ArgTypes[i].Target, Storage: entry.Fn.Param(i)})
			continue
		}
		ab := ir.NewBuilder(entry.Allocas)
		slot := ab.Alloca(g.irType(entry.ArgTypes[i]))
		ir.NewBuilder(entry.Entry).Store(entry.Fn.Param(i), slot)
		g.sc.declare(a.Name, &localVar{RealType: entry.ArgTypes[i], Storage: slot})
	}

	if err := g.lowerStmts(sym.Module, decl.Body); err != nil {
		return err
	}

	if !g.cur.Entry.IsTerminated() {
		if entry.RetType.Kind == types.KindVoid {
			g.runDefersTo(nil)
			ir.NewBuilder(g.cur.Entry).RetVoid()
		} else {
			return semErr(diag.CodeSemTypeMismatch, decl.Pos(), "fn %q falls through without returning a value", decl.Name)
		}
	}

	ir.NewBuilder(entry.Allocas).Br(entry.Entry)
	entry.Fn.Prune()
	return nil
}

// genMainWrapper emits the C-ABI `main` the driver links, forwarding
// straight through to the user's mangled `main`, per spec.md §4.7.
func (g *Generator) genMainWrapper(entry *funcEntry) *Error {
	if len(entry.ArgTypes) != 2 ||
		!types.Equal(entry.ArgTypes[0], types.U32) ||
		entry.ArgTypes[1].Kind != types.KindPtr ||
		entry.ArgTypes[1].Target.Kind != types.KindPtr ||
		entry.ArgTypes[1].Target.Target.Kind != types.KindInt ||
		entry.ArgTypes[1].Target.Target.Bits != 8 ||
		!types.Equal(entry.RetType, types.I32) {
		return semErr(diag.CodeSemInvalidMainSignature, entry.Proto.Pos(),
			"fn main must have signature (u32, *const *const u8) -> i32")
	}

	wrapper := g.IR.NewFunc("main", ir.I32, []string{"argc", "argv"},
		[]ir.Type{ir.I32, ir.PointerTo(ir.PointerTo(ir.I8))})
	block := wrapper.NewBlock("")
	b := ir.NewBuilder(block)
	result := b.Call(entry.Fn.F, wrapper.Param(0), wrapper.Param(1))
	b.Ret(result)
	return nil
}
