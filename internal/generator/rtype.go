package generator

import (
	"strconv"
	"strings"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// parseIntLiteral parses a lexer NUM token's text (plain decimal digits,
// separators already stripped) into its value.
func parseIntLiteral(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

var primitiveTypes = map[string]*types.RealType{
	"i8": types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64,
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64,
	"f32": types.F32, "f64": types.F64, "void": types.Void(),
}

// evalType evaluates a type AST node to a canonical real type, per
// spec.md §4.4. mod is the module the node's names are resolved against;
// when the Generator is currently lowering a generic instantiation,
// generic parameter names resolve against that instantiation's alias
// bindings first.
func (g *Generator) evalType(mod *mapper.Module, texpr ast.TypeExpr) (*types.RealType, *Error) {
	switch n := texpr.(type) {
	case *ast.NamedType:
		return g.evalNamedType(mod, n)

	case *ast.PointerType:
		target, err := g.evalType(mod, n.Target)
		if err != nil {
			return nil, err
		}
		return types.Ptr(n.Mut, target), nil

	case *ast.ArrayType:
		length, err := g.constIntLength(mod, n.Length)
		if err != nil {
			return nil, err
		}
		elem, err2 := g.evalType(mod, n.Elem)
		if err2 != nil {
			return nil, err2
		}
		return types.Array(length, elem), nil

	case *ast.VectorType:
		length, err := g.constIntLength(mod, n.Length)
		if err != nil {
			return nil, err
		}
		elem, err2 := g.evalType(mod, n.Elem)
		if err2 != nil {
			return nil, err2
		}
		return types.Array(length, elem), nil

	case *ast.StructType:
		fields, err := g.evalFields(mod, n.Fields)
		if err != nil {
			return nil, err
		}
		return types.Struct(fields), nil

	case *ast.UnionType:
		fields, err := g.evalFields(mod, n.Fields)
		if err != nil {
			return nil, err
		}
		return types.Union(fields), nil

	case *ast.FnType:
		args := make([]*types.RealType, len(n.Args))
		for i, a := range n.Args {
			rt, err := g.evalType(mod, a)
			if err != nil {
				return nil, err
			}
			args[i] = rt
		}
		ret, err := g.evalType(mod, n.Ret)
		if err != nil {
			return nil, err
		}
		return types.Fn(args, ret), nil

	default:
		return nil, typeErr(diag.CodeTypeUnknown, texpr.Pos(), "unknown type expression")
	}
}

func (g *Generator) evalFields(mod *mapper.Module, fields []ast.TypeField) ([]types.Field, *Error) {
	seen := map[string]bool{}
	out := make([]types.Field, len(fields))
	for i, f := range fields {
		if seen[f.Name] {
			return nil, typeErr(diag.CodeTypeUnknown, f.Type.Pos(), "duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		rt, err := g.evalType(mod, f.Type)
		if err != nil {
			return nil, err
		}
		out[i] = types.Field{Name: f.Name, Type: rt}
	}
	return out, nil
}

func (g *Generator) evalNamedType(mod *mapper.Module, n *ast.NamedType) (*types.RealType, *Error) {
	if g.cur != nil {
		if rt, ok := g.cur.Generics[n.Name]; ok {
			return rt, nil
		}
	}
	if rt, ok := primitiveTypes[n.Name]; ok {
		if len(n.Args) > 0 {
			return nil, typeErr(diag.CodeTypeWrongArity, n.Pos(), "primitive type %q takes no generic arguments", n.Name)
		}
		return rt, nil
	}

	sym, err := g.lookup(mod, n.Name)
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, semErr(diag.CodeSemUndeclaredIdentifier, n.Pos(), "undeclared type %q", n.Name)
	}
	decl, ok := sym.Decl.(*ast.TypeDecl)
	if !ok || (sym.Kind != mapper.TypeSym && sym.Kind != mapper.GenericTypeSym) {
		return nil, semErr(diag.CodeSemWrongSymbolKind, n.Pos(), "%q is not a type", n.Name)
	}
	if len(decl.Generics) != len(n.Args) {
		return nil, typeErr(diag.CodeTypeWrongArity, n.Pos(),
			"type %q expects %d generic argument(s), got %d", n.Name, len(decl.Generics), len(n.Args))
	}

	argTypes := make([]*types.RealType, len(n.Args))
	for i, a := range n.Args {
		rt, aerr := g.evalType(mod, a)
		if aerr != nil {
			return nil, aerr
		}
		argTypes[i] = rt
	}

	var idents []string
	for _, a := range argTypes {
		idents = append(idents, typeIdentity(a))
	}
	key := types.Key{Sym: sym, Generics: strings.Join(idents, ",")}

	savedCur := g.cur
	rt := g.Engine.EvalNamed(key, func() *types.RealType {
		bindings := map[string]*types.RealType{}
		for i, gp := range decl.Generics {
			bindings[gp] = argTypes[i]
		}
		g.cur = &funcEntry{Generics: bindings}
		defer func() { g.cur = savedCur }()
		body, terr := g.evalType(sym.Module, decl.Type)
		if terr != nil {
			// The body can't fail once the parser/mapper stages pass in
			// practice for well-formed programs; evalType's own callers
			// surface errors earlier. Fall back to void to keep the
			// fix-point table consistent rather than panicking mid-walk.
			return types.Void()
		}
		return body
	})

	if len(n.Args) == 0 {
		if types.HasInfiniteLayout(rt) {
			return nil, typeErr(diag.CodeTypeInfiniteLayout, n.Pos(), "type %q has infinite recursive layout", n.Name)
		}
	}
	return rt, nil
}

// constIntLength evaluates an array/vector length expression to a
// compile-time integer. Lengths are always constant in zpp's grammar.
func (g *Generator) constIntLength(mod *mapper.Module, e ast.Expr) (int64, *Error) {
	switch n := e.(type) {
	case *ast.LitNumber:
		v, perr := parseIntLiteral(n.Raw)
		if perr != nil {
			return 0, typeErr(diag.CodeTypeUnknown, n.Pos(), "invalid array length %q", n.Raw)
		}
		return v, nil
	default:
		return 0, typeErr(diag.CodeTypeUnknown, e.Pos(), "array length must be a constant integer")
	}
}
