// Package mapper walks a module's top-level declarations into a symbol
// table and resolves its import edges, per spec.md §4.3. It never touches
// the filesystem: a Loader callback supplied by the driver performs that
// I/O so this package stays testable with an in-memory Loader.
package mapper

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/lexer"
)

// SymbolKind enumerates the symbol kinds named in spec.md §3.
type SymbolKind uint8

const (
	FnSym SymbolKind = iota
	TypeSym
	GenericTypeSym
	AliasSym
	LocalVarSym
	GlobalVarSym
)

// Symbol is a module-level or local declaration. AliasSym and the two
// *VarSym kinds grow real-type/storage information once the Generator
// evaluates them; the mapper only ever produces Fn/Type/GenericType/
// GlobalVar symbols, never Alias or LocalVar (those are born later, in
// generic instantiation and statement lowering respectively).
type Symbol struct {
	Kind   SymbolKind
	Name   string
	Module *Module
	Decl   ast.Decl
}

// reservedNames are the primitive type names spec.md §4.3 forbids
// redeclaring.
var reservedNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true, "void": true,
}

// Error is the single fatal mapper-stage error.
type Error struct {
	Code    diag.Code
	Message string
	Span    lexer.Span
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) ToDiagnostic() *diag.Diagnostic {
	return diag.New(diag.StageMapper, e.Code, diag.Span{
		Path: e.Span.Path, Line: e.Span.Line, Column: e.Span.Column,
	}, "%s", e.Message)
}

// ImportKey identifies one imported name as SPEC_FULL.md §9 resolves
// spec.md's under-specified "position information on an imports list"
// open question: a (importPath, originalName) pair. The span of each
// imported name is carried by its own ast.ImportedName rather than a
// position bolted onto a parallel list.
type ImportKey struct {
	ImportPath   string
	OriginalName string
}

// ImportEdge is one resolved `from "path" import …` declaration.
type ImportEdge struct {
	Decl   *ast.ImportDecl
	Module *Module // the already-mapped imported module
}

// Module is one file's symbol table plus its resolved import edges, in
// declaration order (spec.md §5: lookup traverses imports in the
// declaration order of the `from … import …` statements).
type Module struct {
	Path    string
	File    *ast.File
	Symbols map[string]*Symbol
	Imports []ImportEdge
	Tests   []*ast.FuncDecl
}

// Loader resolves an import path relative to the module that names it
// into an already-parsed, not-yet-mapped File. The driver supplies this;
// mapper.Map calls it once per import declaration, and the Mapper's own
// memoisation (keyed by the returned File's Path) maps each file once.
type Loader func(fromPath, importPath string) (*ast.File, error)

// Mapper holds the module-memoisation cache spec.md §4.3 and
// SPEC_FULL.md §4.3 require: a diamond-shaped import graph maps each
// distinct file exactly once.
type Mapper struct {
	load  Loader
	cache map[string]*Module
}

func New(load Loader) *Mapper {
	return &Mapper{load: load, cache: map[string]*Module{}}
}

// Map builds (or returns the memoised) Module for file.
func (m *Mapper) Map(file *ast.File) (*Module, *Error) {
	if mod, ok := m.cache[file.Path]; ok {
		return mod, nil
	}
	mod := &Module{Path: file.Path, File: file, Symbols: map[string]*Symbol{}}
	m.cache[file.Path] = mod

	for _, d := range file.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			if n.IsTest {
				mod.Tests = append(mod.Tests, n)
				continue
			}
			if err := mod.declare(n.Name, FnSym, n); err != nil {
				return nil, err
			}

		case *ast.TypeDecl:
			kind := TypeSym
			if len(n.Generics) > 0 {
				kind = GenericTypeSym
			}
			if err := mod.declare(n.Name, kind, n); err != nil {
				return nil, err
			}

		case *ast.GlobalVarDecl:
			if err := mod.declare(n.Name, GlobalVarSym, n); err != nil {
				return nil, err
			}

		case *ast.ImportDecl:
			imported, loadErr := m.load(file.Path, n.Path)
			if loadErr != nil {
				return nil, &Error{
					Code:    diag.CodeMapUnresolvedImport,
					Message: fmt.Sprintf("cannot load import %q: %s", n.Path, loadErr),
					Span:    n.Pos(),
					Cause:   errors.Wrap(loadErr, "mapper: loading import"),
				}
			}
			impMod, err := m.Map(imported)
			if err != nil {
				return nil, err
			}
			mod.Imports = append(mod.Imports, ImportEdge{Decl: n, Module: impMod})
		}
	}
	return mod, nil
}

// declare installs name in the module map, enforcing spec.md §4.3's
// reserved-identifier and first-declaration-wins duplicate checks.
func (mod *Module) declare(name string, kind SymbolKind, decl ast.Decl) *Error {
	if reservedNames[name] {
		return &Error{
			Code:    diag.CodeMapReservedIdentifier,
			Message: fmt.Sprintf("%q is a reserved primitive type name and cannot be redeclared", name),
			Span:    decl.Pos(),
		}
	}
	if existing, ok := mod.Symbols[name]; ok {
		return &Error{
			Code: diag.CodeMapDuplicateDeclaration,
			Message: fmt.Sprintf("%q is already declared at %s", name, existing.Decl.Pos()),
			Span: decl.Pos(),
		}
	}
	mod.Symbols[name] = &Symbol{Kind: kind, Name: name, Module: mod, Decl: decl}
	return nil
}

// Resolve looks up name in mod's own symbols, then — if not found — in
// each `import *` edge in declaration order, per spec.md §5's determinism
// rule. A name found in more than one `import *` source is a
// duplicate-declaration error raised at the point of conflict, not at
// either import's declaration site, since the mapper (which runs per
// module, before any cross-module lookup is attempted) cannot see the
// conflict until something asks for the name.
func (mod *Module) Resolve(name string) (*Symbol, *Error) {
	if sym, ok := mod.Symbols[name]; ok {
		return sym, nil
	}
	var found *Symbol
	var foundVia string
	for _, edge := range mod.Imports {
		if edge.Decl.All {
			if sym, ok := edge.Module.Symbols[name]; ok {
				if found != nil && found != sym {
					return nil, &Error{
						Code: diag.CodeMapDuplicateDeclaration,
						Message: fmt.Sprintf(
							"%q is ambiguous: imported via 'import *' from both %q and %q",
							name, foundVia, edge.Decl.Path),
						Span: edge.Decl.Pos(),
					}
				}
				found, foundVia = sym, edge.Decl.Path
			}
			continue
		}
		for _, imported := range edge.Decl.Names {
			if imported.Alias == name {
				if sym, ok := edge.Module.Symbols[imported.Name]; ok {
					return sym, nil
				}
				return nil, &Error{
					Code:    diag.CodeMapUnresolvedImport,
					Message: fmt.Sprintf("%q has no member %q", edge.Decl.Path, imported.Name),
					Span:    imported.Span,
				}
			}
		}
	}
	if found != nil {
		return found, nil
	}
	return nil, nil
}
