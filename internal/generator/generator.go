// Package generator implements the Expression Evaluator, Statement
// Lowerer and Function Generator of spec.md §4.5–§4.7: it turns a mapped
// module's AST into a complete internal/ir module, performing type
// evaluation, constant folding, generic monomorphisation and CFG
// lowering along the way.
package generator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/lexer"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// Error is the single fatal type/semantic error the Generator can raise.
type Error struct {
	Stage   diag.Stage
	Code    diag.Code
	Message string
	Span    lexer.Span
}

func (e *Error) Error() string { return e.Message }

func (e *Error) ToDiagnostic() *diag.Diagnostic {
	return diag.New(e.Stage, e.Code, diag.Span{Path: e.Span.Path, Line: e.Span.Line, Column: e.Span.Column}, "%s", e.Message)
}

func typeErr(code diag.Code, span lexer.Span, format string, args ...any) *Error {
	return &Error{Stage: diag.StageType, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

func semErr(code diag.Code, span lexer.Span, format string, args ...any) *Error {
	return &Error{Stage: diag.StageSemantic, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// funcEntry is a function's generation state: both the non-generic cache
// entry and a generic instantiation's entry share this shape, per
// spec.md §4.7 ("partial tuple (proto, llvm_fn, allocas_builder) is
// exposed so recursive calls can resolve").
type funcEntry struct {
	Sym      *mapper.Symbol
	Proto    *ast.FuncDecl
	Fn       *ir.Function
	Allocas  *ir.Block
	Entry    *ir.Block
	Builder  *ir.Builder // builder over the allocas block, for local declarations
	RetType  *types.RealType
	ArgTypes []*types.RealType
	Generics map[string]*types.RealType // alias bindings, for a generic instantiation
	Mod      *mapper.Module
	done     bool
}

// genericKey identifies one monomorphisation: a symbol plus the joined
// identity of its concrete generic argument types.
type genericKey struct {
	Sym      *mapper.Symbol
	Generics string
}

// Options configures a compilation run.
type Options struct {
	Debug bool // is_debug_build!/is_release_build! intrinsic value
}

// Generator is the single, process-wide generation context shared by
// every module's Generator pass: one global output IR module, one type
// engine, one pair of function caches, keyed exactly as spec.md §4.7
// prescribes.
type Generator struct {
	Opts   Options
	IR     *ir.Module
	Engine *types.Engine
	Log    *zap.SugaredLogger

	funcCache    map[*mapper.Symbol]*funcEntry
	genericCache map[genericKey]*funcEntry
	libs         map[string]bool

	cur *funcEntry // the function currently being lowered
	sc  *scope
}

func New(opts Options, log *zap.SugaredLogger) *Generator {
	return &Generator{
		Opts:         opts,
		IR:           ir.NewModule(),
		Engine:       types.NewEngine(),
		Log:          log,
		funcCache:    map[*mapper.Symbol]*funcEntry{},
		genericCache: map[genericKey]*funcEntry{},
		libs:         map[string]bool{},
	}
}

// Libraries returns the set of external libraries recorded via
// `extern_call!`, in no particular order: the driver merges this with
// the manifest's own Link list before invoking the linker.
func (g *Generator) Libraries() []string {
	out := make([]string, 0, len(g.libs))
	for l := range g.libs {
		out = append(out, l)
	}
	return out
}

// GenerateMain is the entry point spec.md §2 describes: "The Generator
// for the root module begins by emitting main; it recursively triggers
// on-demand generation of every reachable function/...". rootMod must
// declare a fn_sym named "main".
func (g *Generator) GenerateMain(rootMod *mapper.Module) *Error {
	sym, ok := rootMod.Symbols["main"]
	if !ok || sym.Kind != mapper.FnSym {
		return semErr(diag.CodeSemInvalidMainSignature, lexer.Span{Path: rootMod.Path},
			"module %q declares no fn main", rootMod.Path)
	}
	entry, err := g.genFunc(sym, nil)
	if err != nil {
		return err
	}
	return g.genMainWrapper(entry)
}

// lookup resolves name starting from mod's own scope/module symbols, per
// spec.md §4.3/§5.
func (g *Generator) lookup(mod *mapper.Module, name string) (*mapper.Symbol, *Error) {
	sym, err := mod.Resolve(name)
	if err != nil {
		return nil, &Error{Stage: diag.StageMapper, Code: err.Code, Message: err.Message, Span: err.Span}
	}
	return sym, nil
}
