package generator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/generator"
	"github.com/zpp-lang/zppc/internal/lexer"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/parser"
)

// noImports is a Loader for sources with no `from … import …` decls.
func noImports(fromPath, importPath string) (*ast.File, error) { return nil, nil }

// compile lexes, parses, maps and generates src as "t.zpp", failing the
// test on the first error from any stage, and returns the finished
// Generator so callers can inspect gen.IR.String().
func compile(t *testing.T, src string) *generator.Generator {
	t.Helper()
	toks, lerr := lexer.New(src, "t.zpp").Lex()
	require.Nil(t, lerr)

	file, perr := parser.Parse(toks, "t.zpp")
	require.Nil(t, perr)

	mm := mapper.New(noImports)
	mod, merr := mm.Map(file)
	require.Nil(t, merr)

	gen := generator.New(generator.Options{}, zap.NewNop().Sugar())
	gerr := gen.GenerateMain(mod)
	require.Nil(t, gerr)
	return gen
}

// TestConstantFoldingProducesLiteralReturn exercises spec property 7: a
// fully-constant arithmetic expression folds away entirely, leaving a
// bare `ret i32 14` with no add/mul instructions in the body.
func TestConstantFoldingProducesLiteralReturn(t *testing.T) {
	gen := compile(t, "fn main(argc: u32, argv: **u8) -> i32:\n  return 2 + 3 * 4\n")
	ir := gen.IR.String()
	assert.Contains(t, ir, "ret i32 14")
	assert.NotContains(t, ir, "mul")
	assert.NotContains(t, ir, "add")
}

// TestMainForwarding exercises spec.md §4.7: the user's own `main` is
// mangled, and a separate externally-linked C `main` forwards to it.
func TestMainForwarding(t *testing.T) {
	gen := compile(t, "fn main(argc: u32, argv: **u8) -> i32:\n  return 0\n")
	ir := gen.IR.String()
	assert.Contains(t, ir, "@main(")
	assert.Contains(t, ir, "t.zpp::main")
	assert.Contains(t, ir, "call i32")
}

// TestDeferRunsLastRegisteredFirst exercises spec property 8: two defers
// in the same scope run in reverse registration order.
func TestDeferRunsLastRegisteredFirst(t *testing.T) {
	gen := compile(t, "fn main(argc: u32, argv: **u8) -> i32:\n"+
		"  x : i32 = 0\n"+
		"  defer x = 1\n"+
		"  defer x = 2\n"+
		"  return 0\n")
	ir := gen.IR.String()
	first := strings.Index(ir, "store i32 2")
	second := strings.Index(ir, "store i32 1")
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second)
}

// TestDeferNotRunEarlyByBreak exercises the break/loop-scope interaction:
// a function-level defer must not fire when a nested loop is exited via
// `break`, only once, at the function's real return.
func TestDeferNotRunEarlyByBreak(t *testing.T) {
	gen := compile(t, "fn main(argc: u32, argv: **u8) -> i32:\n"+
		"  x : i32 = 100\n"+
		"  defer x += 2\n"+
		"  while True:\n"+
		"    if True:\n"+
		"      break\n"+
		"  return x\n")
	ir := gen.IR.String()
	assert.Equal(t, 1, strings.Count(ir, "add i32"))
}

// TestTryEarlyReturnBranchesOnNonZero exercises the early-return `try`
// desugaring: `try expr` becomes an implicit `if expr != 0: return expr`,
// so main must contain two ret sites in i32 (the try's own early exit and
// the function's trailing return); with mayFail's return and the C `main`
// wrapper's, the module holds four.
func TestTryEarlyReturnBranchesOnNonZero(t *testing.T) {
	gen := compile(t, "fn mayFail() -> i32:\n  return 1\n"+
		"fn main(argc: u32, argv: **u8) -> i32:\n"+
		"  try mayFail()\n"+
		"  return 0\n")
	ir := gen.IR.String()
	assert.Contains(t, ir, "t.zpp::mayFail")
	assert.Contains(t, ir, "ret i32 0")
	assert.GreaterOrEqual(t, strings.Count(ir, "ret i32"), 4)
}

// TestGenericMonomorphisationIsCachedBySymbolAndType exercises spec
// property 5: two calls to the same generic function at the same
// concrete type produce exactly one definition, not two.
func TestGenericMonomorphisationIsCachedBySymbolAndType(t *testing.T) {
	gen := compile(t, "fn id(|T|x: T) -> T:\n  return x\n"+
		"fn main(argc: u32, argv: **u8) -> i32:\n"+
		"  a : i32 = id|i32|(1)\n"+
		"  b : i32 = id|i32|(2)\n"+
		"  return 0\n")
	ir := gen.IR.String()
	assert.Equal(t, 1, strings.Count(ir, "define i32 @\"t.zpp::id<i32>\""))
}
