package mapper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/lexer"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/parser"
)

func parseSrc(t *testing.T, path, src string) *ast.File {
	t.Helper()
	toks, lerr := lexer.New(src, path).Lex()
	require.Nil(t, lerr)
	file, perr := parser.Parse(toks, path)
	require.Nil(t, perr)
	return file
}

func TestReservedIdentifierRejected(t *testing.T) {
	file := parseSrc(t, "a.zpp", "type i32 = (x: i32)\n")
	m := mapper.New(func(string, string) (*ast.File, error) { return nil, nil })
	_, err := m.Map(file)
	require.NotNil(t, err)
	assert.Equal(t, "MAP_RESERVED_IDENTIFIER", string(err.Code))
}

func TestDuplicateDeclarationRejected(t *testing.T) {
	file := parseSrc(t, "a.zpp", "fn f() -> void:\n  pass\nfn f() -> void:\n  pass\n")
	m := mapper.New(func(string, string) (*ast.File, error) { return nil, nil })
	_, err := m.Map(file)
	require.NotNil(t, err)
	assert.Equal(t, "MAP_DUPLICATE_DECLARATION", string(err.Code))
}

// TestDiamondImportIsMappedOnce exercises SPEC_FULL.md §4.3's module
// memoisation: two distinct importers of the same file resolve to the
// identical *Module instance, and the shared file is mapped exactly once.
func TestDiamondImportIsMappedOnce(t *testing.T) {
	shared := parseSrc(t, "shared.zpp", "fn helper() -> void:\n  pass\n")
	a := parseSrc(t, "a.zpp", "from 'shared.zpp' import [helper]\n")
	b := parseSrc(t, "b.zpp", "from 'shared.zpp' import [helper]\n")
	root := parseSrc(t, "root.zpp", "from 'a.zpp' import [helper]\nfrom 'b.zpp' import [helper]\n")

	loadCount := 0
	load := func(fromPath, importPath string) (*ast.File, error) {
		loadCount++
		switch importPath {
		case "shared.zpp":
			return shared, nil
		case "a.zpp":
			return a, nil
		case "b.zpp":
			return b, nil
		}
		panic("unexpected import path: " + importPath)
	}

	m := mapper.New(load)
	rootMod, err := m.Map(root)
	require.Nil(t, err)
	require.Len(t, rootMod.Imports, 2)
	assert.Same(t, rootMod.Imports[0].Module.Imports[0].Module, rootMod.Imports[1].Module.Imports[0].Module)
	assert.Equal(t, 4, loadCount) // a and b once each, shared twice (via a and via b), yet mapped once
}
