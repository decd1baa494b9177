package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/lexer"
	"github.com/zpp-lang/zppc/internal/parser"
)

// fileLoader parses each distinct source file at most once, keyed by the
// root path as given or, for imports, by resolve's cleaned path (not made
// absolute), and supplies internal/mapper's Loader callback.
// It is the only piece of this driver that touches the filesystem for
// source resolution, per SPEC_FULL.md §4.10.
type fileLoader struct {
	cache map[string]*ast.File
}

func newFileLoader() *fileLoader {
	return &fileLoader{cache: map[string]*ast.File{}}
}

// resolve implements spec.md §6's `from "path" import …` rule: resolve
// importPath relative to the directory of fromPath, then filepath.Clean
// to collapse `.`/`..`.
func resolve(fromPath, importPath string) string {
	dir := filepath.Dir(fromPath)
	return filepath.Clean(filepath.Join(dir, importPath))
}

func (l *fileLoader) load(fromPath, importPath string) (*ast.File, error) {
	path := resolve(fromPath, importPath)
	return l.parseFile(path)
}

func (l *fileLoader) parseFile(path string) (*ast.File, error) {
	if f, ok := l.cache[path]; ok {
		return f, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	lx := lexer.New(string(src), path)
	toks, lerr := lx.Lex()
	if lerr != nil {
		return nil, lerr
	}

	file, perr := parser.Parse(toks, path)
	if perr != nil {
		return nil, perr
	}
	l.cache[path] = file
	return file, nil
}
