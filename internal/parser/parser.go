// Package parser implements the recursive-descent, indentation-sensitive
// parser described in spec.md §4.2: tokens in, untyped ast.File out.
package parser

import (
	"fmt"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/lexer"
)

// Error is the single fatal parse error a Parser can produce. There is no
// recovery: the first syntactic mismatch stops parsing, per spec.md §4.2.
type Error struct {
	Message string
	Span    lexer.Span
}

func (e *Error) Error() string { return e.Message }

// ToDiagnostic converts a parser Error into the shared diag.Diagnostic.
func (e *Error) ToDiagnostic() *diag.Diagnostic {
	return diag.New(diag.StageParser, diag.CodeParserUnexpectedToken, diag.Span{
		Path: e.Span.Path, Line: e.Span.Line, Column: e.Span.Column,
	}, "%s", e.Message)
}

// Parser holds the token cursor and nothing else: it is pure recursive
// descent over an already-lexed token slice, with no backtracking.
type Parser struct {
	path string
	toks []lexer.Token
	pos  int
}

// New builds a Parser over a Lex()-produced token slice.
func New(toks []lexer.Token, path string) *Parser {
	return &Parser{path: path, toks: toks}
}

// Parse lexes nothing itself — callers run the Lexer first — and returns
// the parsed File or the first fatal Error.
func Parse(toks []lexer.Token, path string) (*ast.File, *Error) {
	p := New(toks, path)
	decls, err := p.parseFile()
	if err != nil {
		return nil, err
	}
	return &ast.File{Path: path, Decls: decls}, nil
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) at(kind lexer.TokenKind) bool {
	return p.cur().Kind == kind
}

func (p *Parser) span() lexer.Span {
	t := p.cur()
	return lexer.Span{Path: t.Span.Path, Line: t.Span.Line, Column: t.Span.Column}
}

func (p *Parser) errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Span: p.span()}
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, *Error) {
	if !p.at(kind) {
		return lexer.Token{}, p.errorf("expected %s, got %s %q", kind, p.cur().Kind, p.cur().Value)
	}
	return p.advance(), nil
}

// parseFile parses every top-level declaration until EOF.
func (p *Parser) parseFile() ([]ast.Decl, *Error) {
	var decls []ast.Decl
	for !p.at(lexer.EOF) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// parseBlock parses the `:` and its indented statement block, requiring
// every statement to sit at the same indent, strictly greater than
// contextIndent, per spec.md §4.2's indentation rule. The caller passes
// the indent of the statement that owns the block (the "opener").
func (p *Parser) parseBlock(contextIndent int) ([]ast.Stmt, *Error) {
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if !p.cur().IsOnNewLine {
		// A single inline statement is allowed directly after ':' for
		// bodies that fit on one line is NOT part of spec.md's grammar —
		// the block must start on a new line.
		return nil, p.errorf("expected an indented block after ':'")
	}
	blockIndent := p.cur().Indent
	if blockIndent <= contextIndent {
		return nil, p.errorf("expected indent greater than %d, got %d", contextIndent, blockIndent)
	}

	var stmts []ast.Stmt
	for {
		tok := p.cur()
		if tok.Kind == lexer.EOF {
			break
		}
		if tok.IsOnNewLine {
			if tok.Indent < blockIndent {
				break
			}
			if tok.Indent > blockIndent {
				return nil, p.errorf("unexpected indent: block is at indent %d", blockIndent)
			}
		}
		stmt, err := p.parseStmt(blockIndent)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}
