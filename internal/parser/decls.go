package parser

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/lexer"
)

func (p *Parser) parseDecl() (ast.Decl, *Error) {
	switch p.cur().Kind {
	case lexer.FN:
		return p.parseFuncDecl(false, "")
	case lexer.TYPE:
		return p.parseTypeDecl()
	case lexer.FROM:
		return p.parseImportDecl()
	case lexer.TEST:
		return p.parseTestDecl()
	case lexer.ID:
		return p.parseGlobalVarDecl()
	default:
		return nil, p.errorf("expected a top-level declaration, got %s %q", p.cur().Kind, p.cur().Value)
	}
}

// parseGenerics parses the optional `|T, U|` generic-parameter list that
// appears inside the argument-parenthesis position, before any argument.
// The LPAREN that opens the argument list must already be consumed.
func (p *Parser) parseGenerics() ([]string, *Error) {
	if !p.at(lexer.PIPE) {
		return nil, nil
	}
	p.advance()
	var names []string
	for {
		tok, err := p.expect(lexer.ID)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Value)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.PIPE); err != nil {
		return nil, err
	}
	return names, nil
}

// parseFuncArgList parses `(|generics|arg, arg, …)`, with the leading
// `(` already consumed by the caller.
func (p *Parser) parseFuncArgList() ([]string, []*ast.FuncArg, *Error) {
	generics, err := p.parseGenerics()
	if err != nil {
		return nil, nil, err
	}
	var args []*ast.FuncArg
	for !p.at(lexer.RPAREN) {
		span := p.span()
		out := false
		if p.at(lexer.OUT) {
			out = true
			p.advance()
		}
		name, err := p.expect(lexer.ID)
		if err != nil {
			return nil, nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, nil, err
		}
		args = append(args, &ast.FuncArg{
			Base: ast.NewBase(span), Name: name.Value, Type: typ, Out: out,
		})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, nil, err
	}
	return generics, args, nil
}

// parseFuncDecl parses `fn name(|generics|args) -> ret: body`. When
// isTest is true, name/testDesc come from the `test "desc":` form and
// there is no explicit name/args/ret clause.
func (p *Parser) parseFuncDecl(isTest bool, testDesc string) (*ast.FuncDecl, *Error) {
	span := p.span()
	if isTest {
		body, err := p.parseBlock(span.Column - 1)
		if err != nil {
			return nil, err
		}
		return &ast.FuncDecl{
			Base: ast.NewBase(span), IsTest: true, TestDesc: testDesc,
			RetType: &ast.NamedType{Base: ast.NewBase(span), Name: "void"},
			Body:    body,
		}, nil
	}

	p.advance() // fn
	name, err := p.expect(lexer.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	generics, args, err := p.parseFuncArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ARROW); err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(span.Column - 1)
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{
		Base: ast.NewBase(span), Name: name.Value, Generics: generics,
		Args: args, RetType: ret, Body: body,
	}, nil
}

func (p *Parser) parseTestDecl() (*ast.FuncDecl, *Error) {
	p.advance() // test
	desc, err := p.expect(lexer.STR)
	if err != nil {
		return nil, err
	}
	return p.parseFuncDecl(true, desc.Value)
}

// parseTypeFieldList parses `(f: T, …)` or `[f: T, …]` field lists shared
// by struct and union type expressions.
func (p *Parser) parseTypeFieldList(closer lexer.TokenKind) ([]ast.TypeField, *Error) {
	var fields []ast.TypeField
	for !p.at(closer) {
		name, err := p.expect(lexer.ID)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.TypeField{Name: name.Value, Type: typ})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(closer); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) parseTypeDecl() (*ast.TypeDecl, *Error) {
	span := p.span()
	p.advance() // type
	name, err := p.expect(lexer.ID)
	if err != nil {
		return nil, err
	}
	var generics []string
	if p.at(lexer.LBRACKET) {
		p.advance()
		for !p.at(lexer.RBRACKET) {
			tok, err := p.expect(lexer.ID)
			if err != nil {
				return nil, err
			}
			generics = append(generics, tok.Value)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &ast.TypeDecl{Base: ast.NewBase(span), Name: name.Value, Generics: generics, Type: typ}, nil
}

func (p *Parser) parseGlobalVarDecl() (*ast.GlobalVarDecl, *Error) {
	span := p.span()
	name, err := p.expect(lexer.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.GlobalVarDecl{Base: ast.NewBase(span), Name: name.Value, Type: typ, Init: init}, nil
}

func (p *Parser) parseImportDecl() (*ast.ImportDecl, *Error) {
	span := p.span()
	p.advance() // from
	path, err := p.expect(lexer.STR)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IMPORT); err != nil {
		return nil, err
	}
	if p.cur().Kind == lexer.STAR {
		p.advance()
		return &ast.ImportDecl{Base: ast.NewBase(span), Path: path.Value, All: true}, nil
	}
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	var names []ast.ImportedName
	for !p.at(lexer.RBRACKET) {
		nameSpan := p.span()
		name, err := p.expect(lexer.ID)
		if err != nil {
			return nil, err
		}
		alias := name.Value
		if p.at(lexer.ARROW) {
			p.advance()
			aliasTok, err := p.expect(lexer.ID)
			if err != nil {
				return nil, err
			}
			alias = aliasTok.Value
		}
		names = append(names, ast.ImportedName{
			Span: lexer.Span{Path: nameSpan.Path, Line: nameSpan.Line, Column: nameSpan.Column},
			Name: name.Value, Alias: alias,
		})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ImportDecl{Base: ast.NewBase(span), Path: path.Value, Names: names}, nil
}
