package parser

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/lexer"
)

// parseType parses a single type expression: a named (optionally
// generic-instantiated) reference, a pointer, a fixed-length array or
// vector, a struct or union field list, or a function signature.
func (p *Parser) parseType() (ast.TypeExpr, *Error) {
	span := p.span()
	switch p.cur().Kind {
	case lexer.STAR:
		p.advance()
		mut := false
		if p.at(lexer.MUT) {
			mut = true
			p.advance()
		}
		target, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.PointerType{Base: ast.NewBase(span), Mut: mut, Target: target}, nil

	case lexer.LBRACKET:
		if p.peekAt(1).Kind == lexer.ID && p.peekAt(2).Kind == lexer.COLON {
			return p.parseUnionType()
		}
		p.advance()
		length, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ID); err != nil {
			// the literal keyword "x" is lexed as a plain identifier
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return &ast.ArrayType{Base: ast.NewBase(span), Length: length, Elem: elem}, nil

	case lexer.LT:
		p.advance()
		length, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ID); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.GT); err != nil {
			return nil, err
		}
		return &ast.VectorType{Base: ast.NewBase(span), Length: length, Elem: elem}, nil

	case lexer.LPAREN:
		p.advance()
		fields, err := p.parseTypeFieldList(lexer.RPAREN)
		if err != nil {
			return nil, err
		}
		return &ast.StructType{Base: ast.NewBase(span), Fields: fields}, nil

	case lexer.FN:
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		var args []ast.TypeExpr
		for !p.at(lexer.RPAREN) {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ARROW); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.FnType{Base: ast.NewBase(span), Args: args, Ret: ret}, nil

	case lexer.ID:
		name, err := p.expect(lexer.ID)
		if err != nil {
			return nil, err
		}
		nt := &ast.NamedType{Base: ast.NewBase(span), Name: name.Value}
		if p.at(lexer.LBRACKET) && !p.cur().IsOnNewLine {
			p.advance()
			for !p.at(lexer.RBRACKET) {
				arg, err := p.parseType()
				if err != nil {
					return nil, err
				}
				nt.Args = append(nt.Args, arg)
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
		return nt, nil

	default:
		return nil, p.errorf("expected a type, got %s %q", p.cur().Kind, p.cur().Value)
	}
}

// parseUnionType parses `[field: T, …]`, the union spelling that shares
// its opening bracket with ArrayType/generic args; callers that know the
// context is a union (e.g. a TypeDecl body starting with a field name
// followed by ':') should call this directly instead of parseType.
func (p *Parser) parseUnionType() (*ast.UnionType, *Error) {
	span := p.span()
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	fields, err := p.parseTypeFieldList(lexer.RBRACKET)
	if err != nil {
		return nil, err
	}
	return &ast.UnionType{Base: ast.NewBase(span), Fields: fields}, nil
}
