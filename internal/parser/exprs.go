package parser

import (
	"strconv"

	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/lexer"
)

// parseExpr is the entry point for expression parsing: a ternary
// `then if cond else else_` wraps everything else, which itself is the
// usual or/and/comparison/additive/multiplicative precedence ladder
// bottoming out at unary and postfix-chained primaries.
func (p *Parser) parseExpr() (ast.Expr, *Error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, *Error) {
	span := p.span()
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.IF) {
		return then, nil
	}
	p.advance()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ast.InlineIfExpr{Base: ast.NewBase(span), Then: then, Cond: cond, Else: els}, nil
}

func (p *Parser) parseOr() (ast.Expr, *Error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.OR) {
		span := p.span()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.NewBase(span), Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, *Error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.AND) {
		span := p.span()
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.NewBase(span), Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[lexer.TokenKind]ast.BinaryOp{
	lexer.EQ: ast.OpEq, lexer.NEQ: ast.OpNeq, lexer.LT: ast.OpLt,
	lexer.GT: ast.OpGt, lexer.LE: ast.OpLe, lexer.GE: ast.OpGe,
}

func (p *Parser) parseComparison() (ast.Expr, *Error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.cur().Kind]
		if !ok {
			break
		}
		span := p.span()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.NewBase(span), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, *Error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		span := p.span()
		op := ast.OpAdd
		if p.cur().Kind == lexer.MINUS {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.NewBase(span), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, *Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		span := p.span()
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.NewBase(span), Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary handles the prefix operators. A prefix operator may never
// follow a postfix-chained expression without parentheses — a chain like
// `x.ref.neg` doesn't exist; `-x.field` is the only nesting the grammar
// allows, which this recursive structure naturally produces.
func (p *Parser) parseUnary() (ast.Expr, *Error) {
	span := p.span()
	switch p.cur().Kind {
	case lexer.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.NewBase(span), Op: ast.UnaryNeg, Operand: operand}, nil
	case lexer.NOT:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.NewBase(span), Op: ast.UnaryNot, Operand: operand}, nil
	case lexer.REF:
		p.advance()
		op := ast.UnaryRef
		if p.at(lexer.MUT) {
			p.advance()
			op = ast.UnaryMutRef
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.NewBase(span), Op: op, Operand: operand}, nil
	case lexer.STAR:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.NewBase(span), Op: ast.UnaryDeref, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any chain of
// `.field`, `.ref`/`.mut`/`.*`, `.cast(T)`, `[index]`, `|T, …|` generic
// instantiation, and `(args)` suffixes, stopping at the first token that starts on a new line —
// spec.md's rule that a postfix chain never crosses a line break.
func (p *Parser) parsePostfix() (ast.Expr, *Error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for !p.cur().IsOnNewLine {
		span := p.span()
		switch p.cur().Kind {
		case lexer.DOT:
			p.advance()
			switch p.cur().Kind {
			case lexer.REF:
				p.advance()
				expr = &ast.UnaryExpr{Base: ast.NewBase(span), Op: ast.UnaryRef, Operand: expr, Chained: true}
			case lexer.MUT:
				p.advance()
				expr = &ast.UnaryExpr{Base: ast.NewBase(span), Op: ast.UnaryMutRef, Operand: expr, Chained: true}
			case lexer.STAR:
				p.advance()
				expr = &ast.UnaryExpr{Base: ast.NewBase(span), Op: ast.UnaryDeref, Operand: expr, Chained: true}
			case lexer.CAST:
				p.advance()
				if _, err := p.expect(lexer.LPAREN); err != nil {
					return nil, err
				}
				typ, err := p.parseType()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(lexer.RPAREN); err != nil {
					return nil, err
				}
				expr = &ast.CastExpr{Base: ast.NewBase(span), Value: expr, Type: typ}
			default:
				field, err := p.expect(lexer.ID)
				if err != nil {
					return nil, err
				}
				expr = &ast.DotExpr{Base: ast.NewBase(span), Left: expr, Field: field.Value}
			}

		case lexer.LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Base: ast.NewBase(span), Left: expr, Index: idx}

		case lexer.PIPE:
			p.advance()
			var targs []ast.TypeExpr
			for {
				t, err := p.parseType()
				if err != nil {
					return nil, err
				}
				targs = append(targs, t)
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(lexer.PIPE); err != nil {
				return nil, err
			}
			expr = &ast.GenericInstExpr{Base: ast.NewBase(span), Callee: expr, Args: targs}

		case lexer.LPAREN:
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Base: ast.NewBase(span), Callee: expr, Args: args}

		default:
			return expr, nil
		}
	}
	return expr, nil
}

// parseArgList parses comma-separated call arguments with the leading
// '(' already consumed, up to and including the closing ')'.
func (p *Parser) parseArgList() ([]ast.Expr, *Error) {
	var args []ast.Expr
	for !p.at(lexer.RPAREN) {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, *Error) {
	span := p.span()
	tok := p.cur()
	switch tok.Kind {
	case lexer.NUM:
		p.advance()
		return &ast.LitNumber{Base: ast.NewBase(span), Raw: tok.Value}, nil

	case lexer.FNUM:
		p.advance()
		return &ast.LitFloat{Base: ast.NewBase(span), Raw: tok.Value}, nil

	case lexer.STR:
		p.advance()
		return &ast.LitString{Base: ast.NewBase(span), Value: tok.Value}, nil

	case lexer.CHAR:
		p.advance()
		r, err := decodeCharLit(tok.Value)
		if err != nil {
			return nil, p.errorf("invalid character literal %q", tok.Value)
		}
		return &ast.LitChar{Base: ast.NewBase(span), Value: r}, nil

	case lexer.TRUE:
		p.advance()
		return &ast.LitBool{Base: ast.NewBase(span), Value: true}, nil

	case lexer.FALSE:
		p.advance()
		return &ast.LitBool{Base: ast.NewBase(span), Value: false}, nil

	case lexer.NONE:
		p.advance()
		return &ast.LitNone{Base: ast.NewBase(span)}, nil

	case lexer.UNDEFINED:
		p.advance()
		return &ast.LitUndefined{Base: ast.NewBase(span)}, nil

	case lexer.LBRACKET:
		p.advance()
		var elems []ast.Expr
		for !p.at(lexer.RBRACKET) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return &ast.ArrayInitExpr{Base: ast.NewBase(span), Elems: elems}, nil

	case lexer.LPAREN:
		if p.peekAt(1).Kind == lexer.ID && p.peekAt(2).Kind == lexer.COLON {
			return p.parseStructInit()
		}
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.ID:
		p.advance()
		if p.cur().Kind == lexer.BANG && !p.cur().IsOnNewLine {
			return p.parseInternalCall(span, tok.Value)
		}
		if isUpperIdent(tok.Value) {
			return &ast.EnumLiteral{Base: ast.NewBase(span), Name: tok.Value}, nil
		}
		return &ast.Ident{Base: ast.NewBase(span), Name: tok.Value}, nil

	default:
		return nil, p.errorf("expected an expression, got %s %q", tok.Kind, tok.Value)
	}
}

// parseInternalCall parses the `!(generics…)(args…)` suffix of
// `name!(...)(...)`, with name and its span already consumed.
func (p *Parser) parseInternalCall(span lexer.Span, name string) (*ast.InternalCallExpr, *Error) {
	p.advance() // '!'
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var generics []ast.TypeExpr
	for !p.at(lexer.RPAREN) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		generics = append(generics, t)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.at(lexer.LPAREN) {
		p.advance()
		a, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		args = a
	}
	return &ast.InternalCallExpr{Base: ast.NewBase(span), Name: name, Generics: generics, Args: args}, nil
}

func (p *Parser) parseStructInit() (*ast.StructInitExpr, *Error) {
	span := p.span()
	p.advance() // '('
	var fields []ast.StructInitField
	for !p.at(lexer.RPAREN) {
		fieldSpan := p.span()
		name, err := p.expect(lexer.ID)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructInitField{Span: fieldSpan, Name: name.Value, Expr: val})
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &ast.StructInitExpr{Base: ast.NewBase(span), Fields: fields}, nil
}

func isUpperIdent(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

// decodeCharLit decodes the already-unescaped rune stored in a CHAR
// token's Value (the lexer's readEscape has already resolved escapes
// such as \n and \t into the literal rune text before this ever runs),
// returning its first UTF-8 rune.
func decodeCharLit(s string) (rune, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		return r, nil
	}
	return 0, strconv.ErrSyntax
}
