package parser

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/lexer"
)

// parseStmt dispatches a single statement at the current indent level.
// contextIndent is passed through to any nested parseBlock calls so their
// bodies are required to sit strictly deeper than this statement.
func (p *Parser) parseStmt(contextIndent int) (ast.Stmt, *Error) {
	switch p.cur().Kind {
	case lexer.PASS:
		span := p.span()
		p.advance()
		return &ast.PassStmt{Base: ast.NewBase(span)}, nil

	case lexer.RETURN:
		span := p.span()
		p.advance()
		if p.cur().IsOnNewLine {
			return &ast.ReturnStmt{Base: ast.NewBase(span)}, nil
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Base: ast.NewBase(span), Value: val}, nil

	case lexer.IF:
		return p.parseIfStmt(contextIndent)

	case lexer.WHILE:
		return p.parseWhileStmt(contextIndent)

	case lexer.FOR:
		return p.parseForStmt(contextIndent)

	case lexer.BREAK:
		span := p.span()
		p.advance()
		return &ast.BreakStmt{Base: ast.NewBase(span)}, nil

	case lexer.CONTINUE:
		span := p.span()
		p.advance()
		return &ast.ContinueStmt{Base: ast.NewBase(span)}, nil

	case lexer.MATCH:
		return p.parseMatchStmt(contextIndent)

	case lexer.TRY:
		return p.parseTryStmt(contextIndent)

	case lexer.DEFER:
		return p.parseDeferStmt(contextIndent)

	case lexer.DOTDOT:
		span := p.span()
		p.advance()
		if _, err := p.expect(lexer.ASSIGN); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Base: ast.NewBase(span), Op: ast.AssignSet, Discard: true, RExpr: rhs}, nil

	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseIfStmt(contextIndent int) (*ast.IfStmt, *Error) {
	span := p.span()
	var branches []ast.IfBranch

	branchSpan := p.span()
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(contextIndent)
	if err != nil {
		return nil, err
	}
	branches = append(branches, ast.IfBranch{Span: branchSpan, Cond: cond, Body: body})

	for p.at(lexer.ELIF) {
		bs := p.span()
		p.advance()
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		b, err := p.parseBlock(contextIndent)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.IfBranch{Span: bs, Cond: c, Body: b})
	}
	if p.at(lexer.ELSE) {
		bs := p.span()
		p.advance()
		b, err := p.parseBlock(contextIndent)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.IfBranch{Span: bs, Body: b})
	}
	return &ast.IfStmt{Base: ast.NewBase(span), Branches: branches}, nil
}

func (p *Parser) parseWhileStmt(contextIndent int) (*ast.WhileStmt, *Error) {
	span := p.span()
	p.advance() // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(contextIndent)
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Base: ast.NewBase(span), Cond: cond, Body: body}, nil
}

func (p *Parser) parseForStmt(contextIndent int) (*ast.ForStmt, *Error) {
	span := p.span()
	p.advance() // for

	var initStmt ast.Stmt
	if p.at(lexer.DOTDOT) {
		p.advance()
	} else {
		s, err := p.parseSimpleStmt()
		if err != nil {
			return nil, err
		}
		initStmt = s
	}
	if _, err := p.expect(lexer.COMMA); err != nil {
		return nil, err
	}

	var cond ast.Expr
	if p.at(lexer.DOTDOT) {
		p.advance()
	} else {
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.expect(lexer.COMMA); err != nil {
		return nil, err
	}

	var stepStmt ast.Stmt
	if p.at(lexer.DOTDOT) {
		p.advance()
	} else {
		s, err := p.parseSimpleStmt()
		if err != nil {
			return nil, err
		}
		stepStmt = s
	}

	body, err := p.parseBlock(contextIndent)
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Base: ast.NewBase(span), Init: initStmt, Cond: cond, Step: stepStmt, Body: body}, nil
}

func (p *Parser) parseMatchStmt(contextIndent int) (*ast.MatchStmt, *Error) {
	span := p.span()
	p.advance() // match
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if !p.cur().IsOnNewLine {
		return nil, p.errorf("expected an indented block of case arms after 'match … :'")
	}
	armIndent := p.cur().Indent
	if armIndent <= contextIndent {
		return nil, p.errorf("expected indent greater than %d, got %d", contextIndent, armIndent)
	}

	var cases []ast.MatchCase
	for {
		tok := p.cur()
		if tok.Kind == lexer.EOF {
			break
		}
		if tok.IsOnNewLine {
			if tok.Indent < armIndent {
				break
			}
			if tok.Indent > armIndent {
				return nil, p.errorf("unexpected indent in match block")
			}
		}
		caseSpan := p.span()
		if p.at(lexer.ELSE) {
			p.advance()
			body, err := p.parseBlock(armIndent)
			if err != nil {
				return nil, err
			}
			cases = append(cases, ast.MatchCase{Span: caseSpan, IsElse: true, Body: body})
			continue
		}
		if _, err := p.expect(lexer.CASE); err != nil {
			return nil, err
		}
		var values []ast.Expr
		for {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		body, err := p.parseBlock(armIndent)
		if err != nil {
			return nil, err
		}
		cases = append(cases, ast.MatchCase{Span: caseSpan, Values: values, Body: body})
	}
	return &ast.MatchStmt{Base: ast.NewBase(span), Subject: subject, Cases: cases}, nil
}

// parseTryStmt parses both desugarable forms of try, per spec.md §4.2:
//
//	try Expr                         (early-return form)
//	try Name: Type = Expr: Body      (named-variable form)
func (p *Parser) parseTryStmt(contextIndent int) (*ast.TryStmt, *Error) {
	span := p.span()
	p.advance() // try

	if p.cur().Kind == lexer.ID && p.peekAt(1).Kind == lexer.COLON {
		name, _ := p.expect(lexer.ID)
		p.advance() // ':'
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ASSIGN); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock(contextIndent)
		if err != nil {
			return nil, err
		}
		return &ast.TryStmt{Base: ast.NewBase(span), VarName: name.Value, VarType: typ, Value: value, Body: body}, nil
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.TryStmt{Base: ast.NewBase(span), Value: value}, nil
}

// parseDeferStmt parses `defer stmt` or `defer: body`.
func (p *Parser) parseDeferStmt(contextIndent int) (*ast.DeferStmt, *Error) {
	span := p.span()
	p.advance() // defer
	if p.at(lexer.COLON) {
		body, err := p.parseBlock(contextIndent)
		if err != nil {
			return nil, err
		}
		return &ast.DeferStmt{Base: ast.NewBase(span), Body: body}, nil
	}
	stmt, err := p.parseSimpleStmt()
	if err != nil {
		return nil, err
	}
	return &ast.DeferStmt{Base: ast.NewBase(span), Stmt: stmt}, nil
}

// parseSimpleStmt parses a var declaration, assignment, or bare expression
// statement — the forms that can also appear as a for-loop init/step
// clause without consuming a trailing block.
func (p *Parser) parseSimpleStmt() (ast.Stmt, *Error) {
	span := p.span()

	if p.cur().Kind == lexer.ID && p.peekAt(1).Kind == lexer.COLON {
		name, _ := p.expect(lexer.ID)
		p.advance() // ':'
		var typ ast.TypeExpr
		if !p.at(lexer.ASSIGN) {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			typ = t
		}
		if _, err := p.expect(lexer.ASSIGN); err != nil {
			return nil, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.VarDeclStmt{Base: ast.NewBase(span), Name: name.Value, Type: typ, Init: init}, nil
	}

	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOpFor(p.cur().Kind); ok {
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Base: ast.NewBase(span), Op: op, LExpr: lhs, RExpr: rhs}, nil
	}
	return &ast.ExprStmt{Base: ast.NewBase(span), Value: lhs}, nil
}

func assignOpFor(kind lexer.TokenKind) (ast.AssignOp, bool) {
	switch kind {
	case lexer.ASSIGN:
		return ast.AssignSet, true
	case lexer.PLUSEQ:
		return ast.AssignAddSet, true
	case lexer.MINUSEQ:
		return ast.AssignSubSet, true
	case lexer.STAREQ:
		return ast.AssignMulSet, true
	default:
		return "", false
	}
}
