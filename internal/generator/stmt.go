package generator

import (
	"github.com/zpp-lang/zppc/internal/ast"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/ir"
	"github.com/zpp-lang/zppc/internal/mapper"
	"github.com/zpp-lang/zppc/internal/types"
)

// lowerBlock lowers stmts into the current block, in a fresh child scope.
// It stops lowering (but does not error) once the current block has
// already been terminated by an earlier statement (return/break/continue):
// spec.md's dead-block pruning pass removes whatever would otherwise
// follow, so there is nothing for the statement lowerer itself to reject.
func (g *Generator) lowerBlock(mod *mapper.Module, stmts []ast.Stmt) *Error {
	g.sc = newScope(g.sc)
	defer g.popScope()
	return g.lowerStmts(mod, stmts)
}

// popScope restores the parent scope, flushing whatever defers the popped
// scope itself registered first. Ground truth: pop_scope (gen.py:1857-1860)
// unconditionally calls evaluate_defer_nodes() before every scope pop, no
// matter how that scope's block already ended.
func (g *Generator) popScope() {
	s := g.sc
	g.sc = s.parent
	g.flushDefers(s)
}

// flushDefers runs s's own deferred statements, last-registered-first, and
// clears them so a later runDefersTo walking back through s (from an
// enclosing return) does not invoke them a second time. If the current
// block was already terminated by a nested return/break/continue, the
// terminator is detached first and reattached after, so the defers land
// ahead of it rather than after a terminator instruction — mirroring
// evaluate_defer_nodes' per-node detach/reattach (gen.py:1613-1624).
func (g *Generator) flushDefers(s *scope) {
	if len(s.defers) == 0 {
		return
	}
	term := g.cur.Entry.DetachTerminator()
	for i := len(s.defers) - 1; i >= 0; i-- {
		s.defers[i].run()
	}
	s.defers = nil
	if term != nil {
		g.cur.Entry.Reattach(term)
	}
}

func (g *Generator) lowerStmts(mod *mapper.Module, stmts []ast.Stmt) *Error {
	for _, s := range stmts {
		if g.cur.Entry.IsTerminated() {
			return nil
		}
		if err := g.lowerStmt(mod, s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) lowerStmt(mod *mapper.Module, s ast.Stmt) *Error {
	switch n := s.(type) {
	case *ast.PassStmt:
		return nil
	case *ast.ReturnStmt:
		return g.lowerReturn(mod, n)
	case *ast.IfStmt:
		return g.lowerIf(mod, n)
	case *ast.WhileStmt:
		return g.lowerWhile(mod, n)
	case *ast.ForStmt:
		return g.lowerFor(mod, n)
	case *ast.BreakStmt:
		loop := g.sc.nearestLoop()
		if loop == nil {
			return semErr(diag.CodeSemBreakContinueOutsideLoop, n.Pos(), "break outside a loop")
		}
		ir.NewBuilder(g.cur.Entry).Br(loop.breakTarget)
		return nil
	case *ast.ContinueStmt:
		loop := g.sc.nearestLoop()
		if loop == nil {
			return semErr(diag.CodeSemBreakContinueOutsideLoop, n.Pos(), "continue outside a loop")
		}
		ir.NewBuilder(g.cur.Entry).Br(loop.continueTarget)
		return nil
	case *ast.MatchStmt:
		return g.lowerMatch(mod, n)
	case *ast.TryStmt:
		return g.lowerTry(mod, n)
	case *ast.DeferStmt:
		return g.lowerDefer(mod, n)
	case *ast.VarDeclStmt:
		return g.lowerVarDecl(mod, n)
	case *ast.AssignStmt:
		return g.lowerAssign(mod, n)
	case *ast.ExprStmt:
		_, t, _, err := g.evalExpr(mod, n.Value, nil)
		if err != nil {
			return err
		}
		if t.Kind != types.KindVoid {
			return semErr(diag.CodeSemUndiscardedExpression, n.Pos(), "expression result is not discarded")
		}
		return nil
	default:
		return semErr(diag.CodeSemTypeMismatch, s.Pos(), "unsupported statement")
	}
}

func (g *Generator) lowerReturn(mod *mapper.Module, n *ast.ReturnStmt) *Error {
	if n.Value == nil {
		g.runDefersTo(nil)
		ir.NewBuilder(g.cur.Entry).RetVoid()
		return nil
	}
	v, _, _, err := g.evalExpr(mod, n.Value, g.cur.RetType)
	if err != nil {
		return err
	}
	g.runDefersTo(nil)
	ir.NewBuilder(g.cur.Entry).Ret(v)
	return nil
}

// runDefersTo runs every deferred statement registered from the current
// scope up to (and not including) stopAt, innermost-scope-first and
// last-registered-first within each scope: the LIFO order spec.md §4.6
// requires. stopAt == nil runs all the way to the function's own scope.
func (g *Generator) runDefersTo(stopAt *scope) {
	for s := g.sc; s != nil && s != stopAt; s = s.parent {
		for i := len(s.defers) - 1; i >= 0; i-- {
			s.defers[i].run()
		}
		s.defers = nil
	}
}

func (g *Generator) lowerDefer(mod *mapper.Module, n *ast.DeferStmt) *Error {
	sc := g.sc
	body := n.Body
	if n.Stmt != nil {
		body = []ast.Stmt{n.Stmt}
	}
	// Detach/reattach (spec.md §9): defers lower into whatever block is
	// current *at the point they run*, not at the point they're declared,
	// so capture the statements and re-enter the generator later.
	sc.defers = append(sc.defers, deferredStmt{run: func() {
		g.lowerStmts(mod, body)
	}})
	return nil
}

func (g *Generator) lowerIf(mod *mapper.Module, n *ast.IfStmt) *Error {
	joinBlock := g.cur.Fn.NewBlock("")
	anyFallsThrough := false

	for _, br := range n.Branches {
		if br.Cond == nil {
			if err := g.lowerBlock(mod, br.Body); err != nil {
				return err
			}
			if !g.cur.Entry.IsTerminated() {
				ir.NewBuilder(g.cur.Entry).Br(joinBlock)
				anyFallsThrough = true
			}
			g.cur.Entry = joinBlock
			return nil
		}
		cv, _, _, err := g.evalExpr(mod, br.Cond, types.Int(1, false))
		if err != nil {
			return err
		}
		thenBlock := g.cur.Fn.NewBlock("")
		elseBlock := g.cur.Fn.NewBlock("")
		ir.NewBuilder(g.cur.Entry).CondBr(cv, thenBlock, elseBlock)

		g.cur.Entry = thenBlock
		if err := g.lowerBlock(mod, br.Body); err != nil {
			return err
		}
		if !g.cur.Entry.IsTerminated() {
			ir.NewBuilder(g.cur.Entry).Br(joinBlock)
			anyFallsThrough = true
		}
		g.cur.Entry = elseBlock
	}
	// No `else` arm closed the chain: the final implicit else falls
	// through to the join block.
	if !g.cur.Entry.IsTerminated() {
		ir.NewBuilder(g.cur.Entry).Br(joinBlock)
		anyFallsThrough = true
	}
	g.cur.Entry = joinBlock
	if !anyFallsThrough {
		joinBlock.MarkDead()
	}
	return nil
}

func (g *Generator) lowerWhile(mod *mapper.Module, n *ast.WhileStmt) *Error {
	checkBlock := g.cur.Fn.NewBlock("")
	bodyBlock := g.cur.Fn.NewBlock("")
	exitBlock := g.cur.Fn.NewBlock("")

	ir.NewBuilder(g.cur.Entry).Br(checkBlock)

	g.cur.Entry = checkBlock
	cv, _, _, err := g.evalExpr(mod, n.Cond, types.Int(1, false))
	if err != nil {
		return err
	}
	ir.NewBuilder(g.cur.Entry).CondBr(cv, bodyBlock, exitBlock)

	g.cur.Entry = bodyBlock
	g.sc = newScope(g.sc)
	g.sc.loop = &loopRecord{continueTarget: checkBlock, breakTarget: exitBlock}
	err = g.lowerStmts(mod, n.Body)
	g.popScope()
	if err != nil {
		return err
	}
	if !g.cur.Entry.IsTerminated() {
		ir.NewBuilder(g.cur.Entry).Br(checkBlock)
	}

	g.cur.Entry = exitBlock
	return nil
}

func (g *Generator) lowerFor(mod *mapper.Module, n *ast.ForStmt) *Error {
	g.sc = newScope(g.sc)
	defer g.popScope()

	if n.Init != nil {
		if err := g.lowerStmt(mod, n.Init); err != nil {
			return err
		}
	}

	checkBlock := g.cur.Fn.NewBlock("")
	bodyBlock := g.cur.Fn.NewBlock("")
	stepBlock := g.cur.Fn.NewBlock("")
	exitBlock := g.cur.Fn.NewBlock("")

	ir.NewBuilder(g.cur.Entry).Br(checkBlock)

	g.cur.Entry = checkBlock
	if n.Cond != nil {
		cv, _, _, err := g.evalExpr(mod, n.Cond, types.Int(1, false))
		if err != nil {
			return err
		}
		ir.NewBuilder(g.cur.Entry).CondBr(cv, bodyBlock, exitBlock)
	} else {
		ir.NewBuilder(g.cur.Entry).Br(bodyBlock)
	}

	g.cur.Entry = bodyBlock
	g.sc = newScope(g.sc)
	g.sc.loop = &loopRecord{continueTarget: stepBlock, breakTarget: exitBlock}
	err := g.lowerStmts(mod, n.Body)
	g.popScope()
	if err != nil {
		return err
	}
	if !g.cur.Entry.IsTerminated() {
		ir.NewBuilder(g.cur.Entry).Br(stepBlock)
	}

	g.cur.Entry = stepBlock
	if n.Step != nil {
		if err := g.lowerStmt(mod, n.Step); err != nil {
			return err
		}
	}
	if !g.cur.Entry.IsTerminated() {
		ir.NewBuilder(g.cur.Entry).Br(checkBlock)
	}

	g.cur.Entry = exitBlock
	return nil
}

func (g *Generator) lowerMatch(mod *mapper.Module, n *ast.MatchStmt) *Error {
	subjV, subjT, _, err := g.evalExpr(mod, n.Subject, nil)
	if err != nil {
		return err
	}
	joinBlock := g.cur.Fn.NewBlock("")
	anyFallsThrough := false

	var nextCheck *ir.Block
	for _, c := range n.Cases {
		if c.IsElse {
			if err := g.lowerBlock(mod, c.Body); err != nil {
				return err
			}
			if !g.cur.Entry.IsTerminated() {
				ir.NewBuilder(g.cur.Entry).Br(joinBlock)
				anyFallsThrough = true
			}
			continue
		}
		bodyBlock := g.cur.Fn.NewBlock("")
		nextCheck = g.cur.Fn.NewBlock("")

		cond, condErr := g.matchCaseCond(mod, subjV, subjT, c)
		if condErr != nil {
			return condErr
		}
		ir.NewBuilder(g.cur.Entry).CondBr(cond, bodyBlock, nextCheck)

		g.cur.Entry = bodyBlock
		if err := g.lowerBlock(mod, c.Body); err != nil {
			return err
		}
		if !g.cur.Entry.IsTerminated() {
			ir.NewBuilder(g.cur.Entry).Br(joinBlock)
			anyFallsThrough = true
		}
		g.cur.Entry = nextCheck
	}
	if !g.cur.Entry.IsTerminated() {
		ir.NewBuilder(g.cur.Entry).Br(joinBlock)
		anyFallsThrough = true
	}
	g.cur.Entry = joinBlock
	if !anyFallsThrough {
		joinBlock.MarkDead()
	}
	return nil
}

func (g *Generator) matchCaseCond(mod *mapper.Module, subjV ir.Value, subjT *types.RealType, c ast.MatchCase) (ir.Value, *Error) {
	var cond ir.Value
	b := ir.NewBuilder(g.cur.Entry)
	for _, ve := range c.Values {
		v, _, _, err := g.evalExpr(mod, ve, subjT)
		if err != nil {
			return nil, err
		}
		eq := b.ICmp(ir.IEq, subjV, v)
		if subjT.Kind == types.KindFloat {
			eq = b.FCmp(ir.FOeq, subjV, v)
		}
		if cond == nil {
			cond = eq
		} else {
			cond = b.Or(cond, eq)
		}
	}
	return cond, nil
}
