// Package ast defines the untyped syntax tree produced by internal/parser.
// Every node kind named in spec.md §3 has exactly one concrete Go type
// here; Node is a closed family dispatched with type switches, not an
// open Visitor hierarchy.
package ast

import "github.com/zpp-lang/zppc/internal/lexer"

// Node is implemented by every AST node. Pos reports the node's source
// position for diagnostics.
type Node interface {
	Pos() lexer.Span
	node()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmt()
}

// TypeExpr is implemented by every type-expression node.
type TypeExpr interface {
	Node
	typeExpr()
}

// Decl is implemented by every top-level declaration node.
type Decl interface {
	Node
	decl()
}

type Base struct{ Span lexer.Span }

func (b Base) Pos() lexer.Span { return b.Span }
func (Base) node()             {}

// NewBase builds a Base carrying span, for use in node literals.
func NewBase(span lexer.Span) Base { return Base{Span: span} }

// ---- File ----

// File is the root of one parsed module.
type File struct {
	Base
	Path  string
	Decls []Decl
}

// ---- Declarations ----

// FuncArg is a single function parameter: `name: T` or `out name: T`.
type FuncArg struct {
	Base
	Name string
	Type TypeExpr
	Out  bool
}

// FuncDecl is `fn name(|generics|args) -> ret: body`.
type FuncDecl struct {
	Base
	Name     string
	Generics []string
	Args     []*FuncArg
	RetType  TypeExpr
	Body     []Stmt
	IsTest   bool // from `test "desc": …`
	TestDesc string
}

func (*FuncDecl) decl() {}

// TypeField is one field of a struct/union type declaration.
type TypeField struct {
	Name string
	Type TypeExpr
}

// TypeDecl is `type Name[generics] = <type expr>`.
type TypeDecl struct {
	Base
	Name     string
	Generics []string
	Type     TypeExpr
}

func (*TypeDecl) decl() {}

// GlobalVarDecl is a top-level `name : T = expr`.
type GlobalVarDecl struct {
	Base
	Name string
	Type TypeExpr
	Init Expr
}

func (*GlobalVarDecl) decl() {}

// ImportedName is one entry of `from "path" import [name [-> alias], …]`.
type ImportedName struct {
	Span     lexer.Span
	Name     string
	Alias    string // equal to Name when no "-> alias" is given
}

// ImportDecl is `from "path" import *` (All == true) or
// `from "path" import [name [-> alias], …]`.
type ImportDecl struct {
	Base
	Path  string
	All   bool
	Names []ImportedName
}

func (*ImportDecl) decl() {}

// ---- Statements ----

// PassStmt is `pass`.
type PassStmt struct{ Base }

func (*PassStmt) stmt() {}

// ReturnStmt is `return [expr]`.
type ReturnStmt struct {
	Base
	Value Expr // nil when bare `return`
}

func (*ReturnStmt) stmt() {}

// IfBranch is one `if`/`elif`/`else` arm. Cond is nil for the `else` arm.
type IfBranch struct {
	Span lexer.Span
	Cond Expr
	Body []Stmt
}

// IfStmt is `if … elif … else …`.
type IfStmt struct {
	Base
	Branches []IfBranch
}

func (*IfStmt) stmt() {}

// WhileStmt is `while cond: body`.
type WhileStmt struct {
	Base
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) stmt() {}

// ForStmt is `for init, cond, step: body`. Init/Step are nil when the
// source wrote `..` for that clause.
type ForStmt struct {
	Base
	Init Stmt
	Cond Expr
	Step Stmt
	Body []Stmt
}

func (*ForStmt) stmt() {}

// BreakStmt is `break`.
type BreakStmt struct{ Base }

func (*BreakStmt) stmt() {}

// ContinueStmt is `continue`.
type ContinueStmt struct{ Base }

func (*ContinueStmt) stmt() {}

// MatchCase is one `case expr: body` arm, or the `else: body` arm when
// IsElse is true (Values is empty in that case).
type MatchCase struct {
	Span   lexer.Span
	Values []Expr
	IsElse bool
	Body   []Stmt
}

// MatchStmt is `match expr: case … else …`.
type MatchStmt struct {
	Base
	Subject Expr
	Cases   []MatchCase
}

func (*MatchStmt) stmt() {}

// TryStmt covers both desugarable forms of `try`:
//   try [Name: Type =] Expr [: Body]
// When Body is nil this is the early-return form; VarName is empty unless
// the named-variable form was used (which requires a Body).
type TryStmt struct {
	Base
	VarName string
	VarType TypeExpr
	Value   Expr
	Body    []Stmt // nil for the early-return form
}

func (*TryStmt) stmt() {}

// DeferStmt is `defer stmt` or `defer: body`.
type DeferStmt struct {
	Base
	Stmt Stmt   // single-statement form
	Body []Stmt // block form; mutually exclusive with Stmt
}

func (*DeferStmt) stmt() {}

// VarDeclStmt is a local `name : T = expr`.
type VarDeclStmt struct {
	Base
	Name string
	Type TypeExpr // nil when the type is to be inferred from Init
	Init Expr
}

func (*VarDeclStmt) stmt() {}

// AssignOp enumerates the compound-assignment operators.
type AssignOp string

const (
	AssignSet      AssignOp = "="
	AssignAddSet   AssignOp = "+="
	AssignSubSet   AssignOp = "-="
	AssignMulSet   AssignOp = "*="
)

// AssignStmt is `lexpr op rexpr` or the discard form `.. = rexpr`.
type AssignStmt struct {
	Base
	Op      AssignOp
	Discard bool
	LExpr   Expr // nil when Discard
	RExpr   Expr
}

func (*AssignStmt) stmt() {}

// ExprStmt wraps a bare expression used as a statement. The generator
// rejects this at the semantic stage unless the expression's type is
// void (spec.md §7: "undiscarded non-void expression used as statement").
type ExprStmt struct {
	Base
	Value Expr
}

func (*ExprStmt) stmt() {}

// ---- Expressions ----

// Ident is a bare identifier reference.
type Ident struct {
	Base
	Name string
}

func (*Ident) expr() {}

// LitNumber is an integer literal (spec.md: `num` token).
type LitNumber struct {
	Base
	Raw string
}

func (*LitNumber) expr() {}

// LitFloat is a floating literal (spec.md: `fnum` token).
type LitFloat struct {
	Base
	Raw string
}

func (*LitFloat) expr() {}

// LitChar is a character literal.
type LitChar struct {
	Base
	Value rune
}

func (*LitChar) expr() {}

// LitString is a string literal.
type LitString struct {
	Base
	Value string
}

func (*LitString) expr() {}

// LitBool is `True`/`False`.
type LitBool struct {
	Base
	Value bool
}

func (*LitBool) expr() {}

// LitNone is the `None` null-pointer literal.
type LitNone struct{ Base }

func (*LitNone) expr() {}

// LitUndefined is the `Undefined` literal.
type LitUndefined struct{ Base }

func (*LitUndefined) expr() {}

// EnumLiteral is a bare capitalised identifier used where a union/enum
// tag is expected; resolved against context by the generator.
type EnumLiteral struct {
	Base
	Name string
}

func (*EnumLiteral) expr() {}

// BinaryOp enumerates binary operators, lowest to highest precedence.
type BinaryOp string

const (
	OpOr  BinaryOp = "or"
	OpAnd BinaryOp = "and"

	OpEq  BinaryOp = "=="
	OpNeq BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpGt  BinaryOp = ">"
	OpLe  BinaryOp = "<="
	OpGe  BinaryOp = ">="

	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"

	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
)

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) expr() {}

// UnaryOp enumerates unary prefix operators.
type UnaryOp string

const (
	UnaryNeg   UnaryOp = "-"
	UnaryNot   UnaryOp = "not"
	UnaryRef   UnaryOp = "ref"
	UnaryMutRef UnaryOp = "refmut"
	UnaryDeref UnaryOp = "*"
)

// UnaryExpr is a prefix unary expression, or its postfix-chained
// equivalent (`.ref`/`.mut`/`.*`) with Chained set to true. spec.md's
// parser note: the postfix chained forms desugar into this same node.
type UnaryExpr struct {
	Base
	Op      UnaryOp
	Operand Expr
	Chained bool
}

func (*UnaryExpr) expr() {}

// CallExpr is `callee(args)`.
type CallExpr struct {
	Base
	Callee Expr
	Args   []Expr
}

func (*CallExpr) expr() {}

// InternalCallExpr is `name!(generics…)(args…)`.
type InternalCallExpr struct {
	Base
	Name     string
	Generics []TypeExpr
	Args     []Expr
}

func (*InternalCallExpr) expr() {}

// DotExpr is `left.field`.
type DotExpr struct {
	Base
	Left  Expr
	Field string
}

func (*DotExpr) expr() {}

// IndexExpr is `left[index]`.
type IndexExpr struct {
	Base
	Left  Expr
	Index Expr
}

func (*IndexExpr) expr() {}

// CastExpr is `expr.cast(T)`.
type CastExpr struct {
	Base
	Value Expr
	Type  TypeExpr
}

func (*CastExpr) expr() {}

// GenericInstExpr is `callee|T, …|`, an explicit generic instantiation
// applied to a function reference before a call.
type GenericInstExpr struct {
	Base
	Callee Expr
	Args   []TypeExpr
}

func (*GenericInstExpr) expr() {}

// InlineIfExpr is a ternary-style `a if cond else b` expression (used
// where spec.md's grammar allows an expression-position conditional;
// distinct from the statement-level IfStmt).
type InlineIfExpr struct {
	Base
	Then Expr
	Cond Expr
	Else Expr
}

func (*InlineIfExpr) expr() {}

// StructInitField is one `name: expr` entry of a struct literal.
type StructInitField struct {
	Span lexer.Span
	Name string
	Expr Expr
}

// StructInitExpr is `(field: value, …)`.
type StructInitExpr struct {
	Base
	Fields []StructInitField
}

func (*StructInitExpr) expr() {}

// UnionInitExpr is a struct-literal-shaped initialiser resolved against a
// union type context: exactly one field is set.
type UnionInitExpr struct {
	Base
	Field string
	Value Expr
}

func (*UnionInitExpr) expr() {}

// ArrayInitExpr is `[a, b, …]`.
type ArrayInitExpr struct {
	Base
	Elems []Expr
}

func (*ArrayInitExpr) expr() {}

// ---- Type expressions ----

// NamedType is a bare or generic-instantiated named type reference:
// `id` or `id[T, …]`.
type NamedType struct {
	Base
	Name string
	Args []TypeExpr
}

func (*NamedType) typeExpr() {}

// PointerType is `*[mut] T`.
type PointerType struct {
	Base
	Mut    bool
	Target TypeExpr
}

func (*PointerType) typeExpr() {}

// ArrayType is `[len x T]`, a fixed-length static array.
type ArrayType struct {
	Base
	Length Expr
	Elem   TypeExpr
}

func (*ArrayType) typeExpr() {}

// VectorType is `<len x T>`, the static-vector spelling of ArrayType.
type VectorType struct {
	Base
	Length Expr
	Elem   TypeExpr
}

func (*VectorType) typeExpr() {}

// StructType is `(field: T, …)`.
type StructType struct {
	Base
	Fields []TypeField
}

func (*StructType) typeExpr() {}

// UnionType is `[field: T, …]`.
type UnionType struct {
	Base
	Fields []TypeField
}

func (*UnionType) typeExpr() {}

// FnType is `fn(T, …) -> T`.
type FnType struct {
	Base
	Args []TypeExpr
	Ret  TypeExpr
}

func (*FnType) typeExpr() {}
