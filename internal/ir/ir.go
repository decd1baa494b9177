// Package ir is the only package permitted to import
// github.com/llir/llvm. It adapts that library to the narrow
// module/function/block/builder contract spec.md §6 assumes of its
// backend IR, so the rest of the compiler never names an LLVM type
// directly and a future backend swap only touches this package.
package ir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Value is the adapter's re-export of the backend value type, so callers
// outside this package never need to import github.com/llir/llvm
// themselves to hold a reference to an IR value.
type Value = value.Value

// Type is likewise a re-export of the backend type type.
type Type = types.Type

// Module wraps an LLVM module plus the content-uniquing tables spec.md §5
// requires for global strings and external declarations.
type Module struct {
	M *ir.Module

	strings map[string]*ir.Global
	externs map[string]*ir.Func
}

func NewModule() *Module {
	return &Module{M: ir.NewModule(), strings: map[string]*ir.Global{}, externs: map[string]*ir.Func{}}
}

func (m *Module) String() string { return m.M.String() }

// NewFunc declares a function with the given name, return type and
// parameter types, returning its Function wrapper with no blocks yet.
func (m *Module) NewFunc(name string, ret types.Type, paramNames []string, paramTypes []types.Type) *Function {
	params := make([]*ir.Param, len(paramTypes))
	for i, t := range paramTypes {
		n := ""
		if i < len(paramNames) {
			n = paramNames[i]
		}
		params[i] = ir.NewParam(n, t)
	}
	f := m.M.NewFunc(name, ret, params...)
	return &Function{F: f}
}

// Extern declares (uniqued by name) an external function, used by the
// `internal_call!`/`extern_call!` builtins.
func (m *Module) Extern(name string, ret types.Type, argTypes []types.Type) *Function {
	if f, ok := m.externs[name]; ok {
		return &Function{F: f}
	}
	params := make([]*ir.Param, len(argTypes))
	for i, t := range argTypes {
		params[i] = ir.NewParam("", t)
	}
	f := m.M.NewFunc(name, ret, params...)
	f.Linkage = enum.LinkageExternal
	m.externs[name] = f
	return &Function{F: f}
}

// GlobalString uniques a `\0`-terminated string constant by content and
// returns a pointer to its first byte.
func (m *Module) GlobalString(s string) value.Value {
	g, ok := m.strings[s]
	if !ok {
		data := constant.NewCharArrayFromString(s + "\x00")
		g = m.M.NewGlobalDef(fmt.Sprintf(".str.%d", len(m.strings)), data)
		g.Linkage = enum.LinkagePrivate
		g.Immutable = true
		m.strings[s] = g
	}
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(g.ContentType, g, zero, zero)
}

// Function wraps an LLVM function definition.
type Function struct {
	F *ir.Func
}

func (f *Function) Param(i int) value.Value { return f.F.Params[i] }

func (f *Function) NewBlock(name string) *Block {
	return &Block{B: f.F.NewBlock(name)}
}

// Prune removes every block unreachable from the function's first block
// (the allocas block the Function Generator always creates first), per
// spec.md §4.7's "dead blocks ... are removed" step. It walks Br/CondBr
// successors only: Ret/RetVoid/unreachable terminators have none, which
// is the entire successor surface the generator ever emits.
func (f *Function) Prune() {
	if len(f.F.Blocks) == 0 {
		return
	}
	reachable := map[*ir.Block]bool{}
	var walk func(b *ir.Block)
	walk = func(b *ir.Block) {
		if b == nil || reachable[b] {
			return
		}
		reachable[b] = true
		switch t := b.Term.(type) {
		case *ir.TermBr:
			walk(t.Target)
		case *ir.TermCondBr:
			walk(t.TargetTrue)
			walk(t.TargetFalse)
		}
	}
	walk(f.F.Blocks[0])
	kept := f.F.Blocks[:0]
	for _, b := range f.F.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		}
	}
	f.F.Blocks = kept
}

// Block wraps an LLVM basic block and exposes the two predicates spec.md
// §6 requires for dead-block pruning.
type Block struct {
	B    *ir.Block
	dead bool
}

func (b *Block) IsTerminated() bool { return b.B.Term != nil }

// IsDead reports whether the generator has marked b unreachable with
// MarkDead. llir/llvm itself tracks no predecessor information; the
// generator marks only the join block of an if/match that no branch
// reaches, and Prune computes reachability on its own without this flag.
func (b *Block) IsDead() bool { return b.dead }

func (b *Block) MarkDead() { b.dead = true }

// Terminator returns the block's terminator instruction, or nil.
func (b *Block) Terminator() ir.Terminator { return b.B.Term }

// DetachTerminator removes and returns the block's terminator so deferred
// statements can be lowered after it, per spec.md §9's defer/terminator
// note; nil if the block has none yet.
func (b *Block) DetachTerminator() ir.Terminator {
	t := b.B.Term
	b.B.Term = nil
	return t
}

// Reattach restores a previously detached terminator.
func (b *Block) Reattach(t ir.Terminator) { b.B.Term = t }

// Builder issues instructions into a single block.
type Builder struct {
	Block *Block
}

func NewBuilder(b *Block) *Builder { return &Builder{Block: b} }

func (bd *Builder) b() *ir.Block { return bd.Block.B }

func (bd *Builder) Alloca(t types.Type) value.Value { return bd.b().NewAlloca(t) }
func (bd *Builder) Load(t types.Type, ptr value.Value) value.Value {
	return bd.b().NewLoad(t, ptr)
}
func (bd *Builder) Store(v, ptr value.Value) { bd.b().NewStore(v, ptr) }
func (bd *Builder) Bitcast(v value.Value, to types.Type) value.Value {
	return bd.b().NewBitCast(v, to)
}

func (bd *Builder) GEPInbounds(elem types.Type, ptr value.Value, indices ...value.Value) value.Value {
	inst := bd.b().NewGetElementPtr(elem, ptr, indices...)
	inst.InBounds = true
	return inst
}

func (bd *Builder) InsertValue(x, elem value.Value, indices ...uint64) value.Value {
	return bd.b().NewInsertValue(x, elem, indices...)
}
func (bd *Builder) ExtractValue(x value.Value, indices ...uint64) value.Value {
	return bd.b().NewExtractValue(x, indices...)
}

func (bd *Builder) Add(x, y value.Value) value.Value  { return bd.b().NewAdd(x, y) }
func (bd *Builder) Sub(x, y value.Value) value.Value  { return bd.b().NewSub(x, y) }
func (bd *Builder) Mul(x, y value.Value) value.Value  { return bd.b().NewMul(x, y) }
func (bd *Builder) SDiv(x, y value.Value) value.Value { return bd.b().NewSDiv(x, y) }
func (bd *Builder) UDiv(x, y value.Value) value.Value { return bd.b().NewUDiv(x, y) }
func (bd *Builder) SRem(x, y value.Value) value.Value { return bd.b().NewSRem(x, y) }
func (bd *Builder) URem(x, y value.Value) value.Value { return bd.b().NewURem(x, y) }
func (bd *Builder) FAdd(x, y value.Value) value.Value { return bd.b().NewFAdd(x, y) }
func (bd *Builder) FSub(x, y value.Value) value.Value { return bd.b().NewFSub(x, y) }
func (bd *Builder) FMul(x, y value.Value) value.Value { return bd.b().NewFMul(x, y) }
func (bd *Builder) FDiv(x, y value.Value) value.Value { return bd.b().NewFDiv(x, y) }
func (bd *Builder) FRem(x, y value.Value) value.Value { return bd.b().NewFRem(x, y) }
func (bd *Builder) Neg(x value.Value) value.Value     { return bd.b().NewSub(constant.NewInt(x.Type().(*types.IntType), 0), x) }
func (bd *Builder) FNeg(x value.Value) value.Value    { return bd.b().NewFNeg(x) }

func (bd *Builder) Or(x, y value.Value) value.Value  { return bd.b().NewOr(x, y) }
func (bd *Builder) And(x, y value.Value) value.Value { return bd.b().NewAnd(x, y) }
func (bd *Builder) Xor(x, y value.Value) value.Value { return bd.b().NewXor(x, y) }

// ICmpPred enumerates the signed/unsigned-flavoured integer comparisons
// spec.md §6 names as `icmp_signed`/`icmp_unsigned`.
type ICmpPred int

const (
	IEq ICmpPred = iota
	INeq
	ISlt
	ISgt
	ISle
	ISge
	IUlt
	IUgt
	IUle
	IUge
)

var iCmpPreds = map[ICmpPred]enum.IPred{
	IEq: enum.IPredEQ, INeq: enum.IPredNE,
	ISlt: enum.IPredSLT, ISgt: enum.IPredSGT, ISle: enum.IPredSLE, ISge: enum.IPredSGE,
	IUlt: enum.IPredULT, IUgt: enum.IPredUGT, IUle: enum.IPredULE, IUge: enum.IPredUGE,
}

func (bd *Builder) ICmp(pred ICmpPred, x, y value.Value) value.Value {
	return bd.b().NewICmp(iCmpPreds[pred], x, y)
}

// FCmpPred enumerates the ordered float comparisons (`fcmp_ordered`).
type FCmpPred int

const (
	FOeq FCmpPred = iota
	FOne
	FOlt
	FOgt
	FOle
	FOge
)

var fCmpPreds = map[FCmpPred]enum.FPred{
	FOeq: enum.FPredOEQ, FOne: enum.FPredONE,
	FOlt: enum.FPredOLT, FOgt: enum.FPredOGT, FOle: enum.FPredOLE, FOge: enum.FPredOGE,
}

func (bd *Builder) FCmp(pred FCmpPred, x, y value.Value) value.Value {
	return bd.b().NewFCmp(fCmpPreds[pred], x, y)
}

func (bd *Builder) ZExt(x value.Value, to types.Type) value.Value   { return bd.b().NewZExt(x, to) }
func (bd *Builder) SExt(x value.Value, to types.Type) value.Value   { return bd.b().NewSExt(x, to) }
func (bd *Builder) Trunc(x value.Value, to types.Type) value.Value  { return bd.b().NewTrunc(x, to) }
func (bd *Builder) FPExt(x value.Value, to types.Type) value.Value  { return bd.b().NewFPExt(x, to) }
func (bd *Builder) FPTrunc(x value.Value, to types.Type) value.Value { return bd.b().NewFPTrunc(x, to) }
func (bd *Builder) FPToSI(x value.Value, to types.Type) value.Value { return bd.b().NewFPToSI(x, to) }
func (bd *Builder) FPToUI(x value.Value, to types.Type) value.Value { return bd.b().NewFPToUI(x, to) }
func (bd *Builder) SIToFP(x value.Value, to types.Type) value.Value { return bd.b().NewSIToFP(x, to) }
func (bd *Builder) UIToFP(x value.Value, to types.Type) value.Value { return bd.b().NewUIToFP(x, to) }
func (bd *Builder) PtrToInt(x value.Value, to types.Type) value.Value {
	return bd.b().NewPtrToInt(x, to)
}
func (bd *Builder) IntToPtr(x value.Value, to types.Type) value.Value {
	return bd.b().NewIntToPtr(x, to)
}

// Incoming is one (value, predecessor block) pair of a phi instruction.
type Incoming struct {
	Value value.Value
	Block *Block
}

func (bd *Builder) Phi(t types.Type, incs ...Incoming) value.Value {
	irIncs := make([]*ir.Incoming, len(incs))
	for i, inc := range incs {
		irIncs[i] = ir.NewIncoming(inc.Value, inc.Block.B)
	}
	return bd.b().NewPhi(irIncs...)
}

func (bd *Builder) Br(target *Block) { bd.b().NewBr(target.B) }
func (bd *Builder) CondBr(cond value.Value, t, f *Block) {
	bd.b().NewCondBr(cond, t.B, f.B)
}

func (bd *Builder) Call(callee value.Value, args ...value.Value) value.Value {
	return bd.b().NewCall(callee, args...)
}

func (bd *Builder) Ret(v value.Value) { bd.b().NewRet(v) }
func (bd *Builder) RetVoid()          { bd.b().NewRet(nil) }

// Constant helpers, re-exported so the generator never imports llir/llvm
// itself to build a literal value.

func ConstInt(t types.Type, v int64) value.Value  { return constant.NewInt(t.(*types.IntType), v) }
func ConstUint(t types.Type, v uint64) value.Value {
	return constant.NewInt(t.(*types.IntType), int64(v))
}
func ConstFloat(t types.Type, v float64) value.Value {
	return constant.NewFloat(t.(*types.FloatType), v)
}
func ConstNullPtr(t types.Type) value.Value { return constant.NewNull(t.(*types.PointerType)) }
func ConstUndef(t types.Type) value.Value   { return constant.NewUndef(t) }

// Type constructors, likewise re-exported.

var (
	I1   = types.I1
	I8   = types.I8
	I16  = types.I16
	I32  = types.I32
	I64  = types.I64
	F32  = types.Float
	F64  = types.Double
	Void = types.Void
)

func PointerTo(t types.Type) types.Type    { return types.NewPointer(t) }
func ArrayOf(n int64, t types.Type) types.Type { return types.NewArray(uint64(n), t) }
func StructOf(fields ...types.Type) types.Type { return types.NewStruct(fields...) }
func FuncType(ret types.Type, args ...types.Type) types.Type { return types.NewFunc(ret, args...) }
