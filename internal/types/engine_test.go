package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zpp-lang/zppc/internal/types"
)

// TestRecursiveTypeEqualsItsOwnUnrolling exercises spec property 3: a
// recursive `type T = (next: *T, value: i32)` must equal its own
// unrolling once evaluated through the engine's placeholder fix-point.
func TestRecursiveTypeEqualsItsOwnUnrolling(t *testing.T) {
	e := types.NewEngine()
	key := types.Key{Sym: "T"}

	var eval func() *types.RealType
	eval = func() *types.RealType {
		self := e.EvalNamed(key, eval)
		return types.Struct([]types.Field{
			{Name: "next", Type: types.Ptr(false, self)},
			{Name: "value", Type: types.I32},
		})
	}

	rt := e.EvalNamed(key, eval)
	assert.Equal(t, types.KindStruct, rt.Kind)
	assert.True(t, types.Equal(rt, rt.Fields[0].Type.Target))
}

func TestInfiniteLayoutRejectedOnlyWithoutPointer(t *testing.T) {
	e := types.NewEngine()

	badKey := types.Key{Sym: "Bad"}
	var evalBad func() *types.RealType
	evalBad = func() *types.RealType {
		self := e.EvalNamed(badKey, evalBad)
		return types.Struct([]types.Field{{Name: "x", Type: self}})
	}
	bad := e.EvalNamed(badKey, evalBad)
	assert.True(t, types.HasInfiniteLayout(bad))

	goodKey := types.Key{Sym: "Good"}
	var evalGood func() *types.RealType
	evalGood = func() *types.RealType {
		self := e.EvalNamed(goodKey, evalGood)
		return types.Struct([]types.Field{{Name: "x", Type: types.Ptr(false, self)}})
	}
	good := e.EvalNamed(goodKey, evalGood)
	assert.False(t, types.HasInfiniteLayout(good))
}

func TestEqualityDistinguishesPointerMutabilityAndKinds(t *testing.T) {
	assert.False(t, types.Equal(types.Ptr(true, types.I32), types.Ptr(false, types.I32)))
	assert.False(t, types.Equal(types.I32, types.U32))
	assert.False(t, types.Equal(types.I32, types.F32))
	assert.True(t, types.Equal(types.GenericToInfer("T"), types.I64))
}
