package wasmmod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/module"
	"github.com/wippyai/jsbind/vm"
)

// arithWasm exports:
//
//	add   (i32, i32) -> i32
//	mul64 (i64, i64) -> i64
//	half  (f64) -> f64
//	nop   ()
//	vec   (v128)      not bindable
var arithWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x19, 0x05, 0x60,
	0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e, 0x60,
	0x01, 0x7c, 0x01, 0x7c, 0x60, 0x00, 0x00, 0x60, 0x01, 0x7b, 0x00, 0x03,
	0x06, 0x05, 0x00, 0x01, 0x02, 0x03, 0x04, 0x07, 0x22, 0x05, 0x03, 0x61,
	0x64, 0x64, 0x00, 0x00, 0x05, 0x6d, 0x75, 0x6c, 0x36, 0x34, 0x00, 0x01,
	0x04, 0x68, 0x61, 0x6c, 0x66, 0x00, 0x02, 0x03, 0x6e, 0x6f, 0x70, 0x00,
	0x03, 0x03, 0x76, 0x65, 0x63, 0x00, 0x04, 0x0a, 0x26, 0x05, 0x07, 0x00,
	0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01,
	0x7e, 0x0b, 0x0e, 0x00, 0x20, 0x00, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0xe0, 0x3f, 0xa2, 0x0b, 0x02, 0x00, 0x0b, 0x02, 0x00, 0x0b,
}

func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	return ctx, rt
}

func newVM(t *testing.T) vm.Ctx {
	t.Helper()
	rt := vm.NewRuntime(nil)
	t.Cleanup(func() { _ = rt.Close() })
	return rt.NewContext().Ctx()
}

func TestCompile_Exports(t *testing.T) {
	ctx, rt := newRuntime(t)

	m, err := Compile(ctx, rt, "arith", arithWasm)
	require.NoError(t, err)
	defer m.Close(ctx)

	var names []string
	for _, e := range m.Exports() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"add", "half", "mul64", "nop"}, names)
	assert.Equal(t, "arith", m.Name())

	add, ok := m.Export("add")
	require.True(t, ok)
	assert.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, add.Params)
	assert.Equal(t, "(func $add (param i32 i32) (result i32))", add.Signature())

	nop, ok := m.Export("nop")
	require.True(t, ok)
	assert.Equal(t, "(func $nop)", nop.Signature())

	_, ok = m.Export("vec")
	assert.False(t, ok)
}

func TestCompile_Invalid(t *testing.T) {
	ctx, rt := newRuntime(t)
	_, err := Compile(ctx, rt, "junk", []byte{0x00, 0x61, 0x73})
	require.Error(t, err)
	assert.Equal(t, errors.PhaseLoad, err.(*errors.Error).Phase)
}

func TestModule_ImportAndCall(t *testing.T) {
	ctx, rt := newRuntime(t)
	vmctx := newVM(t)

	wm, err := Compile(ctx, rt, "arith", arithWasm)
	require.NoError(t, err)
	defer wm.Close(ctx)

	module.Register(vmctx, "arith", wm.Def(ctx))
	m, err := module.Import(vmctx, "arith")
	require.NoError(t, err)

	add, err := m.Get("add")
	require.NoError(t, err)
	fn, ok := add.AsFunction()
	require.True(t, ok)
	assert.Equal(t, uint32(2), fn.Length())

	res, err := vmctx.Call(add, vm.Undefined(), vm.Int(40), vm.Int(2))
	require.NoError(t, err)
	assert.Equal(t, vm.Int(42), res)

	mul, err := m.Get("mul64")
	require.NoError(t, err)
	res, err = vmctx.Call(mul, vm.Undefined(), vm.Float(1<<20), vm.Float(1<<20))
	require.NoError(t, err)
	assert.Equal(t, vm.Float(1<<40), res)

	half, err := module.GetAs[func(float64) (float64, error)](m, "half")
	assert.Error(t, err, "engine functions do not convert to Go funcs")
	assert.Nil(t, half)

	halfV, err := m.Get("half")
	require.NoError(t, err)
	res, err = vmctx.Call(halfV, vm.Undefined(), vm.Int(5))
	require.NoError(t, err)
	assert.Equal(t, vm.Float(2.5), res)

	nop, err := m.Get("nop")
	require.NoError(t, err)
	res, err = vmctx.Call(nop, vm.Undefined())
	require.NoError(t, err)
	assert.True(t, res.IsUndefined())

	_, err = vmctx.Call(add, vm.Undefined(), vm.Int(1))
	assert.True(t, errors.HasKind(err, errors.KindArity))
}

func TestModule_InstantiateOnce(t *testing.T) {
	ctx, rt := newRuntime(t)
	wm, err := Compile(ctx, rt, "arith", arithWasm)
	require.NoError(t, err)
	defer wm.Close(ctx)

	a, err := wm.Instantiate(ctx)
	require.NoError(t, err)
	b, err := wm.Instantiate(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestModule_InstantiateFailure(t *testing.T) {
	ctx, rt := newRuntime(t)
	vmctx := newVM(t)

	wm, err := Compile(ctx, rt, "arith", arithWasm)
	require.NoError(t, err)
	require.NoError(t, rt.Close(ctx))

	module.Register(vmctx, "arith", wm.Def(ctx))
	_, err = module.Import(vmctx, "arith")
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindInstantiation))
}
