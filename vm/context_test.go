package vm

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jsbind/errors"
)

func newTestCtx(t *testing.T) Ctx {
	t.Helper()
	return newTestCtxWith(t, nil)
}

func newTestCtxWith(t *testing.T, cfg *Config) Ctx {
	t.Helper()
	rt := NewRuntime(cfg)
	t.Cleanup(func() { _ = rt.Close() })
	return rt.NewContext().Ctx()
}

func sum(_ Ctx, _ Value, args []Value) (Value, error) {
	var total int32
	for _, a := range args {
		i, _ := a.AsInt()
		total += i
	}
	return Int(total), nil
}

func TestCtx_Call(t *testing.T) {
	ctx := newTestCtx(t)
	fn := ctx.NewFunction("sum", 2, sum)

	res, err := ctx.Call(FunctionOf(fn), Undefined(), Int(1), Int(2), Int(3))
	require.NoError(t, err)
	assert.Equal(t, Int(6), res)
	assert.Equal(t, "sum", fn.Name())
	assert.Equal(t, uint32(2), fn.Length())
}

func TestCtx_CallRejectsShortArgs(t *testing.T) {
	ctx := newTestCtx(t)
	called := false
	fn := ctx.NewFunction("f", 2, func(Ctx, Value, []Value) (Value, error) {
		called = true
		return Undefined(), nil
	})

	_, err := ctx.Call(FunctionOf(fn), Undefined(), Int(1))
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, errors.HasKind(err, errors.KindArity))
	assert.Contains(t, err.Error(), errors.NotEnoughArgsMessage)

	exc := ctx.Catch()
	require.NotNil(t, exc)
	obj, ok := exc.Value.AsObject()
	require.True(t, ok)
	assert.Contains(t, obj.Get("message").String(), errors.NotEnoughArgsMessage)
	assert.False(t, ctx.HasException())
}

func TestCtx_DisableArityCheck(t *testing.T) {
	ctx := newTestCtxWith(t, &Config{DisableArityCheck: true})
	fn := ctx.NewFunction("sum", 2, sum)

	res, err := ctx.Call(FunctionOf(fn), Undefined(), Int(4))
	require.NoError(t, err)
	assert.Equal(t, Int(4), res)
}

func TestCtx_CallNonFunction(t *testing.T) {
	ctx := newTestCtx(t)
	_, err := ctx.Call(Int(1), Undefined())
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindTypeMismatch))
}

func TestCtx_ErrorBecomesException(t *testing.T) {
	ctx := newTestCtx(t)
	boom := stderrors.New("boom")
	fn := ctx.NewFunction("f", 0, func(Ctx, Value, []Value) (Value, error) {
		return Undefined(), boom
	})

	_, err := ctx.Call(FunctionOf(fn), Undefined())
	require.Error(t, err)

	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "boom", exc.Message)
	assert.ErrorIs(t, err, boom)
	assert.True(t, ctx.HasException())
}

func TestCtx_ConstructPassesNewTarget(t *testing.T) {
	ctx := newTestCtx(t)
	var got Value
	fn := ctx.NewFunction("C", 0, func(_ Ctx, this Value, _ []Value) (Value, error) {
		got = this
		return ObjectOf(ctx.NewObject()), nil
	})

	_, err := ctx.Construct(FunctionOf(fn))
	require.Error(t, err, "not yet a constructor")

	fn.SetConstructor(true)
	_, err = ctx.Construct(FunctionOf(fn))
	require.NoError(t, err)
	assert.True(t, got.StrictEquals(FunctionOf(fn)))
}

func TestCtx_MaxCallDepth(t *testing.T) {
	ctx := newTestCtxWith(t, &Config{MaxCallDepth: 3})
	var fn *Function
	fn = ctx.NewFunction("rec", 0, func(ctx Ctx, _ Value, _ []Value) (Value, error) {
		return ctx.Call(FunctionOf(fn), Undefined())
	})

	_, err := ctx.Call(FunctionOf(fn), Undefined())
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindOverflow))
}

func TestFunction_Prototype(t *testing.T) {
	ctx := newTestCtx(t)
	fn := ctx.NewFunction("C", 0, sum)

	_, err := fn.Prototype()
	assert.True(t, errors.HasKind(err, errors.KindNotFound))

	fn.Set("prototype", Int(1))
	_, err = fn.Prototype()
	assert.True(t, errors.HasKind(err, errors.KindTypeMismatch))

	proto := ctx.NewObject()
	fn.SetPrototype(proto)
	got, err := fn.Prototype()
	require.NoError(t, err)
	assert.Same(t, proto, got)
}

func TestCtx_Classes(t *testing.T) {
	ctx := newTestCtx(t)
	cls := ctx.RegisterClass("Point")
	assert.Equal(t, "Point", cls.Name())

	proto, err := ctx.ClassPrototype(cls)
	require.NoError(t, err)
	assert.Same(t, ctx.ObjectPrototype(), proto.Proto())

	_, err = ctx.ClassPrototype(nil)
	assert.Error(t, err)

	other := newTestCtx(t)
	_, err = other.ClassPrototype(cls)
	assert.True(t, errors.HasKind(err, errors.KindNotFound))
}

func TestCtx_Atoms(t *testing.T) {
	ctx := newTestCtx(t)
	a := ctx.NewAtom("x")
	assert.Equal(t, a, ctx.NewAtom("x"))
	assert.NotEqual(t, a, ctx.NewAtom("y"))

	s, err := ctx.AtomString(a)
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = ctx.AtomString(0)
	assert.Error(t, err)
}

func TestContext_With(t *testing.T) {
	rt := NewRuntime(nil)
	defer rt.Close()
	c := rt.NewContext()

	err := c.With(func(ctx Ctx) error {
		assert.True(t, ctx.Valid())
		assert.Same(t, c, ctx.Context())
		ctx.Global().Set("answer", Int(42))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Int(42), c.global.Get("answer"))
}
