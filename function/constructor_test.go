package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/vm"
)

type point struct {
	X int
	Y int
}

func (p *point) Move(dx, dy int) *point {
	p.X += dx
	p.Y += dy
	return p
}

func newPoint(x, y int) *point { return &point{X: x, Y: y} }

func TestConstructor_PostHook(t *testing.T) {
	ctx := newCtx(t)
	cls := ctx.RegisterClass("Point")

	ctor, err := New(ctx, "Point", Constructor(cls, newPoint))
	require.NoError(t, err)
	assert.True(t, ctor.IsConstructor())
	assert.Equal(t, uint32(2), ctor.Length())

	proto, err := ctx.ClassPrototype(cls)
	require.NoError(t, err)
	got, err := ctor.Prototype()
	require.NoError(t, err)
	assert.Same(t, proto, got)
	assert.True(t, proto.Get("constructor").StrictEquals(vm.FunctionOf(ctor)))

	a, ok := AdapterOf(ctor)
	require.True(t, ok)
	assert.True(t, a.IsConstructor())
}

func TestConstructor_ConstructMode(t *testing.T) {
	ctx := newCtx(t)
	cls := ctx.RegisterClass("Point")
	ctor, err := New(ctx, "Point", Constructor(cls, newPoint))
	require.NoError(t, err)

	move, err := New(ctx, "move", Method((*point).Move))
	require.NoError(t, err)
	classProto, err := ctx.ClassPrototype(cls)
	require.NoError(t, err)
	classProto.Set("move", vm.FunctionOf(move))

	v, err := ctx.Construct(vm.FunctionOf(ctor), vm.Int(1), vm.Int(2))
	require.NoError(t, err)
	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Same(t, classProto, obj.Proto())
	assert.Equal(t, vm.Int(1), obj.Get("x"))

	p, ok := obj.Opaque().(*point)
	require.True(t, ok)

	_, err = ctx.Call(obj.Get("move"), v, vm.Int(10), vm.Int(10))
	require.NoError(t, err)
	assert.Equal(t, point{X: 11, Y: 12}, *p)
}

func TestConstructor_NewTargetPrototypeWins(t *testing.T) {
	ctx := newCtx(t)
	cls := ctx.RegisterClass("Point")
	ctor, err := New(ctx, "Point", Constructor(cls, newPoint))
	require.NoError(t, err)

	sub := ctx.NewFunction("Sub", 0, nil)
	subProto := ctx.NewObject()
	sub.SetPrototype(subProto)

	v, err := call(t, ctx, ctor, vm.FunctionOf(sub), vm.Int(0), vm.Int(0))
	require.NoError(t, err)
	obj, _ := v.AsObject()
	assert.Same(t, subProto, obj.Proto())

	noProto := ctx.NewFunction("NoProto", 0, nil)
	_, err = call(t, ctx, ctor, vm.FunctionOf(noProto), vm.Int(0), vm.Int(0))
	assert.True(t, errors.HasKind(err, errors.KindNotFound))
}

func TestConstructor_PlainCallUsesClassPrototype(t *testing.T) {
	ctx := newCtx(t)
	cls := ctx.RegisterClass("Point")
	ctor, err := New(ctx, "Point", Constructor(cls, newPoint))
	require.NoError(t, err)

	v, err := ctx.Call(vm.FunctionOf(ctor), vm.Undefined(), vm.Int(3), vm.Int(4))
	require.NoError(t, err)
	obj, _ := v.AsObject()
	proto, _ := ctx.ClassPrototype(cls)
	assert.Same(t, proto, obj.Proto())
}

func TestConstructor_NonObjectResult(t *testing.T) {
	ctx := newCtx(t)
	cls := ctx.RegisterClass("Num")
	ctor, err := New(ctx, "Num", Constructor(cls, func(n int) int { return n }))
	require.NoError(t, err)

	_, err = ctx.Construct(vm.FunctionOf(ctor), vm.Int(1))
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindShape, e.Kind)
	assert.Equal(t, errors.PhaseIntoJS, e.Phase)
	assert.Equal(t, "Num", e.JSType)
}

func TestConstructor_UnregisteredClass(t *testing.T) {
	ctx := newCtx(t)
	other := newCtx(t)
	cls := other.RegisterClass("Elsewhere")

	_, err := New(ctx, "Elsewhere", Constructor(cls, newPoint))
	assert.True(t, errors.HasKind(err, errors.KindNotFound))
}

func TestAnalyze_ShapeViolations(t *testing.T) {
	cls := &vm.Class{}

	tests := []struct {
		name     string
		callable any
	}{
		{"not a func", 42},
		{"nil", nil},
		{"nil func", (func())(nil)},
		{"ctx not first", func(a int, ctx vm.Ctx) {}},
		{"this after arg", func(a int, this This[int]) {}},
		{"two receivers", func(a This[int], b This[int]) {}},
		{"rest not last", func(r Rest[int], a int) {}},
		{"variadic rest", func(r ...Rest[int]) {}},
		{"three results", func() (int, int, error) { return 0, 0, nil }},
		{"second result not error", func() (int, int) { return 0, 0 }},
		{"method without receiver", Method(func() {})},
		{"method with This", Method(func(this This[int]) {})},
		{"constructor with This", Constructor(cls, func(this This[int]) int { return 0 })},
		{"constructor as method", Constructor(cls, Method(func(p *point) int { return 0 }))},
		{"constructor without result", Constructor(cls, func() error { return nil })},
		{"pointer to This", func(r *This[int]) int { return 0 }},
		{"pointer to Rest", func(r *Rest[int]) {}},
		{"struct embedding This", func(r embedsThis) int { return 0 }},
		{"struct embedding This after ctx", func(ctx vm.Ctx, r embedsThis) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.callable)
			require.Error(t, err)
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.PhaseBind, e.Phase)
		})
	}
}

type embedsThis struct {
	This[int]
}

func TestNew_WrapperLookalikes(t *testing.T) {
	ctx := newCtx(t)

	tests := []struct {
		name     string
		callable any
	}{
		{"pointer to This", func(r *This[int]) int { return r.Value }},
		{"pointer to Rest", func(r *Rest[int]) int { return len(*r) }},
		{"struct embedding This", func(r embedsThis) int { return r.Value }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fn *vm.Function
			var err error
			require.NotPanics(t, func() { fn, err = New(ctx, "f", tt.callable) })
			assert.Nil(t, fn)
			assert.True(t, errors.HasKind(err, errors.KindShape))
		})
	}
}

func TestAnalyze_Len(t *testing.T) {
	tests := []struct {
		name     string
		callable any
		want     uint32
	}{
		{"empty", func() {}, 0},
		{"ctx only", func(vm.Ctx) {}, 0},
		{"ctx this args", func(vm.Ctx, This[int], int, string) {}, 2},
		{"rest", func(int, Rest[string]) {}, 1},
		{"variadic", func(...int) {}, 0},
		{"method", Method(func(p *point, dx int) {}), 1},
		{"method after ctx", Method(func(ctx vm.Ctx, p *point, dx, dy int) {}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Analyze(tt.callable)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Len())
		})
	}
}
