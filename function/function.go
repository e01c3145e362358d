package function

import (
	"github.com/wippyai/jsbind/vm"
)

// New binds callable as an engine function named name. The function's length
// is the callable's minimum arity.
func New(ctx vm.Ctx, name string, callable any) (*vm.Function, error) {
	a, err := NewAdapter(name, callable)
	if err != nil {
		return nil, err
	}
	return Bind(ctx, a)
}

// Bind creates the engine function for a prepared adapter and runs its post
// hook.
func Bind(ctx vm.Ctx, a *Adapter) (*vm.Function, error) {
	fn := ctx.NewFunction(a.name, a.Len(), func(ctx vm.Ctx, this vm.Value, args []vm.Value) (vm.Value, error) {
		return a.Call(ctx, this, NewArgs(args))
	})
	fn.SetOpaque(a)
	if err := a.Post(ctx, fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// AdapterOf returns the adapter behind a function created by New.
func AdapterOf(fn *vm.Function) (*Adapter, bool) {
	if fn == nil {
		return nil, false
	}
	a, ok := fn.Opaque().(*Adapter)
	return a, ok
}

// Func is a named callable that converts into an engine function, so it can
// be used wherever a Go value is converted into the engine, e.g. as a module
// export value.
type Func struct {
	callable any
	name     string
}

// NewFunc wraps callable under name.
func NewFunc(name string, callable any) Func {
	return Func{name: name, callable: callable}
}

func (f Func) Name() string { return f.name }

// IntoJS implements convert.Marshaler.
func (f Func) IntoJS(ctx vm.Ctx) (vm.Value, error) {
	fn, err := New(ctx, f.name, f.callable)
	if err != nil {
		return vm.Undefined(), err
	}
	return vm.FunctionOf(fn), nil
}
