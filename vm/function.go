package vm

import (
	"github.com/wippyai/jsbind/errors"
)

// NativeFunc is the uniform calling convention for native functions. this is
// the call receiver; in construct mode it is the new-target function.
type NativeFunc func(ctx Ctx, this Value, args []Value) (Value, error)

// Function is a callable engine object backed by a NativeFunc.
type Function struct {
	Object
	call        NativeFunc
	name        string
	length      uint32
	constructor bool
}

func (f *Function) Name() string { return f.name }

// Length is the declared minimum argument count.
func (f *Function) Length() uint32 { return f.length }

// IsConstructor reports whether the function may be called with new.
func (f *Function) IsConstructor() bool { return f.constructor }

// SetConstructor marks the function as construct-capable.
func (f *Function) SetConstructor(on bool) { f.constructor = on }

// Prototype returns the function's own "prototype" property, the object new
// instances are linked to.
func (f *Function) Prototype() (*Object, error) {
	v, ok := f.GetOwn("prototype")
	if !ok {
		return nil, errors.NotFound(errors.PhaseEngine, "prototype of function", f.name)
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, errors.New(errors.PhaseEngine, errors.KindTypeMismatch).
			JSType(v.TypeName()).
			Detail("prototype of %q is not an object", f.name).
			Build()
	}
	return obj, nil
}

// SetPrototype sets the function's "prototype" property.
func (f *Function) SetPrototype(proto *Object) {
	f.Set("prototype", ObjectOf(proto))
}
