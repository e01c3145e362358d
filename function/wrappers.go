package function

import (
	"reflect"
	"strings"

	"github.com/wippyai/jsbind/vm"
)

// This marks a parameter as the call receiver. The engine's this value is
// converted into Value.
type This[T any] struct {
	Value T
}

func (This[T]) thisElem() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Rest collects every remaining argument. It must be the last parameter.
type Rest[T any] []T

func (Rest[T]) restElem() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

type thisMarker interface{ thisElem() reflect.Type }

type restMarker interface{ restElem() reflect.Type }

var (
	ctxType        = reflect.TypeOf(vm.Ctx{})
	thisMarkerType = reflect.TypeOf((*thisMarker)(nil)).Elem()
	restMarkerType = reflect.TypeOf((*restMarker)(nil)).Elem()
	errorType      = reflect.TypeOf((*error)(nil)).Elem()

	wrapperPkg = reflect.TypeOf(This[int]{}).PkgPath()
)

// isThis reports whether t is an instantiation of This. Pointers to This and
// structs embedding it carry the marker method too but are not receivers.
func isThis(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() == wrapperPkg &&
		strings.HasPrefix(t.Name(), "This[") && t.Implements(thisMarkerType)
}

// isRest reports whether t is an instantiation of Rest.
func isRest(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.PkgPath() == wrapperPkg &&
		strings.HasPrefix(t.Name(), "Rest[") && t.Implements(restMarkerType)
}

// wrapperLike reports whether t carries a wrapper marker without being the
// wrapper itself.
func wrapperLike(t reflect.Type) bool {
	if isThis(t) || isRest(t) {
		return false
	}
	return t.Implements(thisMarkerType) || t.Implements(restMarkerType)
}

// Callable is a Go function together with binding options. Plain funcs can be
// passed wherever a Callable is accepted.
type Callable struct {
	fn      any
	class   *vm.Class
	method  bool
	mutable bool
}

func asCallable(fn any) Callable {
	if c, ok := fn.(Callable); ok {
		return c
	}
	return Callable{fn: fn}
}

// Method binds fn as a method: its first parameter after an optional vm.Ctx
// is the receiver, converted from the call's this value.
func Method(fn any) Callable {
	c := asCallable(fn)
	c.method = true
	return c
}

// Mut marks fn as mutable. A mutable callable runs exclusively; a call that
// arrives while it is running fails instead of re-entering it.
func Mut(fn any) Callable {
	c := asCallable(fn)
	c.mutable = true
	return c
}

// Constructor binds fn as the constructor of class. The value fn returns
// must convert to an object; it is linked to the class prototype.
func Constructor(class *vm.Class, fn any) Callable {
	c := asCallable(fn)
	c.class = class
	return c
}
