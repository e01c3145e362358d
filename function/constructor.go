package function

import (
	"reflect"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/vm"
)

// resolvePrototype picks the prototype for a new instance. Called with new,
// this is the new-target function and its prototype property wins; a plain
// call falls back to the class prototype.
func (a *Adapter) resolvePrototype(ctx vm.Ctx, this vm.Value) (*vm.Object, error) {
	if target, ok := this.AsFunction(); ok {
		return target.Prototype()
	}
	return ctx.ClassPrototype(a.class)
}

func (a *Adapter) finishConstruct(res vm.Value, goValue reflect.Value, proto *vm.Object) (vm.Value, error) {
	obj, ok := res.AsObject()
	if !ok {
		return vm.Undefined(), errors.New(errors.PhaseIntoJS, errors.KindShape).
			GoType(goValue.Type().String()).
			JSType(a.class.Name()).
			Detail("constructor %q produced %s, not an object", a.name, res.TypeName()).
			Build()
	}
	if err := obj.SetProto(proto); err != nil {
		return vm.Undefined(), err
	}
	if obj.Opaque() == nil && !isEngineType(goValue.Type()) {
		obj.SetOpaque(goValue.Interface())
	}
	return res, nil
}

func isEngineType(t reflect.Type) bool {
	switch t {
	case reflect.TypeOf(vm.Value{}), reflect.TypeOf((*vm.Object)(nil)), reflect.TypeOf((*vm.Function)(nil)):
		return true
	}
	return false
}
