package function

import (
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/convert"
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/vm"
)

// Adapter binds one Go callable to the native calling convention.
type Adapter struct {
	fn    reflect.Value
	shape *Shape
	class *vm.Class
	slots []slotStrategy
	name  string
	busy  atomic.Bool
}

// callState carries one invocation through the slot strategies.
type callState struct {
	ctx  vm.Ctx
	this vm.Value
	args *Args
	in   []reflect.Value
}

type slotStrategy interface {
	fill(st *callState) error
}

type ctxSlot struct{}

func (ctxSlot) fill(st *callState) error {
	st.in = append(st.in, reflect.ValueOf(st.ctx))
	return nil
}

type thisSlot struct {
	typ     reflect.Type
	param   reflect.Type
	wrapped bool
}

func (s thisSlot) fill(st *callState) error {
	v, err := convert.FromJSAt(st.ctx, st.this, s.typ, []string{"this"})
	if err != nil {
		return err
	}
	if !s.wrapped {
		st.in = append(st.in, v)
		return nil
	}
	w := reflect.New(s.param).Elem()
	w.Field(0).Set(v)
	st.in = append(st.in, w)
	return nil
}

type argSlot struct {
	typ   reflect.Type
	index int
}

func (s argSlot) fill(st *callState) error {
	v, ok := st.args.Next()
	if !ok {
		return errors.NotEnoughArgs()
	}
	rv, err := convert.FromJSAt(st.ctx, v, s.typ, []string{"args", strconv.Itoa(s.index)})
	if err != nil {
		return err
	}
	st.in = append(st.in, rv)
	return nil
}

type restSlot struct {
	elem  reflect.Type
	param reflect.Type
}

func (s restSlot) fill(st *callState) error {
	out := reflect.MakeSlice(s.param, 0, st.args.Len())
	for {
		idx := st.args.Pos()
		v, ok := st.args.Next()
		if !ok {
			break
		}
		rv, err := convert.FromJSAt(st.ctx, v, s.elem, []string{"args", strconv.Itoa(idx)})
		if err != nil {
			return err
		}
		out = reflect.Append(out, rv)
	}
	st.in = append(st.in, out)
	return nil
}

// NewAdapter analyses callable and prepares its slot strategies.
func NewAdapter(name string, callable any) (*Adapter, error) {
	c := asCallable(callable)
	shape, err := analyze(c)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		fn:    reflect.ValueOf(c.fn),
		shape: shape,
		class: c.class,
		name:  name,
		slots: make([]slotStrategy, 0, len(shape.Slots)),
	}

	argIndex := 0
	for _, slot := range shape.Slots {
		switch slot.Kind {
		case KindCtx:
			a.slots = append(a.slots, ctxSlot{})
		case KindThis:
			a.slots = append(a.slots, thisSlot{
				typ:     slot.Type,
				param:   slot.Param,
				wrapped: isThis(slot.Param),
			})
		case KindArg:
			a.slots = append(a.slots, argSlot{typ: slot.Type, index: argIndex})
			argIndex++
		case KindRest:
			a.slots = append(a.slots, restSlot{elem: slot.Type, param: slot.Param})
		}
	}

	Logger().Debug("adapter built",
		zap.String("name", name),
		zap.Stringer("shape", shape),
		zap.Uint32("len", shape.Len()),
		zap.Bool("constructor", c.class != nil))
	return a, nil
}

func (a *Adapter) Name() string { return a.name }

// Len is the minimum argument count, used as the function's length.
func (a *Adapter) Len() uint32 { return a.shape.Len() }

func (a *Adapter) Shape() *Shape { return a.shape }

// IsConstructor reports whether the adapter was built by Constructor.
func (a *Adapter) IsConstructor() bool { return a.class != nil }

// Call runs the callable: slots are filled left to right, the callable is
// invoked and its result converted out. An error returned by the callable is
// passed through unchanged.
func (a *Adapter) Call(ctx vm.Ctx, this vm.Value, args *Args) (res vm.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = vm.Undefined()
			err = errors.New(errors.PhaseCall, errors.KindException).
				Detail("panic binding %q: %v", a.name, r).
				Build()
		}
	}()

	st := &callState{
		ctx:  ctx,
		this: this,
		args: args,
		in:   make([]reflect.Value, 0, len(a.slots)),
	}
	for _, s := range a.slots {
		if err := s.fill(st); err != nil {
			return vm.Undefined(), err
		}
	}

	var proto *vm.Object
	if a.class != nil {
		p, err := a.resolvePrototype(ctx, this)
		if err != nil {
			return vm.Undefined(), err
		}
		proto = p
	}

	if a.shape.Mutable {
		if !a.busy.CompareAndSwap(false, true) {
			return vm.Undefined(), errors.Reentrant(a.name)
		}
		defer a.busy.Store(false)
	}

	out, err := a.invoke(st.in)
	if err != nil {
		return vm.Undefined(), err
	}

	res = vm.Undefined()
	if a.shape.Result != nil {
		res, err = convert.IntoJSValue(ctx, out[0])
		if err != nil {
			return vm.Undefined(), err
		}
	}

	if a.class != nil {
		return a.finishConstruct(res, out[0], proto)
	}
	return res, nil
}

func (a *Adapter) invoke(in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseCall, errors.KindException).
				Detail("panic in %q: %v", a.name, r).
				Build()
		}
	}()

	if a.shape.Variadic {
		out = a.fn.CallSlice(in)
	} else {
		out = a.fn.Call(in)
	}

	if a.shape.ReturnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
	}
	return out, nil
}

// Post runs once after the engine function object is created.
func (a *Adapter) Post(ctx vm.Ctx, fn *vm.Function) error {
	if a.class == nil {
		return nil
	}
	proto, err := ctx.ClassPrototype(a.class)
	if err != nil {
		return err
	}
	fn.SetConstructor(true)
	fn.SetPrototype(proto)
	proto.Set("constructor", vm.FunctionOf(fn))
	return nil
}

func (a *Adapter) String() string {
	return fmt.Sprintf("%s%s", a.name, a.shape)
}
