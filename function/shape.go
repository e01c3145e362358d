package function

import (
	"reflect"
	"strings"

	"github.com/wippyai/jsbind/errors"
)

// SlotKind tags a parameter slot of a callable shape.
type SlotKind uint8

const (
	KindCtx  SlotKind = iota // receives the calling vm.Ctx
	KindThis                 // receives the converted this value
	KindArg                  // receives the next positional argument
	KindRest                 // collects all remaining arguments
)

func (k SlotKind) String() string {
	switch k {
	case KindCtx:
		return "ctx"
	case KindThis:
		return "this"
	case KindArg:
		return "arg"
	case KindRest:
		return "rest"
	}
	return "unknown"
}

// Slot is one parameter of a callable. Type is the Go type values are
// converted into: T for This[T] and the element type for rest slots.
type Slot struct {
	Type  reflect.Type
	Param reflect.Type
	Kind  SlotKind
}

// Shape describes how a Go callable maps onto the native calling convention.
type Shape struct {
	Func         reflect.Type
	Result       reflect.Type
	Slots        []Slot
	ReturnsError bool
	Variadic     bool
	Method       bool
	Mutable      bool
}

// Len is the minimum number of arguments a call must supply: the count of
// positional slots.
func (s *Shape) Len() uint32 {
	var n uint32
	for _, slot := range s.Slots {
		if slot.Kind == KindArg {
			n++
		}
	}
	return n
}

func (s *Shape) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, slot := range s.Slots {
		if i > 0 {
			b.WriteString(", ")
		}
		switch slot.Kind {
		case KindCtx:
			b.WriteString("ctx")
		case KindThis:
			b.WriteString("this ")
			b.WriteString(slot.Type.String())
		case KindRest:
			b.WriteString("...")
			b.WriteString(slot.Type.String())
		default:
			b.WriteString(slot.Type.String())
		}
	}
	b.WriteByte(')')

	switch {
	case s.Result != nil && s.ReturnsError:
		b.WriteString(" (" + s.Result.String() + ", error)")
	case s.Result != nil:
		b.WriteString(" " + s.Result.String())
	case s.ReturnsError:
		b.WriteString(" error")
	}
	return b.String()
}

// Analyze derives the shape of callable, a func or a Callable.
func Analyze(callable any) (*Shape, error) {
	c := asCallable(callable)
	return analyze(c)
}

func analyze(c Callable) (*Shape, error) {
	if c.fn == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "callable is nil")
	}
	ft := reflect.TypeOf(c.fn)
	if ft.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseBind, errors.KindShape).
			GoType(ft.String()).
			Detail("callable must be a func").
			Build()
	}
	if reflect.ValueOf(c.fn).IsNil() {
		return nil, errors.InvalidInput(errors.PhaseBind, "callable is a nil func")
	}

	s := &Shape{
		Func:     ft,
		Variadic: ft.IsVariadic(),
		Method:   c.method,
		Mutable:  c.mutable,
	}

	n := ft.NumIn()
	receiverAt := -1
	for i := 0; i < n; i++ {
		p := ft.In(i)

		switch {
		case p == ctxType:
			if i != 0 {
				return nil, shapeErr(ft, "vm.Ctx must be the first parameter")
			}
			s.Slots = append(s.Slots, Slot{Kind: KindCtx, Type: p, Param: p})
			continue

		case wrapperLike(p):
			return nil, shapeErr(ft, "parameter %d of type %s must be This or Rest by value", i, p)

		case isThis(p):
			if receiverAt >= 0 {
				return nil, shapeErr(ft, "more than one receiver parameter")
			}
			if !leading(s.Slots) {
				return nil, shapeErr(ft, "This must come first or directly after vm.Ctx")
			}
			receiverAt = i
			elem := reflect.Zero(p).Interface().(thisMarker).thisElem()
			s.Slots = append(s.Slots, Slot{Kind: KindThis, Type: elem, Param: p})
			continue

		case isRest(p):
			if i != n-1 {
				return nil, shapeErr(ft, "Rest must be the last parameter")
			}
			if s.Variadic {
				return nil, shapeErr(ft, "Rest cannot be used as a variadic parameter")
			}
			elem := reflect.Zero(p).Interface().(restMarker).restElem()
			s.Slots = append(s.Slots, Slot{Kind: KindRest, Type: elem, Param: p})
			continue
		}

		if s.Variadic && i == n-1 {
			if el := p.Elem(); el.Implements(restMarkerType) || el.Implements(thisMarkerType) {
				return nil, shapeErr(ft, "variadic parameter of wrapper type %s", p.Elem())
			}
			s.Slots = append(s.Slots, Slot{Kind: KindRest, Type: p.Elem(), Param: p})
			continue
		}

		if c.method && receiverAt < 0 && leading(s.Slots) {
			receiverAt = i
			s.Slots = append(s.Slots, Slot{Kind: KindThis, Type: p, Param: p})
			continue
		}

		s.Slots = append(s.Slots, Slot{Kind: KindArg, Type: p, Param: p})
	}

	if c.method {
		if receiverAt < 0 {
			return nil, shapeErr(ft, "method has no receiver parameter")
		}
		if isThis(s.Slots[receiverAt].Param) {
			return nil, shapeErr(ft, "method receiver cannot be wrapped in This")
		}
	}

	if err := s.analyzeResults(ft); err != nil {
		return nil, err
	}

	if c.class != nil {
		if receiverAt >= 0 {
			return nil, shapeErr(ft, "constructor cannot take a receiver")
		}
		if s.Result == nil {
			return nil, shapeErr(ft, "constructor must return a value")
		}
	}
	return s, nil
}

func (s *Shape) analyzeResults(ft reflect.Type) error {
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			s.ReturnsError = true
		} else {
			s.Result = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return shapeErr(ft, "second result must be error")
		}
		s.Result = ft.Out(0)
		s.ReturnsError = true
	default:
		return shapeErr(ft, "at most two results are supported")
	}
	return nil
}

// leading reports whether only a context slot precedes the current parameter.
func leading(slots []Slot) bool {
	return len(slots) == 0 || (len(slots) == 1 && slots[0].Kind == KindCtx)
}

func shapeErr(ft reflect.Type, detail string, args ...any) error {
	e := errors.Shape(errors.PhaseBind, detail, args...)
	e.GoType = ft.String()
	return e
}
