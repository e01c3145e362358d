package vm

import (
	"strings"

	"github.com/wippyai/jsbind/errors"
)

// Object is an engine object: an ordered property map with a prototype link.
type Object struct {
	proto  *Object
	props  map[string]Value
	opaque any
	keys   []string
}

// NewObject creates an object with no prototype.
func NewObject() *Object {
	return &Object{props: make(map[string]Value)}
}

// Proto returns the object's [[Prototype]], or nil.
func (o *Object) Proto() *Object { return o.proto }

// SetProto replaces the object's [[Prototype]]. A link that would create a
// cycle is rejected.
func (o *Object) SetProto(proto *Object) error {
	for p := proto; p != nil; p = p.proto {
		if p == o {
			return errors.InvalidInput(errors.PhaseEngine, "cyclic prototype chain")
		}
	}
	o.proto = proto
	return nil
}

// Get looks name up on the object and then along its prototype chain.
func (o *Object) Get(name string) Value {
	for p := o; p != nil; p = p.proto {
		if v, ok := p.props[name]; ok {
			return v
		}
	}
	return Undefined()
}

// GetOwn returns an own property.
func (o *Object) GetOwn(name string) (Value, bool) {
	v, ok := o.props[name]
	return v, ok
}

// Has reports whether name resolves on the object or its prototype chain.
func (o *Object) Has(name string) bool {
	for p := o; p != nil; p = p.proto {
		if _, ok := p.props[name]; ok {
			return true
		}
	}
	return false
}

// Set defines or overwrites an own property.
func (o *Object) Set(name string, v Value) {
	if o.props == nil {
		o.props = make(map[string]Value)
	}
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
}

// Delete removes an own property.
func (o *Object) Delete(name string) bool {
	if _, ok := o.props[name]; !ok {
		return false
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns own property names in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Opaque returns the native payload attached to the object.
func (o *Object) Opaque() any { return o.opaque }

// SetOpaque attaches a native payload to the object.
func (o *Object) SetOpaque(v any) { o.opaque = v }

// Array is an engine array.
type Array struct {
	elems []Value
}

func NewArray(elems ...Value) *Array {
	return &Array{elems: append([]Value(nil), elems...)}
}

func (a *Array) Len() int { return len(a.elems) }

// Get returns the element at i, or undefined when out of range.
func (a *Array) Get(i int) Value {
	if i < 0 || i >= len(a.elems) {
		return Undefined()
	}
	return a.elems[i]
}

func (a *Array) Append(v ...Value) { a.elems = append(a.elems, v...) }

// Elements returns a copy of the elements.
func (a *Array) Elements() []Value {
	out := make([]Value, len(a.elems))
	copy(out, a.elems)
	return out
}

func (a *Array) String() string {
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}
