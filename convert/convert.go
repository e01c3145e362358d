package convert

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/vm"
)

// Unmarshaler is implemented by types that convert themselves from an engine
// value. The method must have a pointer receiver.
type Unmarshaler interface {
	FromJS(ctx vm.Ctx, v vm.Value) error
}

// Marshaler is implemented by types that produce their own engine value.
type Marshaler interface {
	IntoJS(ctx vm.Ctx) (vm.Value, error)
}

var (
	valueType       = reflect.TypeOf(vm.Value{})
	objectType      = reflect.TypeOf((*vm.Object)(nil))
	functionType    = reflect.TypeOf((*vm.Function)(nil))
	arrayType       = reflect.TypeOf((*vm.Array)(nil))
	moduleType      = reflect.TypeOf((*vm.ModuleDef)(nil))
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// To converts v into a T.
func To[T any](ctx vm.Ctx, v vm.Value) (T, error) {
	var zero T
	rv, err := FromJS(ctx, v, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	// nil interface results (undefined into any) leave the zero value
	out, _ := rv.Interface().(T)
	return out, nil
}

// FromJS converts an engine value into a Go value of type t.
func FromJS(ctx vm.Ctx, v vm.Value, t reflect.Type) (reflect.Value, error) {
	return FromJSAt(ctx, v, t, nil)
}

// FromJSAt is FromJS with a path prefix used in conversion errors.
func FromJSAt(ctx vm.Ctx, v vm.Value, t reflect.Type, path []string) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if err := fromJS(ctx, v, out, path); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func fromJS(ctx vm.Ctx, v vm.Value, out reflect.Value, path []string) error {
	t := out.Type()

	if t == valueType {
		out.Set(reflect.ValueOf(v))
		return nil
	}
	// Objects carrying a native payload convert to the payload itself.
	if t.Kind() != reflect.Interface {
		if obj, ok := v.AsObject(); ok && obj.Opaque() != nil {
			if ov := reflect.ValueOf(obj.Opaque()); ov.Type().AssignableTo(t) {
				out.Set(ov)
				return nil
			}
		}
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		u := out.Addr().Interface().(Unmarshaler)
		if err := u.FromJS(ctx, v); err != nil {
			return errors.FromJS(path, v.TypeName(), t.String(), err)
		}
		return nil
	}

	switch t {
	case objectType:
		obj, ok := v.AsObject()
		if !ok {
			return mismatch(path, v, t)
		}
		out.Set(reflect.ValueOf(obj))
		return nil
	case functionType:
		f, ok := v.AsFunction()
		if !ok {
			return mismatch(path, v, t)
		}
		out.Set(reflect.ValueOf(f))
		return nil
	case arrayType:
		a, ok := v.AsArray()
		if !ok {
			return mismatch(path, v, t)
		}
		out.Set(reflect.ValueOf(a))
		return nil
	case moduleType:
		m, ok := v.AsModule()
		if !ok {
			return mismatch(path, v, t)
		}
		out.Set(reflect.ValueOf(m))
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, ok := v.AsBool()
		if !ok {
			return mismatch(path, v, t)
		}
		out.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := integral(v, path, t)
		if err != nil {
			return err
		}
		if n < math.MinInt64 || n >= math.MaxInt64 || out.OverflowInt(int64(n)) {
			return errors.Overflow(errors.PhaseFromJS, path, n, t.String())
		}
		out.SetInt(int64(n))
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := integral(v, path, t)
		if err != nil {
			return err
		}
		if n < 0 || n >= math.MaxUint64 || out.OverflowUint(uint64(n)) {
			return errors.Overflow(errors.PhaseFromJS, path, n, t.String())
		}
		out.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := v.AsNumber()
		if !ok {
			return mismatch(path, v, t)
		}
		if t.Kind() == reflect.Float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && out.OverflowFloat(f) {
			return errors.Overflow(errors.PhaseFromJS, path, f, t.String())
		}
		out.SetFloat(f)
		return nil

	case reflect.String:
		s, ok := v.AsString()
		if !ok {
			return mismatch(path, v, t)
		}
		out.SetString(s)
		return nil

	case reflect.Slice:
		a, ok := v.AsArray()
		if !ok {
			return mismatch(path, v, t)
		}
		elems := a.Elements()
		s := reflect.MakeSlice(t, len(elems), len(elems))
		for i, e := range elems {
			if err := fromJS(ctx, e, s.Index(i), appendPath(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
		out.Set(s)
		return nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return errors.Unsupported(errors.PhaseFromJS, "map key type "+t.Key().String())
		}
		obj, ok := v.AsObject()
		if !ok {
			return mismatch(path, v, t)
		}
		m := reflect.MakeMapWithSize(t, len(obj.Keys()))
		for _, k := range obj.Keys() {
			prop, _ := obj.GetOwn(k)
			ev := reflect.New(t.Elem()).Elem()
			if err := fromJS(ctx, prop, ev, appendPath(path, k)); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		out.Set(m)
		return nil

	case reflect.Pointer:
		if v.IsNullish() {
			out.Set(reflect.Zero(t))
			return nil
		}
		p := reflect.New(t.Elem())
		if err := fromJS(ctx, v, p.Elem(), path); err != nil {
			return err
		}
		out.Set(p)
		return nil

	case reflect.Interface:
		if t.NumMethod() != 0 {
			return errors.Unsupported(errors.PhaseFromJS, "interface type "+t.String())
		}
		nat := natural(v)
		if nat == nil {
			out.Set(reflect.Zero(t))
			return nil
		}
		out.Set(reflect.ValueOf(nat))
		return nil

	case reflect.Struct:
		obj, ok := v.AsObject()
		if !ok {
			return mismatch(path, v, t)
		}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, ok := fieldName(field)
			if !ok {
				continue
			}
			prop := obj.Get(name)
			if prop.IsUndefined() {
				continue
			}
			if err := fromJS(ctx, prop, out.Field(i), appendPath(path, name)); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.Unsupported(errors.PhaseFromJS, "Go type "+t.String())
}

// integral accepts ints and integral floats.
func integral(v vm.Value, path []string, t reflect.Type) (float64, error) {
	if i, ok := v.AsInt(); ok {
		return float64(i), nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, mismatch(path, v, t)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.New(errors.PhaseFromJS, errors.KindTypeMismatch).
			Path(path...).
			JSType(v.TypeName()).
			GoType(t.String()).
			Detail("%v is not an integer", f).
			Value(f).
			Build()
	}
	return f, nil
}

// natural maps a value onto plain Go types for interface{} targets.
func natural(v vm.Value) any {
	switch v.Kind() {
	case vm.KindUndefined, vm.KindNull:
		return nil
	case vm.KindBool:
		b, _ := v.AsBool()
		return b
	case vm.KindInt:
		i, _ := v.AsInt()
		return int64(i)
	case vm.KindFloat:
		f, _ := v.AsFloat()
		return f
	case vm.KindString:
		s, _ := v.AsString()
		return s
	case vm.KindArray:
		a, _ := v.AsArray()
		out := make([]any, a.Len())
		for i, e := range a.Elements() {
			out[i] = natural(e)
		}
		return out
	case vm.KindObject:
		obj, _ := v.AsObject()
		out := make(map[string]any, len(obj.Keys()))
		for _, k := range obj.Keys() {
			prop, _ := obj.GetOwn(k)
			out[k] = natural(prop)
		}
		return out
	}
	return v
}

// IntoJS converts a Go value into an engine value.
func IntoJS(ctx vm.Ctx, x any) (vm.Value, error) {
	if x == nil {
		return vm.Undefined(), nil
	}
	return IntoJSValue(ctx, reflect.ValueOf(x))
}

// IntoJSValue converts a reflected Go value into an engine value.
func IntoJSValue(ctx vm.Ctx, rv reflect.Value) (vm.Value, error) {
	if !rv.IsValid() {
		return vm.Undefined(), nil
	}
	t := rv.Type()

	if t == valueType {
		return rv.Interface().(vm.Value), nil
	}
	if t.Implements(marshalerType) {
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return vm.Null(), nil
		}
		v, err := rv.Interface().(Marshaler).IntoJS(ctx)
		if err != nil {
			return vm.Undefined(), errors.IntoJS(t.String(), "", err)
		}
		return v, nil
	}

	switch t {
	case objectType:
		return vm.ObjectOf(rv.Interface().(*vm.Object)), nil
	case functionType:
		return vm.FunctionOf(rv.Interface().(*vm.Function)), nil
	case arrayType:
		return vm.ArrayOf(rv.Interface().(*vm.Array)), nil
	case moduleType:
		return vm.ModuleOf(rv.Interface().(*vm.ModuleDef)), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return vm.Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return vm.Int(int32(n)), nil
		}
		return vm.Float(float64(n)), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n <= math.MaxInt32 {
			return vm.Int(int32(n)), nil
		}
		return vm.Float(float64(n)), nil

	case reflect.Float32, reflect.Float64:
		return vm.Float(rv.Float()), nil

	case reflect.String:
		return vm.String(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && rv.IsNil() {
			return vm.Null(), nil
		}
		arr := vm.NewArray()
		for i := 0; i < rv.Len(); i++ {
			e, err := IntoJSValue(ctx, rv.Index(i))
			if err != nil {
				return vm.Undefined(), err
			}
			arr.Append(e)
		}
		return vm.ArrayOf(arr), nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return vm.Undefined(), errors.IntoJS(t.String(), "object",
				errors.Unsupported(errors.PhaseIntoJS, "map key type "+t.Key().String()))
		}
		if rv.IsNil() {
			return vm.Null(), nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		obj := ctx.NewObject()
		for _, k := range keys {
			e, err := IntoJSValue(ctx, rv.MapIndex(k))
			if err != nil {
				return vm.Undefined(), err
			}
			obj.Set(k.String(), e)
		}
		return vm.ObjectOf(obj), nil

	case reflect.Pointer:
		if rv.IsNil() {
			return vm.Null(), nil
		}
		return IntoJSValue(ctx, rv.Elem())

	case reflect.Interface:
		if rv.IsNil() {
			return vm.Undefined(), nil
		}
		return IntoJSValue(ctx, rv.Elem())

	case reflect.Struct:
		obj := ctx.NewObject()
		for i := 0; i < t.NumField(); i++ {
			name, ok := fieldName(t.Field(i))
			if !ok {
				continue
			}
			e, err := IntoJSValue(ctx, rv.Field(i))
			if err != nil {
				return vm.Undefined(), err
			}
			obj.Set(name, e)
		}
		return vm.ObjectOf(obj), nil
	}

	return vm.Undefined(), errors.IntoJS(t.String(), "",
		errors.Unsupported(errors.PhaseIntoJS, "Go type "+t.String()))
}

// IsError reports whether t is the error interface.
func IsError(t reflect.Type) bool { return t == errorType }

// fieldName resolves a struct field's property name: the js tag, or the Go
// name with a lower-case first letter. Unexported and "-" fields are skipped.
func fieldName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	if tag := field.Tag.Get("js"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", false
		}
		if name != "" {
			return name, true
		}
	}
	return LowerCamel(field.Name), true
}

// LowerCamel lower-cases the leading run of upper-case letters of s, keeping
// the last one of a multi-letter run when it starts a new word:
// "Name" → "name", "URLPath" → "urlPath", "ID" → "id".
func LowerCamel(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == 1 || n == len(r):
		for i := 0; i < n; i++ {
			r[i] = unicode.ToLower(r[i])
		}
	default:
		for i := 0; i < n-1; i++ {
			r[i] = unicode.ToLower(r[i])
		}
	}
	return string(r)
}

func mismatch(path []string, v vm.Value, t reflect.Type) error {
	return errors.FromJS(path, v.TypeName(), t.String(), nil)
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
