package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/convert"
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/function"
	"github.com/wippyai/jsbind/module"
	"github.com/wippyai/jsbind/vm"
)

// Host is the interface for struct-based native modules.
// All exported methods (except Namespace) are registered as module exports.
type Host interface {
	// Namespace returns the module name (e.g., "host/clock").
	Namespace() string
}

type HostRegistry struct {
	funcs map[string]map[string]*HostFunc
	mu    sync.RWMutex
}

type HostFunc struct {
	Handler any
	Mutable bool
}

// MutableHost extends Host with mutable function declarations.
// Functions listed by MutableFunctions() run exclusively; see function.Mut.
type MutableHost interface {
	Host
	MutableFunctions() []string
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]*HostFunc),
	}
}

// ExplicitRegistrar allows hosts to provide exact export names
// when automatic PascalCase-to-camelCase conversion doesn't apply
// (e.g., "$tag" or "new").
type ExplicitRegistrar interface {
	Register() map[string]any
}

func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	mutable := make(map[string]bool)
	if mh, ok := h.(MutableHost); ok {
		for _, name := range mh.MutableFunctions() {
			mutable[name] = true
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]*HostFunc)
	}

	if er, ok := h.(ExplicitRegistrar); ok {
		funcs := er.Register()
		for name, handler := range funcs {
			r.funcs[ns][name] = &HostFunc{
				Handler: handler,
				Mutable: mutable[name],
			}
		}
		return nil
	}

	// Handle Register() *Registration pattern where Registration has a Functions field
	if funcs := tryExtractFunctionsViaReflection(h); funcs != nil {
		for name, handler := range funcs {
			r.funcs[ns][name] = &HostFunc{
				Handler: handler,
				Mutable: mutable[name],
			}
		}
		return nil
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()

	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)

		if !method.IsExported() || method.Name == "Namespace" || method.Name == "MutableFunctions" {
			continue
		}

		name := convert.LowerCamel(method.Name)
		r.funcs[ns][name] = &HostFunc{
			Handler: rv.Method(i).Interface(),
			Mutable: mutable[name],
		}
	}

	return nil
}

func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}

	if _, ok := fn.(function.Callable); !ok {
		if fn == nil || reflect.ValueOf(fn).Kind() != reflect.Func {
			return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				GoType(fmt.Sprintf("%T", fn)).
				Detail("handler must be a function").
				Build()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]*HostFunc)
	}

	r.funcs[namespace][name] = &HostFunc{
		Handler: fn,
	}

	return nil
}

// Namespaces returns the registered module names, sorted.
func (r *HostRegistry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Functions returns the export names registered under namespace, sorted.
func (r *HostRegistry) Functions(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.funcs[namespace]))
	for name := range r.funcs[namespace] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Def returns a module definition exporting the functions registered under
// namespace. The registry is read when the module is created, so functions
// added before the first import are included.
func (r *HostRegistry) Def(namespace string) module.Def {
	return &hostDef{registry: r, namespace: namespace}
}

type hostDef struct {
	registry  *HostRegistry
	funcs     map[string]*HostFunc
	namespace string
	names     []string
}

func (d *hostDef) BeforeInit(_ vm.Ctx, p *module.Pending) error {
	d.registry.mu.RLock()
	d.funcs = make(map[string]*HostFunc, len(d.registry.funcs[d.namespace]))
	for name, hf := range d.registry.funcs[d.namespace] {
		d.funcs[name] = hf
	}
	d.registry.mu.RUnlock()

	d.names = make([]string, 0, len(d.funcs))
	for name := range d.funcs {
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)

	for _, name := range d.names {
		if err := p.Add(name); err != nil {
			return errors.Registration(errors.PhaseHost, d.namespace, name, err)
		}
	}
	return nil
}

func (d *hostDef) AfterInit(_ vm.Ctx, m *module.Module) error {
	for _, name := range d.names {
		hf := d.funcs[name]
		handler := hf.Handler
		if hf.Mutable {
			handler = function.Mut(handler)
		}
		if err := m.Set(name, handler); err != nil {
			return errors.Registration(errors.PhaseHost, d.namespace, name, err)
		}
		Logger().Debug("host function bound",
			zap.String("module", d.namespace),
			zap.String("name", name),
			zap.Bool("mutable", hf.Mutable))
	}
	return nil
}

func tryExtractFunctionsViaReflection(h any) map[string]any {
	rv := reflect.ValueOf(h)
	method := rv.MethodByName("Register")
	if !method.IsValid() {
		return nil
	}

	methodType := method.Type()
	if methodType.NumIn() != 0 || methodType.NumOut() != 1 {
		return nil
	}

	results := method.Call(nil)
	if len(results) != 1 {
		return nil
	}

	result := results[0]
	if !result.IsValid() || (result.Kind() == reflect.Ptr && result.IsNil()) {
		return nil
	}

	if result.Kind() == reflect.Ptr {
		result = result.Elem()
	}

	if result.Kind() != reflect.Struct {
		return nil
	}

	functionsField := result.FieldByName("Functions")
	if !functionsField.IsValid() {
		return nil
	}

	if functionsField.Kind() != reflect.Map {
		return nil
	}

	funcs := make(map[string]any)
	iter := functionsField.MapRange()
	for iter.Next() {
		key := iter.Key()
		value := iter.Value()
		if key.Kind() == reflect.String {
			funcs[key.String()] = value.Interface()
		}
	}

	if len(funcs) == 0 {
		return nil
	}

	return funcs
}
