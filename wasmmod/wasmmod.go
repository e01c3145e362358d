package wasmmod

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/function"
	"github.com/wippyai/jsbind/module"
	"github.com/wippyai/jsbind/vm"
)

var (
	errType = reflect.TypeOf((*error)(nil)).Elem()
	anyList = reflect.TypeOf([]any(nil))
)

// Export describes one exported wasm function.
type Export struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Signature renders the export as a wasm text style signature.
func (e Export) Signature() string {
	s := "(func $" + e.Name
	if len(e.Params) > 0 {
		s += " (param"
		for _, p := range e.Params {
			s += " " + api.ValueTypeName(p)
		}
		s += ")"
	}
	if len(e.Results) > 0 {
		s += " (result"
		for _, r := range e.Results {
			s += " " + api.ValueTypeName(r)
		}
		s += ")"
	}
	return s + ")"
}

// Module is a compiled core wasm module exposed as a native module. Its
// function exports are declared when the module record is created and bound
// to a fresh instance when the engine instantiates it.
type Module struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	instance api.Module
	name     string
	exports  []Export
	mu       sync.Mutex
}

// Compile compiles wasm in rt. Exports with parameter or result types that
// have no engine representation are left out.
func Compile(ctx context.Context, rt wazero.Runtime, name string, wasm []byte) (*Module, error) {
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile wasm module "+name, err)
	}

	defs := compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for n := range defs {
		names = append(names, n)
	}
	sort.Strings(names)

	m := &Module{runtime: rt, compiled: compiled, name: name}
	for _, n := range names {
		def := defs[n]
		if !supported(def.ParamTypes()) || !supported(def.ResultTypes()) {
			Logger().Debug("skipping wasm export with unsupported types",
				zap.String("module", name),
				zap.String("export", n))
			continue
		}
		m.exports = append(m.exports, Export{
			Name:    n,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}

	Logger().Debug("wasm module compiled",
		zap.String("module", name),
		zap.Int("exports", len(m.exports)))
	return m, nil
}

func supported(types []api.ValueType) bool {
	for _, t := range types {
		if goType(t) == nil {
			return false
		}
	}
	return true
}

func goType(t api.ValueType) reflect.Type {
	switch t {
	case api.ValueTypeI32:
		return reflect.TypeOf(int32(0))
	case api.ValueTypeI64:
		return reflect.TypeOf(int64(0))
	case api.ValueTypeF32:
		return reflect.TypeOf(float32(0))
	case api.ValueTypeF64:
		return reflect.TypeOf(float64(0))
	}
	return nil
}

func (m *Module) Name() string { return m.name }

// Exports returns the bindable exports sorted by name.
func (m *Module) Exports() []Export {
	out := make([]Export, len(m.exports))
	copy(out, m.exports)
	return out
}

// Export looks up a bindable export.
func (m *Module) Export(name string) (Export, bool) {
	for _, e := range m.exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// Def returns the module definition. ctx is used to instantiate the wasm
// module and for every call into it.
func (m *Module) Def(ctx context.Context) module.Def {
	return &def{m: m, ctx: ctx}
}

type def struct {
	m   *Module
	ctx context.Context
}

func (d *def) BeforeInit(_ vm.Ctx, p *module.Pending) error {
	for _, e := range d.m.exports {
		if err := p.Add(e.Name); err != nil {
			return err
		}
	}
	return nil
}

func (d *def) AfterInit(_ vm.Ctx, mod *module.Module) error {
	inst, err := d.m.instantiate(d.ctx)
	if err != nil {
		return err
	}
	for _, e := range d.m.exports {
		fn := inst.ExportedFunction(e.Name)
		if fn == nil {
			return errors.NotFound(errors.PhaseModule, "wasm export", e.Name)
		}
		if err := mod.Set(e.Name, function.Mut(callable(d.ctx, e, fn))); err != nil {
			return err
		}
	}
	return nil
}

// Instantiate creates the wasm instance if it does not exist yet.
func (m *Module) Instantiate(ctx context.Context) (api.Module, error) {
	return m.instantiate(ctx)
}

func (m *Module) instantiate(ctx context.Context) (api.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.instance != nil {
		return m.instance, nil
	}
	if err := m.initWASI(ctx); err != nil {
		return nil, err
	}

	inst, err := m.runtime.InstantiateModule(ctx, m.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(m.name, err)
	}
	m.instance = inst

	Logger().Debug("wasm module instantiated", zap.String("module", m.name))
	return inst, nil
}

// initWASI instantiates WASI preview1 in the runtime when the module imports
// it and nothing else has.
func (m *Module) initWASI(ctx context.Context) error {
	needs := false
	for _, imp := range m.compiled.ImportedFunctions() {
		if mod, _, ok := imp.Import(); ok && mod == wasi_snapshot_preview1.ModuleName {
			needs = true
			break
		}
	}
	if !needs || m.runtime.Module(wasi_snapshot_preview1.ModuleName) != nil {
		return nil
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, m.runtime); err != nil {
		if m.runtime.Module(wasi_snapshot_preview1.ModuleName) == nil {
			return errors.Instantiation(wasi_snapshot_preview1.ModuleName, err)
		}
	}
	return nil
}

// callable builds a typed Go func for a wasm export: one parameter per wasm
// parameter, and a result of the single wasm result type, a []any for
// multiple results, or only an error when there is none.
func callable(ctx context.Context, e Export, fn api.Function) any {
	in := make([]reflect.Type, len(e.Params))
	for i, p := range e.Params {
		in[i] = goType(p)
	}

	var out []reflect.Type
	switch len(e.Results) {
	case 0:
		out = []reflect.Type{errType}
	case 1:
		out = []reflect.Type{goType(e.Results[0]), errType}
	default:
		out = []reflect.Type{anyList, errType}
	}
	ft := reflect.FuncOf(in, out, false)

	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		params := make([]uint64, len(args))
		for i, a := range args {
			params[i] = encode(e.Params[i], a)
		}

		res, err := fn.Call(ctx, params...)
		if err != nil {
			err = errors.Wrap(errors.PhaseCall, errors.KindException, err, fmt.Sprintf("wasm call %q", e.Name))
		}

		errVal := reflect.Zero(errType)
		if err != nil {
			errVal = reflect.ValueOf(&err).Elem()
		}

		switch len(e.Results) {
		case 0:
			return []reflect.Value{errVal}
		case 1:
			if err != nil {
				return []reflect.Value{reflect.Zero(out[0]), errVal}
			}
			return []reflect.Value{decode(e.Results[0], res[0]), errVal}
		default:
			if err != nil {
				return []reflect.Value{reflect.Zero(anyList), errVal}
			}
			vals := make([]any, len(res))
			for i, r := range res {
				vals[i] = decode(e.Results[i], r).Interface()
			}
			return []reflect.Value{reflect.ValueOf(vals), errVal}
		}
	}).Interface()
}

func encode(t api.ValueType, v reflect.Value) uint64 {
	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(v.Int()))
	case api.ValueTypeI64:
		return api.EncodeI64(v.Int())
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v.Float()))
	default:
		return api.EncodeF64(v.Float())
	}
}

func decode(t api.ValueType, raw uint64) reflect.Value {
	switch t {
	case api.ValueTypeI32:
		return reflect.ValueOf(api.DecodeI32(raw))
	case api.ValueTypeI64:
		return reflect.ValueOf(int64(raw))
	case api.ValueTypeF32:
		return reflect.ValueOf(api.DecodeF32(raw))
	default:
		return reflect.ValueOf(api.DecodeF64(raw))
	}
}

// Close closes the instance and the compiled module.
func (m *Module) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.instance != nil {
		firstErr = m.instance.Close(ctx)
		m.instance = nil
	}
	if err := m.compiled.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
