package runtime

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/convert"
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/function"
	"github.com/wippyai/jsbind/module"
	"github.com/wippyai/jsbind/vm"
	"github.com/wippyai/jsbind/wasmmod"
)

// Options configures a Runtime.
type Options struct {
	Logger *zap.Logger
	VM     vm.Config

	// MemoryLimitPages caps the linear memory of wasm modules in pages
	// (64KB each). 0 means wazero's default.
	MemoryLimitPages uint32
}

type Option func(*Options)

// WithConfig sets the engine configuration.
func WithConfig(cfg vm.Config) Option {
	return func(o *Options) { o.VM = cfg }
}

// WithMemoryLimitPages caps wasm linear memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *Options) { o.MemoryLimitPages = pages }
}

// WithLogger installs l as the logger of every package.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Runtime owns an engine context, the wazero runtime backing wasm modules and
// the host registry. Module loaders are registered on the context and
// resolved by Import.
type Runtime struct {
	vm       *vm.Runtime
	context  *vm.Context
	wasm     wazero.Runtime
	hosts    *HostRegistry
	loaded   map[string]source
	records  *recordObserver
	wasmMods []*wasmmod.Module
	mu       sync.Mutex
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	if o.Logger != nil {
		SetLogger(o.Logger)
		vm.SetLogger(o.Logger)
		function.SetLogger(o.Logger)
		module.SetLogger(o.Logger)
		wasmmod.SetLogger(o.Logger)
	}

	wasmCfg := wazero.NewRuntimeConfig()
	if o.MemoryLimitPages > 0 {
		if o.MemoryLimitPages > 65536 {
			return nil, errors.InvalidInput(errors.PhaseLoad, "memory limit exceeds 65536 pages")
		}
		wasmCfg = wasmCfg.WithMemoryLimitPages(o.MemoryLimitPages)
	}

	vmrt := vm.NewRuntime(&o.VM)
	r := &Runtime{
		vm:      vmrt,
		context: vmrt.NewContext(),
		wasm:    wazero.NewRuntimeWithConfig(ctx, wasmCfg),
		hosts:   NewHostRegistry(),
		loaded:  make(map[string]source),
		records: &recordObserver{},
	}
	vmrt.Handles().Subscribe(r.records)
	Logger().Debug("runtime created", zap.Uint32("memory_limit_pages", o.MemoryLimitPages))
	return r, nil
}

type source uint8

const (
	sourceDef source = iota + 1
	sourceHost
	sourceWasm
)

// Context returns the engine context modules are loaded into.
func (r *Runtime) Context() *vm.Context { return r.context }

// With runs fn with exclusive access to the engine context.
func (r *Runtime) With(fn func(ctx vm.Ctx) error) error {
	return r.context.With(fn)
}

func (r *Runtime) Hosts() *HostRegistry { return r.hosts }

// Wasm returns the wazero runtime wasm modules are compiled in.
func (r *Runtime) Wasm() wazero.Runtime { return r.wasm }

// RegisterModule installs def as the loader for name.
func (r *Runtime) RegisterModule(name string, def module.Def) error {
	if def == nil {
		return errors.InvalidInput(errors.PhaseLoad, "module definition is nil")
	}
	return r.register(name, sourceDef, def)
}

// RegisterHost registers all exported methods of h as exports of the module
// named by h.Namespace(). Method names are converted from PascalCase to
// camelCase (GetValue -> getValue). Must be called before the module is
// first imported.
func (r *Runtime) RegisterHost(h Host) error {
	if err := r.hosts.RegisterHost(h); err != nil {
		return err
	}
	ns := h.Namespace()
	return r.register(ns, sourceHost, r.hosts.Def(ns))
}

// RegisterFunc adds a single function export to the host module namespace.
func (r *Runtime) RegisterFunc(namespace, name string, fn any) error {
	if err := r.hosts.RegisterFunc(namespace, name, fn); err != nil {
		return err
	}
	return r.register(namespace, sourceHost, r.hosts.Def(namespace))
}

func (r *Runtime) register(name string, src source, def module.Def) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseLoad, "module name cannot be empty")
	}

	r.mu.Lock()
	if existing, ok := r.loaded[name]; ok {
		r.mu.Unlock()
		if existing == sourceHost && src == sourceHost {
			return nil
		}
		return errors.New(errors.PhaseLoad, errors.KindRegistration).
			Detail("module %q is already registered", name).
			Build()
	}
	r.loaded[name] = src
	r.mu.Unlock()

	Logger().Debug("module registered", zap.String("name", name), zap.Uint8("source", uint8(src)))
	return r.With(func(ctx vm.Ctx) error {
		module.Register(ctx, name, def)
		return nil
	})
}

// LiveModules returns the number of module records the engine holds.
// Records whose creation hook failed are freed and not counted.
func (r *Runtime) LiveModules() int { return int(r.records.live.Load()) }

// Modules returns the registered module names, sorted.
func (r *Runtime) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Import loads and instantiates the module registered under name.
func (r *Runtime) Import(name string) (*module.Module, error) {
	var m *module.Module
	err := r.With(func(ctx vm.Ctx) error {
		var err error
		m, err = module.Import(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Call imports moduleName and calls its export with args converted into
// engine values.
func (r *Runtime) Call(moduleName, export string, args ...any) (vm.Value, error) {
	res := vm.Undefined()
	err := r.With(func(ctx vm.Ctx) error {
		m, err := module.Import(ctx, moduleName)
		if err != nil {
			return err
		}
		fn, err := m.Get(export)
		if err != nil {
			return err
		}
		if _, ok := fn.AsFunction(); !ok {
			return errors.New(errors.PhaseCall, errors.KindTypeMismatch).
				JSType(fn.TypeName()).
				Detail("export %q of module %q is not a function", export, moduleName).
				Build()
		}

		vals := make([]vm.Value, len(args))
		for i, a := range args {
			v, err := convert.IntoJS(ctx, a)
			if err != nil {
				return err
			}
			vals[i] = v
		}

		res, err = ctx.Call(fn, vm.Undefined(), vals...)
		if err != nil {
			ctx.Catch()
			return err
		}
		return nil
	})
	if err != nil {
		return vm.Undefined(), err
	}
	return res, nil
}

// LoadWASM compiles a core wasm module and registers it as the native module
// name. Its function exports are bound when the module is first imported.
func (r *Runtime) LoadWASM(ctx context.Context, name string, wasm []byte) (*wasmmod.Module, error) {
	wm, err := wasmmod.Compile(ctx, r.wasm, name, wasm)
	if err != nil {
		return nil, err
	}
	if err := r.register(name, sourceWasm, wm.Def(ctx)); err != nil {
		_ = wm.Close(ctx)
		return nil, err
	}

	r.mu.Lock()
	r.wasmMods = append(r.wasmMods, wm)
	r.mu.Unlock()
	return wm, nil
}

// Close releases wasm modules, the wazero runtime and the engine runtime.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	mods := r.wasmMods
	r.wasmMods = nil
	r.mu.Unlock()

	var firstErr error
	for _, wm := range mods {
		if err := wm.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.wasm.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	r.vm.Handles().Unsubscribe(r.records)
	if err := r.vm.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
