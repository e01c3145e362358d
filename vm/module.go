package vm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
)

// ModuleInitFunc is a native module's load entry point. The module loader
// calls it with the requested module name; it returns the created record, or
// nil when the module could not be created.
type ModuleInitFunc func(ctx Ctx, name string) *ModuleDef

// ModuleInstantiateFunc runs when the engine instantiates a native module. It
// returns 0 on success and a negative status on failure; a failing callback
// should leave the cause pending via Ctx.Throw.
type ModuleInstantiateFunc func(ctx Ctx, m *ModuleDef) int

type moduleState uint8

const (
	moduleCreated moduleState = iota
	moduleInstantiating
	moduleInstantiated
	moduleFailed
)

type exportEntry struct {
	value Value
	name  Atom
}

// ModuleDef is an engine module record. It is owned by the context's module
// table; identity is the record handle.
type ModuleDef struct {
	err     error
	init    ModuleInstantiateFunc
	meta    *Object
	index   map[Atom]int
	exports []exportEntry
	handle  Handle
	name    Atom
	state   moduleState
}

// Handle returns the record's handle in the runtime handle table.
func (m *ModuleDef) Handle() Handle { return m.handle }

// Instantiated reports whether instantiation completed successfully.
func (m *ModuleDef) Instantiated() bool { return m.state == moduleInstantiated }

// HandleModule is the handle-table type of module records.
const HandleModule uint32 = 1

// NewCModule allocates a native module record bound to an instantiation
// callback. It returns nil when the record cannot be allocated.
func (ctx Ctx) NewCModule(name string, init ModuleInstantiateFunc) *ModuleDef {
	c := ctx.c
	if limit := c.rt.config.MaxModules; limit > 0 && len(c.modules) >= limit {
		Logger().Debug("module table full", zap.String("name", name), zap.Int("max", limit))
		return nil
	}

	m := &ModuleDef{
		init:  init,
		index: make(map[Atom]int),
		name:  ctx.NewAtom(name),
	}
	h := c.rt.handles.Insert(HandleModule, m)
	if h == 0 {
		return nil
	}
	m.handle = h
	c.modules = append(c.modules, m)

	Logger().Debug("module created", zap.String("name", name), zap.Uint32("handle", uint32(h)))
	return m
}

// FreeModule removes a record that never got instantiated, e.g. after its
// creation hook failed.
func (ctx Ctx) FreeModule(m *ModuleDef) {
	c := ctx.c
	for i, rec := range c.modules {
		if rec == m {
			c.modules = append(c.modules[:i], c.modules[i+1:]...)
			break
		}
	}
	c.rt.handles.Remove(m.handle)
}

// ModuleByHandle resolves a record handle.
func (ctx Ctx) ModuleByHandle(h Handle) (*ModuleDef, bool) {
	v, ok := ctx.c.rt.handles.GetTyped(h, HandleModule)
	if !ok {
		return nil, false
	}
	return v.(*ModuleDef), true
}

// Modules returns the context's module records in creation order.
func (ctx Ctx) Modules() []*ModuleDef {
	out := make([]*ModuleDef, len(ctx.c.modules))
	copy(out, ctx.c.modules)
	return out
}

// ModuleName returns the record's name atom.
func (ctx Ctx) ModuleName(m *ModuleDef) Atom { return m.name }

// ImportMeta returns the record's import.meta object, creating it on first use.
func (ctx Ctx) ImportMeta(m *ModuleDef) *Object {
	if m.meta == nil {
		m.meta = NewObject()
	}
	return m.meta
}

// AddModuleExport declares an export without a value.
func (ctx Ctx) AddModuleExport(m *ModuleDef, name string) error {
	a := ctx.NewAtom(name)
	if _, ok := m.index[a]; ok {
		return errors.New(errors.PhaseModule, errors.KindInvalidInput).
			Detail("duplicate export %q", name).
			Build()
	}
	m.index[a] = len(m.exports)
	m.exports = append(m.exports, exportEntry{name: a})
	return nil
}

// SetModuleExport assigns a declared export.
func (ctx Ctx) SetModuleExport(m *ModuleDef, name string, v Value) error {
	i, ok := m.index[ctx.NewAtom(name)]
	if !ok {
		return errors.NotFound(errors.PhaseModule, "export", name)
	}
	m.exports[i].value = v
	return nil
}

// GetModuleExport reads an export by name.
func (ctx Ctx) GetModuleExport(m *ModuleDef, name string) (Value, error) {
	i, ok := m.index[ctx.NewAtom(name)]
	if !ok {
		return Undefined(), errors.NotFound(errors.PhaseModule, "export", name)
	}
	return m.exports[i].value, nil
}

// ModuleExportEntriesCount returns the number of declared exports.
func (ctx Ctx) ModuleExportEntriesCount(m *ModuleDef) int { return len(m.exports) }

// ModuleExportEntryName returns the name atom of the i-th export.
func (ctx Ctx) ModuleExportEntryName(m *ModuleDef, i int) Atom {
	if i < 0 || i >= len(m.exports) {
		return 0
	}
	return m.exports[i].name
}

// ModuleExportEntry returns the value of the i-th export.
func (ctx Ctx) ModuleExportEntry(m *ModuleDef, i int) Value {
	if i < 0 || i >= len(m.exports) {
		return Undefined()
	}
	return m.exports[i].value
}

// RegisterLoader installs a native module entry point under name.
func (ctx Ctx) RegisterLoader(name string, init ModuleInitFunc) {
	ctx.c.loaders[name] = init
}

// HasLoader reports whether a loader is installed under name.
func (ctx Ctx) HasLoader(name string) bool {
	_, ok := ctx.c.loaders[name]
	return ok
}

// Import resolves a module by name, loading it through its registered loader
// when no record exists yet, and instantiates it.
func (ctx Ctx) Import(name string) (*ModuleDef, error) {
	m := ctx.findModule(name)
	if m == nil {
		init, ok := ctx.c.loaders[name]
		if !ok {
			return nil, errors.NotFound(errors.PhaseLoad, "module", name)
		}
		m = init(ctx, name)
		if m == nil {
			cause := ctx.pendingError("loader returned no module")
			Logger().Debug("module load failed", zap.String("name", name), zap.Error(cause))
			return nil, errors.Load(fmt.Sprintf("load module %q", name), cause)
		}
	}
	if err := ctx.InstantiateModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (ctx Ctx) findModule(name string) *ModuleDef {
	a := ctx.NewAtom(name)
	for i := len(ctx.c.modules) - 1; i >= 0; i-- {
		if ctx.c.modules[i].name == a {
			return ctx.c.modules[i]
		}
	}
	return nil
}

// InstantiateModule runs the record's instantiation callback once. A failed
// instantiation is remembered and reported again without re-running the
// callback.
func (ctx Ctx) InstantiateModule(m *ModuleDef) error {
	switch m.state {
	case moduleInstantiated, moduleInstantiating:
		return nil
	case moduleFailed:
		return m.err
	}

	name, _ := ctx.AtomString(m.name)
	m.state = moduleInstantiating

	status := 0
	if m.init != nil {
		status = m.init(ctx, m)
	}
	if status < 0 {
		cause := ctx.pendingError(fmt.Sprintf("module init returned status %d", status))
		m.err = errors.Instantiation(name, cause)
		m.state = moduleFailed
		Logger().Debug("module instantiation failed",
			zap.String("name", name),
			zap.Int("status", status),
			zap.Error(cause))
		return m.err
	}

	m.state = moduleInstantiated
	Logger().Debug("module instantiated", zap.String("name", name), zap.Int("exports", len(m.exports)))
	return nil
}

// pendingError takes the pending exception's cause, falling back to a plain
// error with msg when nothing was thrown.
func (ctx Ctx) pendingError(msg string) error {
	exc := ctx.Catch()
	if exc == nil {
		return fmt.Errorf("%s", msg)
	}
	if exc.Cause != nil {
		return exc.Cause
	}
	return exc
}
