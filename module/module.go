package module

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/convert"
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/function"
	"github.com/wippyai/jsbind/vm"
)

// handle is the state shared by both lifecycle phases.
type handle struct {
	ctx vm.Ctx
	def *vm.ModuleDef
}

// name resolves the record's name atom. A record whose atom cannot be
// resolved in ctx yields "" and the failure is logged.
func (h handle) name() string {
	s, err := h.ctx.AtomString(h.ctx.ModuleName(h.def))
	if err != nil {
		Logger().Debug("module name unavailable",
			zap.Uint32("handle", uint32(h.def.Handle())),
			zap.Error(err))
		return ""
	}
	return s
}

// Pending is a module before initialization. Exports can only be declared
// in this phase.
type Pending struct {
	handle
}

// Add declares an export.
func (p *Pending) Add(name string) error {
	if err := checkName(errors.PhaseModule, name); err != nil {
		return err
	}
	return p.ctx.AddModuleExport(p.def, name)
}

// Name returns the module name.
func (p *Pending) Name() string { return p.name() }

// Meta returns the module's import.meta object.
func (p *Pending) Meta() *vm.Object { return p.ctx.ImportMeta(p.def) }

// Def returns the underlying engine record.
func (p *Pending) Def() *vm.ModuleDef { return p.def }

// Equal reports whether both handles refer to the same module record.
func (p *Pending) Equal(other *Pending) bool {
	return other != nil && p.def == other.def
}

// Module is an instantiated module, or one being instantiated. Declared
// exports can be assigned and read.
type Module struct {
	handle
}

// Set converts value and assigns it to a declared export. Go funcs and
// function.Callable values are bound as engine functions named after the
// export.
func (m *Module) Set(name string, value any) error {
	if err := checkName(errors.PhaseModule, name); err != nil {
		return err
	}
	v, err := m.toValue(name, value)
	if err != nil {
		return err
	}
	return m.ctx.SetModuleExport(m.def, name, v)
}

func (m *Module) toValue(name string, value any) (vm.Value, error) {
	switch x := value.(type) {
	case function.Callable:
		fn, err := function.New(m.ctx, name, x)
		if err != nil {
			return vm.Undefined(), err
		}
		return vm.FunctionOf(fn), nil
	case nil:
		return vm.Undefined(), nil
	}
	if reflect.TypeOf(value).Kind() == reflect.Func {
		fn, err := function.New(m.ctx, name, value)
		if err != nil {
			return vm.Undefined(), err
		}
		return vm.FunctionOf(fn), nil
	}
	return convert.IntoJS(m.ctx, value)
}

// Get reads an export.
func (m *Module) Get(name string) (vm.Value, error) {
	if err := checkName(errors.PhaseModule, name); err != nil {
		return vm.Undefined(), err
	}
	return m.ctx.GetModuleExport(m.def, name)
}

// Name returns the module name.
func (m *Module) Name() string { return m.name() }

// Meta returns the module's import.meta object.
func (m *Module) Meta() *vm.Object { return m.ctx.ImportMeta(m.def) }

// Def returns the underlying engine record.
func (m *Module) Def() *vm.ModuleDef { return m.def }

// Value returns the module as an engine value.
func (m *Module) Value() vm.Value { return vm.ModuleOf(m.def) }

// Equal reports whether both handles refer to the same module record.
func (m *Module) Equal(other *Module) bool {
	return other != nil && m.def == other.def
}

// Names returns an iterator over export names in declaration order.
func (m *Module) Names() *Names {
	return &Names{iter: newIter(m.handle)}
}

// Entries returns an iterator over exports in declaration order.
func (m *Module) Entries() *Entries {
	return &Entries{iter: newIter(m.handle)}
}

// DumpExports logs every export name at debug level.
func (m *Module) DumpExports() {
	name := m.Name()
	it := m.Names()
	for it.Next() {
		Logger().Debug("module export", zap.String("module", name), zap.String("export", it.Name()))
	}
	if err := it.Err(); err != nil {
		Logger().Debug("module export listing failed", zap.String("module", name), zap.Error(err))
	}
}

// GetAs reads an export and converts it into T.
func GetAs[T any](m *Module, name string) (T, error) {
	var zero T
	v, err := m.Get(name)
	if err != nil {
		return zero, err
	}
	return convert.To[T](m.ctx, v)
}

// FromValue returns the module behind a module value, or false when v is not
// an instantiated module.
func FromValue(ctx vm.Ctx, v vm.Value) (*Module, bool) {
	def, ok := v.AsModule()
	if !ok || !def.Instantiated() {
		return nil, false
	}
	return &Module{handle{ctx: ctx, def: def}}, true
}

func checkName(phase errors.Phase, name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return errors.NameEncoding(phase, name)
	}
	return nil
}
