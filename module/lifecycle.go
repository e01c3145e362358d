package module

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/vm"
)

// New creates a module record named name and runs def.BeforeInit on it.
// AfterInit runs later, when the engine instantiates the module. A record
// whose BeforeInit fails is discarded.
func New(ctx vm.Ctx, name string, def Def) (*Pending, error) {
	if def == nil {
		return nil, errors.InvalidInput(errors.PhaseModule, "module definition is nil")
	}
	if err := checkName(errors.PhaseModule, name); err != nil {
		return nil, err
	}

	rec := ctx.NewCModule(name, instantiate(def))
	if rec == nil {
		return nil, errors.AllocationFailed(errors.PhaseModule, "module "+name)
	}

	p := &Pending{handle{ctx: ctx, def: rec}}
	if err := def.BeforeInit(ctx, p); err != nil {
		ctx.FreeModule(rec)
		Logger().Debug("module before-init failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	Logger().Debug("module declared",
		zap.String("name", name),
		zap.Int("exports", ctx.ModuleExportEntriesCount(rec)))
	return p, nil
}

// instantiate returns the engine callback that runs def.AfterInit. A failing
// hook leaves its error pending on the context and reports -1.
func instantiate(def Def) vm.ModuleInstantiateFunc {
	return func(ctx vm.Ctx, rec *vm.ModuleDef) int {
		m := &Module{handle{ctx: ctx, def: rec}}
		if err := def.AfterInit(ctx, m); err != nil {
			Logger().Debug("module after-init failed", zap.String("name", m.Name()), zap.Error(err))
			ctx.Throw(err)
			return -1
		}
		return 0
	}
}

// Loader returns the entry point the engine's module loader calls to create
// the module. It yields nil when creation fails, leaving the cause pending.
func Loader(def Def) vm.ModuleInitFunc {
	return func(ctx vm.Ctx, name string) *vm.ModuleDef {
		p, err := New(ctx, name, def)
		if err != nil {
			ctx.Throw(err)
			return nil
		}
		return p.def
	}
}

// Register installs def as the loader for name.
func Register(ctx vm.Ctx, name string, def Def) {
	ctx.RegisterLoader(name, Loader(def))
}

// Import loads and instantiates the module registered under name.
func Import(ctx vm.Ctx, name string) (*Module, error) {
	rec, err := ctx.Import(name)
	if err != nil {
		return nil, err
	}
	return &Module{handle{ctx: ctx, def: rec}}, nil
}

// Instantiate instantiates a pending module directly, without going through
// a loader.
func Instantiate(p *Pending) (*Module, error) {
	if err := p.ctx.InstantiateModule(p.def); err != nil {
		return nil, err
	}
	return &Module{p.handle}, nil
}
