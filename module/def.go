package module

import "github.com/wippyai/jsbind/vm"

// Def defines a native module. BeforeInit runs when the module record is
// created and declares the export names; AfterInit runs when the engine
// instantiates the module and assigns the export values.
type Def interface {
	BeforeInit(ctx vm.Ctx, m *Pending) error
	AfterInit(ctx vm.Ctx, m *Module) error
}

// NopDef provides no-op hooks. Embed it to implement only one of them.
type NopDef struct{}

func (NopDef) BeforeInit(vm.Ctx, *Pending) error { return nil }

func (NopDef) AfterInit(vm.Ctx, *Module) error { return nil }

// Funcs adapts two closures to Def. A nil closure is a no-op.
type Funcs struct {
	Before func(ctx vm.Ctx, m *Pending) error
	After  func(ctx vm.Ctx, m *Module) error
}

func (f Funcs) BeforeInit(ctx vm.Ctx, m *Pending) error {
	if f.Before == nil {
		return nil
	}
	return f.Before(ctx, m)
}

func (f Funcs) AfterInit(ctx vm.Ctx, m *Module) error {
	if f.After == nil {
		return nil
	}
	return f.After(ctx, m)
}
