// Package module implements native modules with a two phase lifecycle.
//
// A Def declares its exports in BeforeInit, while the engine creates the
// module record, and assigns their values in AfterInit, when the engine
// instantiates it. The phases are distinct types: *Pending can only declare
// exports and *Module can only assign and read them.
//
//	type mathDef struct{}
//
//	func (mathDef) BeforeInit(ctx vm.Ctx, m *module.Pending) error {
//	    return m.Add("add")
//	}
//
//	func (mathDef) AfterInit(ctx vm.Ctx, m *module.Module) error {
//	    return m.Set("add", func(a, b int) int { return a + b })
//	}
//
//	module.Register(ctx, "math", mathDef{})
//	m, err := module.Import(ctx, "math")
//
// AfterInit runs at most once per record. If it fails, instantiation fails
// and later imports report the same error without running it again.
package module
