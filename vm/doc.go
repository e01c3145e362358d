// Package vm is the embedded script engine boundary used by the binding
// layers: tagged values, objects with prototype chains, native functions,
// registered classes, exceptions, atoms and the native module table.
//
// # Contexts
//
// A Runtime owns the atom table and the handle table. Each Context is a
// realm with its own global object and intrinsic prototypes. Native code
// receives a Ctx token, a copyable reference to the calling context:
//
//	rt := vm.NewRuntime(nil)
//	c := rt.NewContext()
//	err := c.With(func(ctx vm.Ctx) error {
//	    fn := ctx.NewFunction("add", 2, add)
//	    res, err := ctx.Call(vm.FunctionOf(fn), vm.Undefined(), vm.Int(1), vm.Int(2))
//	    ...
//	})
//
// # Calls
//
// Every native function uses the NativeFunc convention (ctx, this, args).
// The engine rejects a call that supplies fewer arguments than the
// function's declared length before the native code runs, unless
// Config.DisableArityCheck is set. An error returned from native code
// becomes the pending exception and is surfaced to the caller as an
// *Exception wrapping the original error.
//
// In construct mode (Ctx.Construct) the receiver slot carries the
// new-target function itself.
//
// # Modules
//
// Native modules follow a two step lifecycle:
//
//	NewCModule          allocate a record bound to an instantiation callback
//	AddModuleExport     declare export names (before instantiation)
//	InstantiateModule   run the callback once; it assigns export values
//
// The callback reports failure with a negative status and leaves the cause
// pending via Ctx.Throw. A failed record keeps its error; further imports
// report it without re-running the callback.
package vm
