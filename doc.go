// Package jsbind binds Go functions and native modules to an embedded
// JavaScript-style engine.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jsbind/
//	├── vm/          Engine value model, contexts, native module records
//	├── convert/     Conversion between engine values and Go values
//	├── function/    Callable adapters: argument cursor, shapes, constructors
//	├── module/      Two-phase native module lifecycle and export iteration
//	├── wasmmod/     Core wasm modules exposed as native modules (wazero)
//	├── runtime/     Runtime wiring: host registry, loaders, wasm modules
//	├── manifest/    YAML module manifests, validation and JSON schema
//	├── errors/      Structured error types for debugging
//	└── cmd/jsbind/  Command line runner with an interactive mode
//
// # Quick Start
//
// Expose a Go function as an engine function:
//
//	rt := vm.NewRuntime(nil)
//	ctx := rt.NewContext().Ctx()
//
//	fn, err := function.New(ctx, "add", func(a, b int) int { return a + b })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := ctx.Call(vm.FunctionOf(fn), vm.Undefined(), vm.Int(1), vm.Int(2)) // 3
//
// A parameter of type vm.Ctx receives the calling context, function.This[T]
// receives the receiver and function.Rest[T] collects the remaining
// arguments. Missing arguments raise "Not enough arguments".
//
// # Native Modules
//
// A module.Def declares export names before the module record exists and
// assigns their values once the engine instantiates it:
//
//	def := module.Funcs{
//	    Before: func(ctx vm.Ctx, p *module.Pending) error {
//	        return p.Add("a")
//	    },
//	    After: func(ctx vm.Ctx, m *module.Module) error {
//	        return m.Set("a", 2)
//	    },
//	}
//	module.Register(ctx, "my/mod", def)
//	m, err := module.Import(ctx, "my/mod")
//
// # Runtime
//
// runtime.Runtime combines an engine context with host registration and
// wasm loading:
//
//	rt, err := runtime.New(ctx)
//	defer rt.Close(ctx)
//
//	rt.RegisterHost(&MathHost{})             // methods become exports
//	rt.LoadWASM(ctx, "wasm/math", wasmBytes) // function exports become callables
//	res, err := rt.Call("wasm/math", "add", 1, 2)
//
// # Error Handling
//
// Errors are structured with phase and kind information:
//
//	var e *errors.Error
//	if stderrors.As(err, &e) {
//	    fmt.Println(e.Phase, e.Kind, e.Path)
//	}
package jsbind
