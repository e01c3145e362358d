// Package wasmmod exposes core WebAssembly modules as native modules.
//
// A module is compiled with wazero; its function exports whose parameter and
// result types are numeric (i32, i64, f32, f64) become module exports. The
// wasm instance is created when the engine instantiates the native module,
// so a module that is never imported is never instantiated.
//
//	rt := wazero.NewRuntime(ctx)
//	wm, err := wasmmod.Compile(ctx, rt, "math", wasmBytes)
//	module.Register(vmctx, "math", wm.Def(ctx))
//	m, err := module.Import(vmctx, "math")
//
// Modules importing wasi_snapshot_preview1 get wazero's WASI implementation
// instantiated in the same runtime.
package wasmmod
