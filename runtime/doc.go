// Package runtime provides the high-level API for native modules.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Expose a Go function as an export of module "math"
//	rt.RegisterFunc("math", "add", func(a, b int) int { return a + b })
//
//	// Call it through the engine
//	res, err := rt.Call("math", "add", 2, 3)
//	fmt.Println(res) // 5
//
// # Module Sources
//
// The runtime loads native modules from three sources:
//
//	RegisterModule(name, def)  - a module.Def with its own lifecycle hooks
//	RegisterHost(h)            - every exported method of a struct
//	LoadWASM(ctx, name, bytes) - the function exports of a core wasm module
//
// Each source only installs a loader. Modules are created and instantiated
// on first Import, and instantiated at most once.
//
// # Host Modules
//
// Implement Host to export a struct's methods under one module name:
//
//	type Clock struct{}
//
//	func (Clock) Namespace() string { return "host/clock" }
//	func (Clock) NowUnix() int64    { return time.Now().Unix() }
//
//	rt.RegisterHost(Clock{})  // exports "nowUnix"
//
// Method names are converted from PascalCase to camelCase. Hosts that need
// other names implement ExplicitRegistrar. Hosts implementing MutableHost
// list functions that must not be re-entered while running.
//
// # Thread Safety
//
// The engine context is single threaded. Runtime methods serialize access
// with a mutex; use With to run several operations under one lock.
package runtime
