// Package manifest declares wasm-backed native modules in YAML.
//
// A manifest lists modules by name and wasm path:
//
//	memoryLimitPages: 16
//	modules:
//	  - name: wasm/math
//	    wasm: math.wasm
//	    exports: [add, mul]
//
// Parse checks field constraints with validator tags, Schema emits the JSON
// schema of the format and ValidateDocument checks a raw document against
// it. Install compiles each binary and registers it with a runtime.Runtime.
package manifest
