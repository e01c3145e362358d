// Package convert moves values across the engine boundary.
//
// FromJS converts a vm.Value into a Go type and IntoJS converts back. Types
// can take over their own conversion by implementing Unmarshaler (pointer
// receiver) or Marshaler.
//
// Mapping:
//
//	Go type                 engine value
//	─────────────────────────────────────────────
//	bool                    bool (strict)
//	intN, uintN             int, or integral float (range checked)
//	float32, float64        int or float
//	string                  string
//	[]T, [N]T               array
//	map[string]T            object (own properties; keys sorted on output)
//	struct                  object (js tag, else lowerCamel field name)
//	*T                      null/undefined ↔ nil, else T
//	any                     natural mapping (int → int64, object → map)
//	vm.Value, *vm.Object    passed through
//
// An object whose opaque payload is assignable to the target type converts
// to that payload, which is how class instances reach native methods.
//
// Conversion errors carry the path of the failing element, e.g. args.1.[2].
package convert
