// Package errors provides structured error types for jsbind.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: value path, Go/JS type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseFromJS, errors.KindTypeMismatch).
//		Path("args", "1").
//		GoType("int32").
//		JSType("string").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotEnoughArgs()
//	err := errors.FromJS(path, "string", "int32", nil)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two errors match under errors.Is when phase and kind are equal.
package errors
