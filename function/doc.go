// Package function adapts Go callables to the engine's native calling
// convention.
//
// Any Go func can be bound. Its parameters are classified into slots:
//
//	vm.Ctx           the calling context (first parameter only)
//	This[T]          the call's this value, converted to T
//	Rest[T], ...T    every remaining argument (last parameter only)
//	anything else    one positional argument, converted with package convert
//
// Results may be nothing, a value, an error, or a value and an error.
//
//	func add(a, b int) int
//	func greet(ctx vm.Ctx, this function.This[*Person], greeting string) (string, error)
//	func sum(first int, rest ...int) int
//
// The function's length is the number of positional slots. A call with fewer
// arguments fails with "Not enough arguments"; extra arguments are ignored
// unless a rest slot collects them.
//
// Method binds a func whose first parameter (after vm.Ctx) is the receiver.
// Mut makes a callable exclusive: a call that re-enters it while it runs
// fails with a reentrant error. Constructor binds a class constructor; the
// returned value must convert to an object and is linked to the prototype of
// the new-target (or of the class when called without new).
//
//	cls := ctx.RegisterClass("Point")
//	ctor, err := function.New(ctx, "Point", function.Constructor(cls, newPoint))
//	move, err := function.New(ctx, "move", function.Method((*Point).Move))
package function
