package vm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
)

// Config holds configuration for runtime creation
type Config struct {
	// MaxCallDepth bounds nested native calls. 0 means default (256).
	MaxCallDepth int

	// MaxModules caps the number of module records per context. Creating a
	// record beyond the cap fails as an allocation failure. 0 means no cap.
	MaxModules int

	// DisableArityCheck turns off the early rejection of calls that supply
	// fewer arguments than the function's declared length.
	DisableArityCheck bool
}

// Runtime owns state shared by its contexts: the atom table and the handle
// table. A Runtime and its contexts must be used from one goroutine at a
// time; With serializes access.
type Runtime struct {
	atoms   *atomTable
	handles *HandleTable
	config  Config
	mu      sync.Mutex
}

// NewRuntime creates a runtime. A nil config uses defaults.
func NewRuntime(cfg *Config) *Runtime {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.MaxCallDepth <= 0 {
		c.MaxCallDepth = 256
	}
	return &Runtime{
		atoms:   newAtomTable(),
		handles: NewHandleTable(),
		config:  c,
	}
}

// Handles returns the runtime's handle table.
func (r *Runtime) Handles() *HandleTable { return r.handles }

// Close releases all handles. Contexts must not be used afterwards.
func (r *Runtime) Close() error {
	return r.handles.Close()
}

// Context is one realm: a global object, intrinsic prototypes, registered
// class prototypes and the module table.
type Context struct {
	rt        *Runtime
	global    *Object
	objProto  *Object
	funcProto *Object
	pending   *Exception
	classes   map[ClassID]*Object
	loaders   map[string]ModuleInitFunc
	modules   []*ModuleDef
	depth     int
	nextClass ClassID
}

// NewContext creates a context with fresh intrinsics.
func (r *Runtime) NewContext() *Context {
	objProto := NewObject()
	funcProto := NewObject()
	_ = funcProto.SetProto(objProto)

	global := NewObject()
	_ = global.SetProto(objProto)

	return &Context{
		rt:        r,
		global:    global,
		objProto:  objProto,
		funcProto: funcProto,
		classes:   make(map[ClassID]*Object),
		loaders:   make(map[string]ModuleInitFunc),
	}
}

// Runtime returns the owning runtime.
func (c *Context) Runtime() *Runtime { return c.rt }

// With runs fn with exclusive access to the context.
func (c *Context) With(fn func(ctx Ctx) error) error {
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()
	return fn(Ctx{c: c})
}

// Ctx returns a token for the context. Callers must not use it concurrently
// with With.
func (c *Context) Ctx() Ctx { return Ctx{c: c} }

// Ctx is a copyable token for a Context, passed through native calls.
type Ctx struct {
	c *Context
}

// Context returns the context behind the token.
func (ctx Ctx) Context() *Context { return ctx.c }

// Valid reports whether the token refers to a context.
func (ctx Ctx) Valid() bool { return ctx.c != nil }

// Global returns the global object.
func (ctx Ctx) Global() *Object { return ctx.c.global }

// NewObject creates an object linked to Object.prototype.
func (ctx Ctx) NewObject() *Object {
	o := NewObject()
	o.proto = ctx.c.objProto
	return o
}

// ObjectPrototype returns the context's Object.prototype.
func (ctx Ctx) ObjectPrototype() *Object { return ctx.c.objProto }

// NewFunction creates a native function object with the given declared length.
func (ctx Ctx) NewFunction(name string, length uint32, call NativeFunc) *Function {
	f := &Function{
		Object: Object{props: make(map[string]Value), proto: ctx.c.funcProto},
		call:   call,
		name:   name,
		length: length,
	}
	Logger().Debug("function created", zap.String("name", name), zap.Uint32("length", length))
	return f
}

// Call invokes fn with the given receiver.
func (ctx Ctx) Call(fn Value, this Value, args ...Value) (Value, error) {
	f, ok := fn.AsFunction()
	if !ok {
		return Undefined(), ctx.throw(errors.New(errors.PhaseEngine, errors.KindTypeMismatch).
			JSType(fn.TypeName()).
			Detail("value is not a function").
			Build())
	}
	return ctx.invoke(f, this, args)
}

// Construct invokes fn in construct mode; fn itself is passed as new-target
// in the receiver slot.
func (ctx Ctx) Construct(fn Value, args ...Value) (Value, error) {
	f, ok := fn.AsFunction()
	if !ok || !f.constructor {
		return Undefined(), ctx.throw(errors.New(errors.PhaseEngine, errors.KindTypeMismatch).
			JSType(fn.TypeName()).
			Detail("value is not a constructor").
			Build())
	}
	return ctx.invoke(f, fn, args)
}

func (ctx Ctx) invoke(f *Function, this Value, args []Value) (Value, error) {
	c := ctx.c
	if c.depth >= c.rt.config.MaxCallDepth {
		return Undefined(), ctx.throw(errors.New(errors.PhaseEngine, errors.KindOverflow).
			Detail("maximum call depth %d exceeded", c.rt.config.MaxCallDepth).
			Build())
	}
	if !c.rt.config.DisableArityCheck && uint32(len(args)) < f.length {
		return Undefined(), ctx.throw(errors.NotEnoughArgs())
	}

	c.depth++
	defer func() { c.depth-- }()

	res, err := f.call(ctx, this, args)
	if err != nil {
		return Undefined(), ctx.throw(err)
	}
	return res, nil
}

// Exception is a script-visible exception raised from a native error.
type Exception struct {
	Cause   error
	Value   Value
	Message string
}

func (e *Exception) Error() string {
	return "Error: " + e.Message
}

func (e *Exception) Unwrap() error { return e.Cause }

// Throw makes err the pending exception and returns it as an *Exception.
func (ctx Ctx) Throw(err error) *Exception {
	return ctx.throw(err)
}

func (ctx Ctx) throw(err error) *Exception {
	exc, ok := err.(*Exception)
	if !ok {
		msg := err.Error()
		obj := ctx.NewObject()
		obj.Set("message", String(msg))
		exc = &Exception{Cause: err, Value: ObjectOf(obj), Message: msg}
	}
	ctx.c.pending = exc
	return exc
}

// Catch returns and clears the pending exception.
func (ctx Ctx) Catch() *Exception {
	exc := ctx.c.pending
	ctx.c.pending = nil
	return exc
}

// HasException reports whether an exception is pending.
func (ctx Ctx) HasException() bool { return ctx.c.pending != nil }

// ClassID identifies a registered class within a context.
type ClassID uint32

// Class is a registered native class with a statically known prototype.
type Class struct {
	name string
	id   ClassID
}

func (c *Class) Name() string { return c.name }

func (c *Class) ID() ClassID { return c.id }

// RegisterClass registers a class and creates its prototype object.
func (ctx Ctx) RegisterClass(name string) *Class {
	c := ctx.c
	c.nextClass++
	cls := &Class{name: name, id: c.nextClass}
	proto := ctx.NewObject()
	c.classes[cls.id] = proto
	Logger().Debug("class registered", zap.String("name", name), zap.Uint32("id", uint32(cls.id)))
	return cls
}

// ClassPrototype returns the registered prototype of cls.
func (ctx Ctx) ClassPrototype(cls *Class) (*Object, error) {
	if cls == nil {
		return nil, errors.InvalidInput(errors.PhaseEngine, "nil class")
	}
	proto, ok := ctx.c.classes[cls.id]
	if !ok {
		return nil, errors.NotFound(errors.PhaseEngine, "class", cls.name)
	}
	return proto, nil
}

// NewAtom interns s.
func (ctx Ctx) NewAtom(s string) Atom {
	return ctx.c.rt.atoms.intern(s)
}

// AtomString returns the string an atom was interned from.
func (ctx Ctx) AtomString(a Atom) (string, error) {
	s, ok := ctx.c.rt.atoms.lookup(a)
	if !ok {
		return "", errors.New(errors.PhaseEngine, errors.KindNotFound).
			Detail("invalid atom %d", uint32(a)).
			Build()
	}
	return s, nil
}

func (ctx Ctx) String() string {
	return fmt.Sprintf("Ctx(%p)", ctx.c)
}
