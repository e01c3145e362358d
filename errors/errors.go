package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseFromJS   Phase = "from_js"  // engine value to Go
	PhaseIntoJS   Phase = "into_js"  // Go to engine value
	PhaseBind     Phase = "bind"     // callable shape analysis
	PhaseCall     Phase = "call"     // native callable invocation
	PhaseModule   Phase = "module"   // native module lifecycle
	PhaseLoad     Phase = "load"     // module loading and import
	PhaseHost     Phase = "host"     // host registration
	PhaseEngine   Phase = "engine"   // engine value model operations
	PhaseManifest Phase = "manifest" // manifest parsing and validation
)

// Kind categorizes the error
type Kind string

const (
	KindArity         Kind = "arity"
	KindTypeMismatch  Kind = "type_mismatch"
	KindOverflow      Kind = "overflow"
	KindAllocation    Kind = "allocation"
	KindNameEncoding  Kind = "name_encoding"
	KindShape         Kind = "shape"
	KindNotFound      Kind = "not_found"
	KindInstantiation Kind = "instantiation"
	KindReentrant     Kind = "reentrant"
	KindInvalidInput  Kind = "invalid_input"
	KindRegistration  Kind = "registration"
	KindUnsupported   Kind = "unsupported"
	KindException     Kind = "exception"
)

// NotEnoughArgsMessage is the fixed detail of argument-arity errors.
const NotEnoughArgsMessage = "Not enough arguments"

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	JSType string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.JSType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.JSType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", JS type ")
			b.WriteString(e.JSType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("JS type ")
			b.WriteString(e.JSType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.JSType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HasKind reports whether any *Error in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// JSType sets the engine type name
func (b *Builder) JSType(t string) *Builder {
	b.err.JSType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotEnoughArgs creates the argument-arity error raised when the argument
// cursor runs dry before every positional parameter was filled.
func NotEnoughArgs() *Error {
	return &Error{
		Phase:  PhaseFromJS,
		Kind:   KindArity,
		Path:   []string{"args"},
		Detail: NotEnoughArgsMessage,
	}
}

// FromJS creates a conversion error for an engine value that could not be
// converted into goType.
func FromJS(path []string, jsType, goType string, cause error) *Error {
	return &Error{
		Phase:  PhaseFromJS,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		JSType: jsType,
		Cause:  cause,
	}
}

// IntoJS creates a conversion error for a Go value that could not be
// converted into an engine value.
func IntoJS(goType, jsType string, cause error) *Error {
	return &Error{
		Phase:  PhaseIntoJS,
		Kind:   KindTypeMismatch,
		GoType: goType,
		JSType: jsType,
		Cause:  cause,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %s", what),
	}
}

// NameEncoding creates an error for a name that cannot be represented as an
// engine string.
func NameEncoding(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNameEncoding,
		Detail: fmt.Sprintf("name %q contains a NUL byte", name),
		Value:  name,
	}
}

// Shape creates a shape violation error
func Shape(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindShape,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Reentrant creates the error returned when a mutable callable is entered
// while it is already running.
func Reentrant(name string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindReentrant,
		Detail: fmt.Sprintf("mutable function %q is already running", name),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, module, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", module, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error for the named module
func Instantiation(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseModule,
		Kind:   KindInstantiation,
		Detail: fmt.Sprintf("instantiate module %q", module),
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotFound,
		Detail: detail,
		Cause:  cause,
	}
}
