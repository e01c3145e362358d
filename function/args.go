package function

import "github.com/wippyai/jsbind/vm"

// Args is the argument cursor of one call. It is consumed front to back and
// cannot be rewound.
type Args struct {
	vals []vm.Value
	pos  int
}

// NewArgs creates a cursor over vals.
func NewArgs(vals []vm.Value) *Args {
	return &Args{vals: vals}
}

// Next returns the next argument, or false when the cursor is exhausted.
func (a *Args) Next() (vm.Value, bool) {
	if a.pos >= len(a.vals) {
		return vm.Undefined(), false
	}
	v := a.vals[a.pos]
	a.pos++
	return v, true
}

// Len returns the number of arguments not yet consumed.
func (a *Args) Len() int { return len(a.vals) - a.pos }

// Pos returns the index of the next argument.
func (a *Args) Pos() int { return a.pos }
