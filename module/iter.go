package module

import (
	"github.com/wippyai/jsbind/convert"
	"github.com/wippyai/jsbind/vm"
)

// iter walks the export table. The entry count is read once, so exports
// declared during iteration are not visited.
type iter struct {
	err   error
	value vm.Value
	h     handle
	name  string
	count int
	pos   int
}

func newIter(h handle) iter {
	return iter{h: h, count: h.ctx.ModuleExportEntriesCount(h.def)}
}

func (it *iter) next() bool {
	if it.err != nil || it.pos >= it.count {
		return false
	}
	i := it.pos
	it.pos++

	name, err := it.h.ctx.AtomString(it.h.ctx.ModuleExportEntryName(it.h.def, i))
	if err != nil {
		it.err = err
		return false
	}
	it.name = name
	it.value = it.h.ctx.ModuleExportEntry(it.h.def, i)
	return true
}

// Len returns the number of entries not yet visited.
func (it *iter) Len() int { return it.count - it.pos }

// Err returns the error that stopped iteration, if any.
func (it *iter) Err() error { return it.err }

// Names iterates export names.
//
//	it := m.Names()
//	for it.Next() {
//	    fmt.Println(it.Name())
//	}
//	if err := it.Err(); err != nil { ... }
type Names struct {
	iter
}

// Next advances to the next name.
func (n *Names) Next() bool { return n.next() }

// Name returns the current export name.
func (n *Names) Name() string { return n.name }

// Entries iterates export name and value pairs.
type Entries struct {
	iter
}

// Next advances to the next entry.
func (e *Entries) Next() bool { return e.next() }

// Name returns the current export name.
func (e *Entries) Name() string { return e.name }

// Value returns the current export value.
func (e *Entries) Value() vm.Value { return e.value }

// Entry is one export.
type Entry[T any] struct {
	Name  string
	Value T
}

// CollectEntries drains the remaining entries of it, converting each value
// into T.
func CollectEntries[T any](m *Module, it *Entries) ([]Entry[T], error) {
	out := make([]Entry[T], 0, it.Len())
	for it.Next() {
		v, err := convert.To[T](m.ctx, it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, Entry[T]{Name: it.Name(), Value: v})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
