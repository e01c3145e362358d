package vm

import (
	"errors"
	"sync"
)

// ErrClosed is returned when inserting into a closed handle table.
var ErrClosed = errors.New("handle table closed")

// Handle is an opaque, non-zero reference to an engine-owned record.
type Handle uint32

// EventType identifies a handle lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota + 1
	EventDropped
)

// Event describes a handle lifecycle change.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives handle lifecycle events.
type Observer interface {
	OnHandleEvent(e Event)
}

// HandleTable maps integer handles to engine records. Freed handles are
// reused.
type HandleTable struct {
	entries   []handleEntry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type handleEntry struct {
	value  any
	typeID uint32
	valid  bool
}

// NewHandleTable creates an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{
		entries:  make([]handleEntry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert adds a value and returns its handle, or 0 when the table is closed.
func (t *HandleTable) Insert(typeID uint32, value any) Handle {
	h, err := t.create(typeID, value)
	if err != nil {
		return 0
	}
	t.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: value})
	return h
}

func (t *HandleTable) create(typeID uint32, value any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	e := handleEntry{typeID: typeID, value: value, valid: true}
	if len(t.freeList) > 0 {
		h := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = e
		return h, nil
	}

	t.entries = append(t.entries, e)
	return Handle(len(t.entries)), nil
}

// Get retrieves a value by handle.
func (t *HandleTable) Get(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return nil, false
	}
	return t.entries[idx].value, true
}

// GetTyped retrieves a value only if it was inserted with typeID.
func (t *HandleTable) GetTyped(h Handle, typeID uint32) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h) - 1
	if idx >= len(t.entries) {
		return nil, false
	}
	e := t.entries[idx]
	if !e.valid || e.typeID != typeID {
		return nil, false
	}
	return e.value, true
}

// Remove frees a handle and returns its value.
func (t *HandleTable) Remove(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.Lock()
	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		t.mu.Unlock()
		return nil, false
	}
	e := t.entries[idx]
	t.entries[idx] = handleEntry{}
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	t.notify(Event{Type: EventDropped, Handle: h, TypeID: e.typeID, Value: e.value})
	return e.value, true
}

// Len returns the number of live handles.
func (t *HandleTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries) - len(t.freeList)
}

// Subscribe adds an observer for lifecycle events.
func (t *HandleTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *HandleTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops every entry and stops accepting inserts.
func (t *HandleTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *HandleTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
