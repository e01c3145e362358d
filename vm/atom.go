package vm

import "sync"

// Atom is an interned engine identifier. The zero Atom is invalid.
type Atom uint32

type atomTable struct {
	byName map[string]Atom
	names  []string
	mu     sync.RWMutex
}

func newAtomTable() *atomTable {
	return &atomTable{
		byName: make(map[string]Atom),
		names:  []string{""},
	}
}

func (t *atomTable) intern(s string) Atom {
	t.mu.RLock()
	a, ok := t.byName[s]
	t.mu.RUnlock()
	if ok {
		return a
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.byName[s]; ok {
		return a
	}
	a = Atom(len(t.names))
	t.names = append(t.names, s)
	t.byName[s] = a
	return a
}

func (t *atomTable) lookup(a Atom) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if a == 0 || int(a) >= len(t.names) {
		return "", false
	}
	return t.names[a], true
}
