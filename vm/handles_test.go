package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.events = append(o.events, e)
}

func TestHandleTable_Basic(t *testing.T) {
	table := NewHandleTable()

	h := table.Insert(1, "test")
	require.NotZero(t, h)

	val, ok := table.Get(h)
	require.True(t, ok)
	assert.Equal(t, "test", val)

	_, ok = table.GetTyped(h, 1)
	assert.True(t, ok)
	_, ok = table.GetTyped(h, 2)
	assert.False(t, ok, "wrong type id must not resolve")

	val, ok = table.Remove(h)
	require.True(t, ok)
	assert.Equal(t, "test", val)
	assert.Equal(t, 0, table.Len())

	_, ok = table.Get(h)
	assert.False(t, ok)
	_, ok = table.Remove(h)
	assert.False(t, ok, "double remove")
}

func TestHandleTable_ReusesFreedHandles(t *testing.T) {
	table := NewHandleTable()

	h1 := table.Insert(1, "a")
	h2 := table.Insert(1, "b")
	assert.NotEqual(t, h1, h2)

	table.Remove(h1)
	h3 := table.Insert(1, "c")
	assert.Equal(t, h1, h3)
	assert.Equal(t, 2, table.Len())
}

func TestHandleTable_Observer(t *testing.T) {
	table := NewHandleTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(7, "x")
	table.Remove(h)

	require.Len(t, obs.events, 2)
	assert.Equal(t, EventCreated, obs.events[0].Type)
	assert.Equal(t, EventDropped, obs.events[1].Type)
	assert.Equal(t, uint32(7), obs.events[1].TypeID)
	assert.Equal(t, h, obs.events[1].Handle)

	table.Unsubscribe(obs)
	table.Insert(1, "y")
	assert.Len(t, obs.events, 2)
}

func TestHandleTable_Closed(t *testing.T) {
	table := NewHandleTable()
	h := table.Insert(1, "a")
	require.NoError(t, table.Close())

	assert.Zero(t, table.Insert(1, "b"))
	_, ok := table.Get(h)
	assert.False(t, ok)
	_, ok = table.Get(0)
	assert.False(t, ok)
}
