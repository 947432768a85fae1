package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

func drain(c *Conn) []Outbound {
	items := make([]Outbound, 0)
	for {
		select {
		case ob := <-c.out:
			items = append(items, ob)
		default:
			return items
		}
	}
}

func TestRegistry_Subscribe_snapshotComesFirst(t *testing.T) {
	r := NewRegistry(8)
	c := r.Add()
	key := core.ClassKey{Year: 7, Class: "blue"}

	assert.True(t, r.Subscribe(c, key))

	// a broadcast right after the subscription queues behind the snapshot token
	c.push(Outbound{Event: Event{Type: EventNewPickup}})

	items := drain(c)
	if assert.Len(t, items, 2) {
		assert.True(t, items[0].Snapshot)
		assert.Equal(t, key, items[0].Key)
		assert.Equal(t, EventNewPickup, items[1].Event.Type)
	}
}

func TestRegistry_Subscribe_replacesPriorTopic(t *testing.T) {
	r := NewRegistry(8)
	c := r.Add()
	blue := core.ClassKey{Year: 7, Class: "blue"}
	green := core.ClassKey{Year: 8, Class: "green"}

	r.Subscribe(c, blue)
	r.Subscribe(c, green)

	assert.Empty(t, r.ConnectionsFor(blue))
	if conns := r.ConnectionsFor(green); assert.Len(t, conns, 1) {
		assert.Same(t, c, conns[0])
	}

	// one snapshot token per subscribe call
	items := drain(c)
	if assert.Len(t, items, 2) {
		assert.Equal(t, blue, items[0].Key)
		assert.Equal(t, green, items[1].Key)
	}
}

func TestRegistry_Subscribe_fullBufferRollsBack(t *testing.T) {
	r := NewRegistry(1)
	c := r.Add()
	blue := core.ClassKey{Year: 7, Class: "blue"}
	green := core.ClassKey{Year: 8, Class: "green"}

	// the first subscription's snapshot token fills the buffer
	assert.True(t, r.Subscribe(c, blue))

	// a dropped snapshot token must not leave a live subscription behind:
	// the display would otherwise receive broadcasts with no initial list
	assert.False(t, r.Subscribe(c, green))
	assert.Empty(t, r.ConnectionsFor(green))
	assert.Empty(t, r.ConnectionsFor(blue))

	// the connection is still admitted; once drained it can resubscribe
	items := drain(c)
	if assert.Len(t, items, 1) {
		assert.True(t, items[0].Snapshot)
		assert.Equal(t, blue, items[0].Key)
	}
	assert.True(t, r.Subscribe(c, green))
	if conns := r.ConnectionsFor(green); assert.Len(t, conns, 1) {
		assert.Same(t, c, conns[0])
	}
}

func TestRegistry_Subscribe_unknownConn(t *testing.T) {
	r := NewRegistry(8)
	c := r.Add()
	r.Remove(c)

	assert.False(t, r.Subscribe(c, core.ClassKey{Year: 7, Class: "blue"}))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Unsubscribe(t *testing.T) {
	r := NewRegistry(8)
	c := r.Add()
	key := core.ClassKey{Year: 7, Class: "blue"}
	r.Subscribe(c, key)

	r.Unsubscribe(c)

	assert.Empty(t, r.ConnectionsFor(key))
	assert.Equal(t, 1, r.Len()) // still admitted
}

func TestRegistry_Remove_idempotent(t *testing.T) {
	r := NewRegistry(8)
	c := r.Add()
	key := core.ClassKey{Year: 7, Class: "blue"}
	r.Subscribe(c, key)

	r.Remove(c)
	r.Remove(c)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.ConnectionsFor(key))
	select {
	case <-c.Done():
	default:
		t.Fatal("Done() should be closed after Remove")
	}
	// pushes to a removed conn fail
	assert.False(t, c.push(Outbound{Event: Event{Type: EventHeartbeat}}))
}

func TestRegistry_ConnectionsFor_unknownTopic(t *testing.T) {
	r := NewRegistry(8)
	conns := r.ConnectionsFor(core.ClassKey{Year: 12, Class: "mystery"})
	assert.NotNil(t, conns)
	assert.Empty(t, conns)
}

func TestConn_push_overflow(t *testing.T) {
	r := NewRegistry(2)
	c := r.Add()

	assert.True(t, c.push(Outbound{Event: Event{Type: EventHeartbeat}}))
	assert.True(t, c.push(Outbound{Event: Event{Type: EventHeartbeat}}))
	// buffer full; the push fails instead of blocking
	assert.False(t, c.push(Outbound{Event: Event{Type: EventHeartbeat}}))
}
