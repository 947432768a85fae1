package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

type (
	// Outbound is one item queued for delivery to a single connection.
	// When Snapshot is set it is a snapshot request token rather than a live
	// event: the transport pump must fetch the current pending pickups for
	// Key and push them as an `initial` event before draining further items.
	// The token is queued in the same atomic section that registers the
	// subscription, so no broadcast for that subscription can be delivered
	// ahead of the snapshot.
	Outbound struct {
		Event    Event
		Snapshot bool
		Key      core.ClassKey
	}

	// Conn is one live display connection. It is owned by the Registry for
	// the duration of its network session; the transport layer drains Out()
	// and writes to the socket, so no registry operation ever blocks on
	// network I/O. A Conn whose buffer overflows is treated like a failed
	// send and pruned.
	Conn struct {
		id        string
		out       chan Outbound
		done      chan struct{}
		closeOnce sync.Once
	}

	Registry struct {
		mu     sync.RWMutex
		conns  map[*Conn]struct{}
		topics map[core.ClassKey]map[*Conn]struct{}
		subs   map[*Conn]core.ClassKey
		buffer int
	}
)

func (c *Conn) ID() string { return c.id }

// Out is the connection's delivery queue, drained by its transport pump.
func (c *Conn) Out() <-chan Outbound { return c.out }

// Done is closed when the connection is discarded. Closing is safe at any
// point and idempotent; queued items for a closed connection are discarded.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = 64
	}
	return &Registry{
		conns:  make(map[*Conn]struct{}),
		topics: make(map[core.ClassKey]map[*Conn]struct{}),
		subs:   make(map[*Conn]core.ClassKey),
		buffer: buffer,
	}
}

// Add registers a freshly admitted connection. It has no subscription until
// it sends its first subscribe message.
func (r *Registry) Add() *Conn {
	c := &Conn{
		id:   uuid.New().String(),
		out:  make(chan Outbound, r.buffer),
		done: make(chan struct{}),
	}
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
	return c
}

// Subscribe points the connection at a class topic, replacing any prior
// subscription, and queues a snapshot request token for that topic. The
// detach, attach and token enqueue happen under a single write lock, so
// relative to broadcasts the snapshot always comes first for this connection.
// If the token cannot be queued the attach is rolled back and false is
// returned: a connection is never subscribed without a snapshot ahead of its
// live events, and the caller prunes it like any other failed send.
func (r *Registry) Subscribe(c *Conn, key core.ClassKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return false
	}
	r.detachLocked(c)
	if !c.push(Outbound{Snapshot: true, Key: key}) {
		return false
	}
	set, ok := r.topics[key]
	if !ok {
		set = make(map[*Conn]struct{})
		r.topics[key] = set
	}
	set[c] = struct{}{}
	r.subs[c] = key
	return true
}

// Unsubscribe detaches the connection from whatever topic it belongs to.
// No-op if it is not subscribed.
func (r *Registry) Unsubscribe(c *Conn) {
	r.mu.Lock()
	r.detachLocked(c)
	r.mu.Unlock()
}

// Remove discards the connection entirely: detach, deregister, close.
// Safe to call more than once.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	r.detachLocked(c)
	delete(r.conns, c)
	r.mu.Unlock()
	c.Close()
}

// ConnectionsFor returns a copy of the live connection set for a class, so
// callers iterate safely while the registry mutates underneath. An unknown
// class yields an empty set, never an error.
func (r *Registry) ConnectionsFor(key core.ClassKey) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.topics[key]
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// All returns a copy of every admitted connection, subscribed or not.
func (r *Registry) All() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) detachLocked(c *Conn) {
	key, ok := r.subs[c]
	if !ok {
		return
	}
	delete(r.subs, c)
	set := r.topics[key]
	delete(set, c)
	if len(set) == 0 {
		delete(r.topics, key)
	}
}

// push queues an item without ever blocking: a full buffer means the
// connection is too slow or stuck, and reports false so the caller can prune
// it. A slow connection degrades only itself, never the fanout to siblings.
func (c *Conn) push(ob Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- ob:
		return true
	default:
		return false
	}
}
