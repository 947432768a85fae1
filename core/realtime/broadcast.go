package realtime

import (
	"fmt"
	"time"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

type (
	// HostResolver reports the active merge host for a source class, if any.
	HostResolver interface {
		HostFor(source core.ClassKey) (core.ClassKey, bool, error)
	}

	// Broadcaster fans events out to the live connections of a class topic,
	// following at most one merge redirection hop. The direct target set and
	// the host target set are disjoint because a connection holds at most
	// one subscription, so no connection can receive the same logical event
	// twice.
	Broadcaster struct {
		registry *Registry
		resolver HostResolver
		logger   core.Logger
	}
)

var (
	_ pickup.Broadcaster = (*Broadcaster)(nil)
	_ HostResolver       = (*merge.Service)(nil)
)

func NewBroadcaster(registry *Registry, resolver HostResolver, logger core.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, resolver: resolver, logger: logger}
}

// Publish delivers evt to every live connection of the class topic, then to
// the host topic's connections if the class is currently merged, annotating
// the redirected copy. Resolution is single hop.
func (b *Broadcaster) Publish(key core.ClassKey, evt Event) {
	b.publishTo(key, evt)
	host, ok, err := b.resolver.HostFor(key)
	if err != nil {
		b.logger.Error(fmt.Sprintf("resolving merge host for %s: %v", key, err), err)
		return
	}
	if ok {
		b.publishTo(host, redirected(evt, key))
	}
}

// publishTo fans out to the topic's current connections. Delivery to each is
// attempted independently; a connection that cannot accept the event is
// pruned without aborting delivery to the rest.
func (b *Broadcaster) publishTo(key core.ClassKey, evt Event) {
	for _, c := range b.registry.ConnectionsFor(key) {
		if !c.push(Outbound{Event: evt}) {
			b.prune(c)
		}
	}
}

// RunHeartbeat emits a heartbeat every period until stop is closed.
func (b *Broadcaster) RunHeartbeat(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.Heartbeat()
		}
	}
}

// Heartbeat queues a heartbeat to every admitted connection, purely so dead
// sockets surface as failed sends and get pruned.
func (b *Broadcaster) Heartbeat() {
	evt := Event{Type: EventHeartbeat}
	for _, c := range b.registry.All() {
		if !c.push(Outbound{Event: evt}) {
			b.prune(c)
		}
	}
}

func (b *Broadcaster) prune(c *Conn) {
	b.registry.Remove(c)
	b.logger.Debug(fmt.Sprintf("pruned stalled display connection %s", c.ID()))
}

// Domain event entry points. Each maps one lifecycle transition to exactly
// one publish.

func (b *Broadcaster) PickupCreated(p pickup.Pickup) {
	pl := NewPickupPayload(p)
	b.Publish(p.ClassKey(), Event{Type: EventNewPickup, Pickup: &pl})
}

func (b *Broadcaster) PickupAcknowledged(p pickup.Pickup) {
	b.Publish(p.ClassKey(), Event{Type: EventPickupAcknowledged, PickupID: p.ID})
}

// MergeActivated goes to the host topic only: merges themselves are not
// subject to the redirection chain.
func (b *Broadcaster) MergeActivated(m merge.ClassMerge) {
	mm := m
	b.publishTo(m.Host, Event{Type: EventMergeActivated, Merge: &mm})
}

func (b *Broadcaster) MergeDeactivated(m merge.ClassMerge) {
	b.publishTo(m.Host, Event{Type: EventMergeDeactivated, MergeID: m.ID})
}
