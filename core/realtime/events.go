package realtime

import (
	"time"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

// Event kinds pushed to displays.
const (
	EventInitial            = "initial"
	EventNewPickup          = "new_pickup"
	EventPickupAcknowledged = "pickup_acknowledged"
	EventMergeActivated     = "merge_activated"
	EventMergeDeactivated   = "merge_deactivated"
	EventHeartbeat          = "heartbeat"
)

type (
	// PickupPayload is the wire form of a pickup embedded in an event.
	// MergedFrom is set only on redirected copies, so a display on the host
	// class can tell which class the pickup was originally called for.
	PickupPayload struct {
		ID          string         `json:"id"`
		StudentID   string         `json:"student_id,omitempty"`
		StudentName string         `json:"student_name"`
		Year        int            `json:"year"`
		Class       string         `json:"class"`
		Status      string         `json:"status"`
		CreatedAt   time.Time      `json:"created_at"`
		AckedAt     *time.Time     `json:"acked_at,omitempty"`
		MergedFrom  *core.ClassKey `json:"merged_from,omitempty"`
	}

	Event struct {
		Type       string            `json:"type"`
		Pickups    []PickupPayload   `json:"pickups,omitempty"`
		Pickup     *PickupPayload    `json:"pickup,omitempty"`
		PickupID   string            `json:"pickupId,omitempty"`
		Merge      *merge.ClassMerge `json:"merge,omitempty"`
		MergeID    string            `json:"mergeId,omitempty"`
		MergedFrom *core.ClassKey    `json:"merged_from,omitempty"`
	}
)

func NewPickupPayload(p pickup.Pickup) PickupPayload {
	pl := PickupPayload{
		ID:          p.ID,
		StudentID:   p.StudentID,
		StudentName: p.StudentName,
		Year:        p.Year,
		Class:       p.Class,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
	if !p.AckedAt.IsZero() {
		at := p.AckedAt
		pl.AckedAt = &at
	}
	return pl
}

func NewInitialEvent(pickups []pickup.Pickup) Event {
	payloads := make([]PickupPayload, 0, len(pickups))
	for _, p := range pickups {
		payloads = append(payloads, NewPickupPayload(p))
	}
	return Event{Type: EventInitial, Pickups: payloads}
}

// redirected returns a deep copy of evt annotated with the class it was
// originally published to. The embedded pickup payload is copied so the
// direct recipients never observe the annotation.
func redirected(evt Event, from core.ClassKey) Event {
	evt.MergedFrom = &from
	if evt.Pickup != nil {
		p := *evt.Pickup
		p.MergedFrom = &from
		evt.Pickup = &p
	}
	return evt
}
