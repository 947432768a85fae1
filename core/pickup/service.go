package pickup

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

var (
	// errors
	ErrNotFound     = errors.New("pickup not found")
	ErrAlreadyAcked = errors.New("pickup already acknowledged")
)

type (
	Repository interface {
		CreatePickup(p Pickup) (Pickup, error)
		GetPickupByID(id string) (Pickup, error)
		PendingPickups() ([]Pickup, error)
		PendingPickupsByClass(key core.ClassKey) ([]Pickup, error)
		// AcknowledgePickup transitions a pending pickup to acknowledged,
		// stamping `at` as its acknowledgment time, as a single atomic
		// mutation. It returns ErrNotFound for an unknown id and
		// ErrAlreadyAcked when the pickup is no longer pending.
		AcknowledgePickup(id string, at time.Time) (Pickup, error)
		// DeleteAcknowledgedBefore removes every acknowledged pickup whose
		// acknowledgment time is older than the cutoff. Pending pickups are
		// never removed, regardless of age.
		DeleteAcknowledgedBefore(cutoff time.Time) (int, error)
	}

	// Broadcaster pushes pickup lifecycle events to the live displays.
	Broadcaster interface {
		PickupCreated(p Pickup)
		PickupAcknowledged(p Pickup)
	}

	Service struct {
		repo        Repository
		broadcaster Broadcaster
	}
)

func NewService(repo Repository, broadcaster Broadcaster) *Service {
	return &Service{repo: repo, broadcaster: broadcaster}
}

// Create constructs a pending Pickup and announces it on the class topic.
// This is the only way a Pickup enters existence.
func (svc *Service) Create(np NewPickup) (Pickup, error) {
	p := Pickup{
		ID:          uuid.New().String(),
		StudentID:   np.StudentID,
		StudentName: np.StudentName,
		Year:        np.Year,
		Class:       np.Class,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	p, err := svc.repo.CreatePickup(p)
	if err != nil {
		return Pickup{}, errors.Wrap(err, "creating pickup")
	}
	svc.broadcaster.PickupCreated(p)
	return p, nil
}

// Acknowledge transitions a pending pickup to acknowledged and announces it.
// It returns ErrNotFound or ErrAlreadyAcked without broadcasting; callers at
// the API boundary treat both as a no-op so that acknowledgment stays
// idempotent from the client's perspective.
func (svc *Service) Acknowledge(id string) (Pickup, error) {
	p, err := svc.repo.AcknowledgePickup(id, time.Now().UTC())
	if err != nil {
		if err == ErrNotFound || err == ErrAlreadyAcked {
			return p, err
		}
		return Pickup{}, errors.Wrap(err, "acknowledging pickup")
	}
	svc.broadcaster.PickupAcknowledged(p)
	return p, nil
}

func (svc *Service) GetByID(id string) (Pickup, error) {
	return svc.repo.GetPickupByID(id)
}

func (svc *Service) Pending() ([]Pickup, error) {
	return svc.repo.PendingPickups()
}

// PendingByClass returns the current pending pickups for a class topic,
// ordered by insertion. It backs the `initial` snapshot pushed to a display
// right after it subscribes.
func (svc *Service) PendingByClass(key core.ClassKey) ([]Pickup, error) {
	return svc.repo.PendingPickupsByClass(key)
}

// PurgeOlderThan removes acknowledged pickups whose acknowledgment time
// predates the cutoff. History is a storage concern, not a live-display one,
// so nothing is broadcast.
func (svc *Service) PurgeOlderThan(cutoff time.Time) (int, error) {
	return svc.repo.DeleteAcknowledgedBefore(cutoff)
}
