package dummydb

import (
	"time"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

type pickupRepository struct {
	db *pickupTable
}

var _ pickup.Repository = (*pickupRepository)(nil) // interface compliance check

func NewPickupRepository(db *DB) pickup.Repository {
	return &pickupRepository{db: db.pickup}
}

func (repo *pickupRepository) CreatePickup(p pickup.Pickup) (pickup.Pickup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[p.ID] = &p
	repo.db.order = append(repo.db.order, p.ID)
	return p, nil
}

func (repo *pickupRepository) GetPickupByID(id string) (pickup.Pickup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return pickup.Pickup{}, pickup.ErrNotFound
}

func (repo *pickupRepository) PendingPickups() ([]pickup.Pickup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pickups := make([]pickup.Pickup, 0)
	for _, id := range repo.db.order {
		if p, ok := repo.db.table[id]; ok && p.IsPending() {
			pickups = append(pickups, *p)
		}
	}
	return pickups, nil
}

func (repo *pickupRepository) PendingPickupsByClass(key core.ClassKey) ([]pickup.Pickup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pickups := make([]pickup.Pickup, 0)
	for _, id := range repo.db.order {
		if p, ok := repo.db.table[id]; ok && p.IsPending() && p.ClassKey() == key {
			pickups = append(pickups, *p)
		}
	}
	return pickups, nil
}

func (repo *pickupRepository) AcknowledgePickup(id string, at time.Time) (pickup.Pickup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return pickup.Pickup{}, pickup.ErrNotFound
	}
	if !p.IsPending() {
		return *p, pickup.ErrAlreadyAcked
	}
	p.Status = pickup.StatusAcknowledged
	p.AckedAt = at
	return *p, nil
}

func (repo *pickupRepository) DeleteAcknowledgedBefore(cutoff time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	order := repo.db.order[:0]
	for _, id := range repo.db.order {
		p, ok := repo.db.table[id]
		if !ok {
			continue
		}
		if p.Status == pickup.StatusAcknowledged && p.AckedAt.Before(cutoff) {
			delete(repo.db.table, id)
			n++
			continue
		}
		order = append(order, id)
	}
	repo.db.order = order
	return n, nil
}
