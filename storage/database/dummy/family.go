package dummydb

import (
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
)

type familyRepository struct {
	db *familyTable
}

var _ family.Repository = (*familyRepository)(nil) // interface compliance check

func NewFamilyRepository(db *DB) family.Repository {
	return &familyRepository{db: db.family}
}

func (repo *familyRepository) CreateFamily(f family.Family) (family.Family, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *familyRepository) GetFamilyByID(id string) (family.Family, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.table[id]; ok {
		return *f, nil
	}
	return family.Family{}, family.ErrNotFound
}

func (repo *familyRepository) GetFamilyByCode(code string) (family.Family, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, f := range repo.db.table {
		if f.Code == code {
			return *f, nil
		}
	}
	return family.Family{}, family.ErrNotFound
}

func (repo *familyRepository) CreateDailyCode(c family.DailyCode) (family.DailyCode, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.dailyCodes[c.Code] = &c
	return c, nil
}

func (repo *familyRepository) GetDailyCode(code string) (family.DailyCode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.dailyCodes[code]; ok {
		return *c, nil
	}
	return family.DailyCode{}, family.ErrCodeNotFound
}
