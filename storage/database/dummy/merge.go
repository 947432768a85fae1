package dummydb

import (
	"sort"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
)

type mergeRepository struct {
	db *mergeTable
}

var _ merge.Repository = (*mergeRepository)(nil) // interface compliance check

func NewMergeRepository(db *DB) merge.Repository {
	return &mergeRepository{db: db.merge}
}

// CreateMerge holds the table lock across the uniqueness check and the
// insert, so no partial state is observable by concurrent creates.
func (repo *mergeRepository) CreateMerge(m merge.ClassMerge) (merge.ClassMerge, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.bySource[m.Source]; ok {
		return merge.ClassMerge{}, merge.ErrSourceMerged
	}
	repo.db.table[m.ID] = &m
	repo.db.bySource[m.Source] = m.ID
	return m, nil
}

func (repo *mergeRepository) DeleteMerge(id string) (merge.ClassMerge, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m, ok := repo.db.table[id]
	if !ok {
		return merge.ClassMerge{}, merge.ErrNotFound
	}
	delete(repo.db.table, id)
	delete(repo.db.bySource, m.Source)
	return *m, nil
}

func (repo *mergeRepository) GetMergeBySource(source core.ClassKey) (merge.ClassMerge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if id, ok := repo.db.bySource[source]; ok {
		return *repo.db.table[id], nil
	}
	return merge.ClassMerge{}, merge.ErrNotFound
}

func (repo *mergeRepository) MergesByHost(host core.ClassKey) ([]merge.ClassMerge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	merges := make([]merge.ClassMerge, 0)
	for _, m := range repo.db.table {
		if m.Host == host {
			merges = append(merges, *m)
		}
	}
	sortMerges(merges)
	return merges, nil
}

func (repo *mergeRepository) QueryAllMerges() ([]merge.ClassMerge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	merges := make([]merge.ClassMerge, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		merges = append(merges, *m)
	}
	sortMerges(merges)
	return merges, nil
}

func (repo *mergeRepository) ClearMerges() ([]merge.ClassMerge, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	removed := make([]merge.ClassMerge, 0, len(repo.db.table))
	for id, m := range repo.db.table {
		removed = append(removed, *m)
		delete(repo.db.table, id)
		delete(repo.db.bySource, m.Source)
	}
	sortMerges(removed)
	return removed, nil
}

func sortMerges(merges []merge.ClassMerge) {
	sort.Slice(merges, func(i, j int) bool { return merges[i].CreatedAt.Before(merges[j].CreatedAt) })
}
