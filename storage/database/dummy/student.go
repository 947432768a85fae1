package dummydb

import (
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[s.ID] = &s
	repo.db.order = append(repo.db.order, s.ID)
	return s, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(student.Student) bool { return true }), nil
}

func (repo *studentRepository) StudentsByYear(year int) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(s student.Student) bool { return s.Year == year }), nil
}

func (repo *studentRepository) StudentsByFamily(familyID string) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(s student.Student) bool { return s.FamilyID == familyID }), nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) SetStudentFamily(id, familyID string) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	s.FamilyID = familyID
	return *s, nil
}

func (repo *studentRepository) query(match func(student.Student) bool) []student.Student {
	students := make([]student.Student, 0)
	for _, id := range repo.db.order {
		if s, ok := repo.db.table[id]; ok && match(*s) {
			students = append(students, *s)
		}
	}
	return students
}
