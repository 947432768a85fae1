package student

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("student not found")

type (
	Repository interface {
		CreateStudent(s Student) (Student, error)
		QueryAllStudents() ([]Student, error)
		StudentsByYear(year int) ([]Student, error)
		StudentsByFamily(familyID string) ([]Student, error)
		GetStudentByID(id string) (Student, error)
		// SetStudentFamily links a student to a family; empty familyID unlinks.
		SetStudentFamily(id, familyID string) (Student, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ns NewStudent) (Student, error) {
	s := Student{
		ID:        uuid.New().String(),
		Name:      ns.Name,
		Year:      ns.Year,
		Class:     ns.Class,
		CreatedAt: time.Now().UTC(),
	}
	s, err := svc.repo.CreateStudent(s)
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (svc *Service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *Service) ByYear(year int) ([]Student, error) {
	return svc.repo.StudentsByYear(year)
}

func (svc *Service) ByFamily(familyID string) ([]Student, error) {
	return svc.repo.StudentsByFamily(familyID)
}

func (svc *Service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}
