package family

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
)

const dailyCodeTTL = 24 * time.Hour

var (
	// errors
	ErrNotFound     = errors.New("family not found")
	ErrCodeNotFound = errors.New("pickup code not found")
	ErrCodeExpired  = errors.New("pickup code has expired")
)

type (
	Repository interface {
		CreateFamily(f Family) (Family, error)
		GetFamilyByID(id string) (Family, error)
		GetFamilyByCode(code string) (Family, error)
		CreateDailyCode(c DailyCode) (DailyCode, error)
		GetDailyCode(code string) (DailyCode, error)
	}

	Service struct {
		repo     Repository
		students student.Repository
	}
)

func NewService(repo Repository, students student.Repository) *Service {
	return &Service{repo: repo, students: students}
}

// Create registers a family with a generated 6-digit join code.
func (svc *Service) Create(name string) (Family, error) {
	f := Family{
		ID:        uuid.New().String(),
		Name:      core.CleanString(name),
		Code:      numericCode(),
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateFamily(f)
}

func (svc *Service) GetByID(id string) (Family, error) {
	return svc.repo.GetFamilyByID(id)
}

func (svc *Service) GetByCode(code string) (Family, error) {
	return svc.repo.GetFamilyByCode(core.CleanString(code))
}

// AttachStudent links a student to the family identified by its join code.
func (svc *Service) AttachStudent(familyCode, studentID string) (Family, student.Student, error) {
	f, err := svc.repo.GetFamilyByCode(core.CleanString(familyCode))
	if err != nil {
		return Family{}, student.Student{}, err
	}
	s, err := svc.students.SetStudentFamily(studentID, f.ID)
	if err != nil {
		return Family{}, student.Student{}, err
	}
	return f, s, nil
}

// GenerateDailyCode issues a 6-digit pickup code valid for 24 hours, covering
// the given children of the family.
func (svc *Service) GenerateDailyCode(familyID string, studentIDs []string) (DailyCode, error) {
	c := DailyCode{
		Code:       numericCode(),
		FamilyID:   familyID,
		StudentIDs: studentIDs,
		ExpiresAt:  time.Now().UTC().Add(dailyCodeTTL),
	}
	return svc.repo.CreateDailyCode(c)
}

// ResolveDailyCode maps a pickup code to the family name and covered students.
func (svc *Service) ResolveDailyCode(code string) (Family, []student.Student, error) {
	c, err := svc.repo.GetDailyCode(core.CleanString(code))
	if err != nil {
		return Family{}, nil, err
	}
	if c.Expired(time.Now().UTC()) {
		return Family{}, nil, ErrCodeExpired
	}
	f, err := svc.repo.GetFamilyByID(c.FamilyID)
	if err != nil {
		return Family{}, nil, err
	}
	students := make([]student.Student, 0, len(c.StudentIDs))
	for _, id := range c.StudentIDs {
		s, err := svc.students.GetStudentByID(id)
		if err != nil {
			if err == student.ErrNotFound {
				continue
			}
			return Family{}, nil, err
		}
		students = append(students, s)
	}
	return f, students, nil
}

func numericCode() string {
	return core.RandomDigits(6)
}
