package pickup

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

// Statuses
const (
	StatusPending      = "pending"
	StatusAcknowledged = "acknowledged"
)

// Pickup is a single "student called for pickup" event shown on the
// classroom display.
//
// Invariant: AckedAt is set if and only if Status == StatusAcknowledged,
// and AckedAt >= CreatedAt.
type Pickup struct {
	ID          string    `json:"id" db:"id"`
	StudentID   string    `json:"student_id,omitempty" db:"student_id"`
	StudentName string    `json:"student_name" db:"student_name"`
	Year        int       `json:"year" db:"year"`
	Class       string    `json:"class" db:"class"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`  // UTC
	AckedAt     time.Time `json:"acked_at,omitempty" db:"acked_at"` // UTC; zero while pending
}

func (p Pickup) ClassKey() core.ClassKey {
	return core.ClassKey{Year: p.Year, Class: p.Class}
}

func (p Pickup) IsPending() bool {
	return p.Status == StatusPending
}

type NewPickup struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name" validate:"required"`
	Year        int    `json:"year" validate:"required,min=7,max=13"`
	Class       string `json:"class" validate:"required,classname"`
}

func (np *NewPickup) Validate(validate *validator.Validate, translator ut.Translator) error {
	np.StudentName = core.CleanString(np.StudentName)
	np.Class = core.CleanString(np.Class, true /* lower */)
	return validate.Struct(np)
}
