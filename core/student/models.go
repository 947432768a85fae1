package student

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

// Year range covered by the school.
const (
	MinYear = 7
	MaxYear = 13
)

func Years() []int {
	years := make([]int, 0, MaxYear-MinYear+1)
	for y := MinYear; y <= MaxYear; y++ {
		years = append(years, y)
	}
	return years
}

type Student struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Year      int       `json:"year" db:"year"`
	Class     string    `json:"class" db:"class"`
	FamilyID  string    `json:"family_id,omitempty" db:"family_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

func (s Student) ClassKey() core.ClassKey {
	return core.ClassKey{Year: s.Year, Class: s.Class}
}

type NewStudent struct {
	Name  string `json:"name" validate:"required"`
	Year  int    `json:"year" validate:"required,min=7,max=13"`
	Class string `json:"class" validate:"required,classname"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, translator ut.Translator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Class = core.CleanString(ns.Class, true /* lower */)
	return validate.Struct(ns)
}
