package family

import "time"

type (
	Family struct {
		ID        string    `json:"id" db:"id"`
		Name      string    `json:"name" db:"name"`
		Code      string    `json:"code" db:"code"` // join code handed to parents
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	// DailyCode is a short-lived pickup code a parent generates for the day.
	// Reception resolves it to the family and the covered children.
	DailyCode struct {
		Code       string    `json:"code" db:"code"`
		FamilyID   string    `json:"family_id" db:"family_id"`
		StudentIDs []string  `json:"student_ids" db:"-"`
		ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	}
)

func (c DailyCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
