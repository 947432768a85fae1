package user

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleParent = "parent"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	IsApproved   bool      `json:"is_approved" db:"is_approved"`
	FamilyID     string    `json:"family_id,omitempty" db:"family_id"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Invite is a one-shot onboarding code emailed to a parent or guardian.
type Invite struct {
	Code       string    `json:"code" db:"code"`
	Email      string    `json:"email" db:"email"`
	Name       string    `json:"name" db:"name"`
	Role       string    `json:"role" db:"role"`
	FamilyID   string    `json:"family_id" db:"family_id"`
	StudentIDs []string  `json:"student_ids" db:"-"`
	IsUsed     bool      `json:"is_used" db:"is_used"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (i Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Inputs

type Signup struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FamilyCode string `json:"familyCode" validate:"required"`
}

func (s *Signup) Validate(validate *validator.Validate, translator ut.Translator) error {
	s.Name = core.CleanString(s.Name)
	s.Email = core.CleanString(s.Email, true /* lower */)
	return validate.Struct(s)
}

type InviteeInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type InviteBatch struct {
	FamilyName string         `json:"familyName" validate:"required"`
	StudentIDs []string       `json:"studentIds"`
	Parents    []InviteeInput `json:"parents" validate:"required,min=1,dive"`
}

func (b *InviteBatch) Validate(validate *validator.Validate, translator ut.Translator) error {
	b.FamilyName = core.CleanString(b.FamilyName)
	for i := range b.Parents {
		b.Parents[i].Name = core.CleanString(b.Parents[i].Name)
		b.Parents[i].Email = core.CleanString(b.Parents[i].Email, true /* lower */)
	}
	return validate.Struct(b)
}

type CompleteSignup struct {
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (c *CompleteSignup) Validate(validate *validator.Validate, translator ut.Translator) error {
	c.Code = strings.ToUpper(core.CleanString(c.Code))
	return validate.Struct(c)
}
