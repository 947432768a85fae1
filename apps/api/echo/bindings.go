package echoapi

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SuccessResponse struct {
	Success string `json:"success"`
}

type InviteCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

func (r *InviteCodeRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.Code = core.CleanString(r.Code)
	return validate.Struct(r)
}

type InviteDetailResponse struct {
	Invite   user.Invite       `json:"invite"`
	Students []student.Student `json:"students"`
}

type InviteBatchResponse struct {
	Family  family.Family `json:"family"`
	Invites []user.Invite `json:"invites"`
}

type NewFamilyRequest struct {
	Name string `json:"name" validate:"required"`
}

func (r *NewFamilyRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.Name = core.CleanString(r.Name)
	return validate.Struct(r)
}

type AttachStudentRequest struct {
	FamilyCode string `json:"familyCode" validate:"required"`
	StudentID  string `json:"studentId" validate:"required"`
}

func (r *AttachStudentRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.FamilyCode = core.CleanString(r.FamilyCode)
	return validate.Struct(r)
}

type DailyCodeRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1"`
}

func (r *DailyCodeRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	return validate.Struct(r)
}

type DailyCodeDetailResponse struct {
	Family   family.Family     `json:"family"`
	Students []student.Student `json:"students"`
}

type NewMergeRequest struct {
	SourceYear  int    `json:"source_year" validate:"required,min=7,max=13"`
	SourceClass string `json:"source_class" validate:"required,classname"`
	HostYear    int    `json:"host_year" validate:"required,min=7,max=13"`
	HostClass   string `json:"host_class" validate:"required,classname"`
}

func (r *NewMergeRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.SourceClass = core.CleanString(r.SourceClass, true /* lower */)
	r.HostClass = core.CleanString(r.HostClass, true /* lower */)
	return validate.Struct(r)
}

func (r *NewMergeRequest) Source() core.ClassKey {
	return core.ClassKey{Year: r.SourceYear, Class: r.SourceClass}
}

func (r *NewMergeRequest) Host() core.ClassKey {
	return core.ClassKey{Year: r.HostYear, Class: r.HostClass}
}
