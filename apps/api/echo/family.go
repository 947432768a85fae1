package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

type familyApi struct {
	svc        *family.Service
	users      *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerFamilyAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := familyApi{
		svc:        deps.FamilySvc,
		users:      deps.UserSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	fg := g.Group("/families", jwt)
	fg.POST("", api.create, adminMiddleware())
	fg.POST("/attach-student", api.attachStudent, adminMiddleware())

	pcg := g.Group("/pickup-codes", jwt)
	pcg.POST("", api.generateDailyCode)
	pcg.GET("/:code", api.resolveDailyCode, adminMiddleware())
}

// Handlers

func (api *familyApi) create(ctx echo.Context) error {
	var data NewFamilyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFamilyRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	fam, err := api.svc.Create(data.Name)
	if err != nil {
		return errors.Wrap(err, "creating family")
	}
	return ctx.JSON(http.StatusCreated, fam)
}

func (api *familyApi) attachStudent(ctx echo.Context) error {
	var data AttachStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttachStudentRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	fam, s, err := api.svc.AttachStudent(data.FamilyCode, data.StudentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"family": fam, "student": s})
}

// generateDailyCode issues a pickup code for the calling parent's own family.
func (api *familyApi) generateDailyCode(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	if usr.FamilyID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "family", Error: "no family linked to this account"})
	}

	var data DailyCodeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DailyCodeRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	code, err := api.svc.GenerateDailyCode(usr.FamilyID, data.StudentIDs)
	if err != nil {
		return errors.Wrap(err, "generating pickup code")
	}
	return ctx.JSON(http.StatusCreated, code)
}

func (api *familyApi) resolveDailyCode(ctx echo.Context) error {
	fam, students, err := api.svc.ResolveDailyCode(ctx.Param("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DailyCodeDetailResponse{Family: fam, Students: students})
}
