package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

type userApi struct {
	svc        *user.Service
	conf       *core.Config
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:        deps.UserSvc,
		conf:       deps.Conf,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)
	ug.POST("/signup", api.signup)
	ug.POST("/invites/validate", api.validateInvite)
	ug.POST("/invites/complete", api.completeSignup)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.GET("/me", api.me)
	ag.GET("/pending", api.queryPending, adminMiddleware())
	ag.POST("/:id/approve", api.approve, adminMiddleware())
	ag.POST("/invites", api.inviteBatch, adminMiddleware())
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := authenticate(api.conf, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) signup(ctx echo.Context) error {
	var data user.Signup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Signup")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := api.svc.Signup(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) validateInvite(ctx echo.Context) error {
	var data InviteCodeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteCodeRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	inv, students, err := api.svc.ValidateInvite(data.Code)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, InviteDetailResponse{Invite: inv, Students: students})
}

func (api *userApi) completeSignup(ctx echo.Context) error {
	var data user.CompleteSignup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteSignup")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := api.svc.CompleteSignup(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) queryPending(ctx echo.Context) error {
	users, err := api.svc.PendingUsers()
	if err != nil {
		return errors.Wrap(err, "querying pending users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) approve(ctx echo.Context) error {
	usr, err := api.svc.Approve(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) inviteBatch(ctx echo.Context) error {
	var data user.InviteBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteBatch")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	fam, invites, err := api.svc.InviteBatch(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, InviteBatchResponse{Family: fam, Invites: invites})
}
