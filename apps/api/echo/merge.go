package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/realtime"
)

type mergeApi struct {
	svc         *merge.Service
	broadcaster *realtime.Broadcaster
	validate    *validator.Validate
	translator  ut.Translator
}

func registerMergeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := mergeApi{
		svc:         deps.MergeSvc,
		broadcaster: deps.Broadcaster,
		validate:    deps.Validate,
		translator:  deps.Translator,
	}

	mg := g.Group("/merges", jwt, adminMiddleware())
	mg.GET("", api.query)
	mg.POST("", api.create)
	mg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *mergeApi) query(ctx echo.Context) error {
	merges, err := api.svc.All()
	if err != nil {
		return errors.Wrap(err, "querying merges")
	}
	return ctx.JSON(http.StatusOK, merges)
}

func (api *mergeApi) create(ctx echo.Context) error {
	var data NewMergeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMergeRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	m, err := api.svc.Create(merge.NewMerge{Source: data.Source(), Host: data.Host()})
	if err != nil {
		return err
	}
	api.broadcaster.MergeActivated(m)
	return ctx.JSON(http.StatusCreated, m)
}

// destroy deactivates a merge. An unknown id still yields 204: deactivation
// of something absent is a no-op, not a failure.
func (api *mergeApi) destroy(ctx echo.Context) error {
	m, err := api.svc.Delete(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == merge.ErrNotFound {
			return ctx.NoContent(http.StatusNoContent)
		}
		return errors.Wrap(err, "deleting merge")
	}
	api.broadcaster.MergeDeactivated(m)
	return ctx.NoContent(http.StatusNoContent)
}
