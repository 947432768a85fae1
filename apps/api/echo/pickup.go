package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

type pickupApi struct {
	svc        *pickup.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerPickupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := pickupApi{
		svc:        deps.PickupSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	pg := g.Group("/pickups", jwt)
	pg.POST("", api.create)
	pg.GET("/pending", api.queryPending)
	pg.POST("/:id/ack", api.acknowledge)
}

// Handlers

func (api *pickupApi) create(ctx echo.Context) error {
	var data pickup.NewPickup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPickup")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	p, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *pickupApi) queryPending(ctx echo.Context) error {
	yearParam := ctx.QueryParam("year")
	classParam := ctx.QueryParam("class")
	if yearParam != "" && classParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "must be a number"})
		}
		key := core.ClassKey{Year: year, Class: core.CleanString(classParam, true /* lower */)}
		pickups, err := api.svc.PendingByClass(key)
		if err != nil {
			return errors.Wrap(err, "querying pending pickups")
		}
		return ctx.JSON(http.StatusOK, pickups)
	}

	pickups, err := api.svc.Pending()
	if err != nil {
		return errors.Wrap(err, "querying pending pickups")
	}
	return ctx.JSON(http.StatusOK, pickups)
}

// acknowledge is idempotent from the client's perspective: acking a pickup
// that is already acknowledged returns it unchanged with 200.
func (api *pickupApi) acknowledge(ctx echo.Context) error {
	p, err := api.svc.Acknowledge(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == pickup.ErrAlreadyAcked {
			return ctx.JSON(http.StatusOK, p)
		}
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
