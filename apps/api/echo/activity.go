package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/activity"
)

type activityApi struct {
	auth *auth
	svc  *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, a *auth, svc *activity.Service) {
	api := activityApi{auth: a, svc: svc}

	ag := g.Group("/activity", jwt)
	ag.POST("", api.create)
}

// Handlers

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	evt, err := api.svc.Record(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "recording activity event")
	}
	return respond(ctx, http.StatusCreated, evt)
}
