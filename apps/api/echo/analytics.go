package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/user"
)

type analyticsApi struct {
	auth    *auth
	svc     *analytics.Service
	userSvc *user.Service
}

func registerAnalyticsAPI(g *echo.Group, jwt echo.MiddlewareFunc, a *auth, svc *analytics.Service, userSvc *user.Service) {
	api := analyticsApi{auth: a, svc: svc, userSvc: userSvc}

	ag := g.Group("/analytics", jwt)
	ag.GET("/system", api.system, adminMiddleware(a))
	ag.GET("/dashboard", api.dashboard, staffMiddleware(a))
}

// Handlers

func (api *analyticsApi) system(ctx echo.Context) error {
	res, err := api.svc.System(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building system analytics")
	}
	return respond(ctx, http.StatusOK, res)
}

func (api *analyticsApi) dashboard(ctx echo.Context) error {
	caller, err := api.auth.getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.Dashboard(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "building dashboard analytics")
	}
	return respond(ctx, http.StatusOK, res)
}
