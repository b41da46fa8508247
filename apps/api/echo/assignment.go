package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

var errAsgNotFoundInCtx = errors.New("assignment object not found in echo.Context")

type assignmentApi struct {
	auth    *auth
	svc     *assignment.Service
	userSvc *user.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, a *auth, svc *assignment.Service, userSvc *user.Service) {
	api := assignmentApi{auth: a, svc: svc, userSvc: userSvc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, staffMiddleware(a))
	ag.GET("", api.query)

	// detail endpoints
	dg := ag.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, api.ownerOrAdminMiddleware)
	dg.DELETE("", api.destroy, api.ownerOrAdminMiddleware)
}

// objectMiddleware loads the target assignment into the context.
func (api *assignmentApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == assignment.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding assignment by ID")
		}
		ctx.Set("object", asg)
		return next(ctx)
	}
}

// ownerOrAdminMiddleware admits the assignment owner and admins.
func (api *assignmentApi) ownerOrAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		asg, ok := ctx.Get("object").(assignment.Assignment)
		if !ok {
			return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
		}
		claims, err := api.auth.getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsAdmin || claims.Subject == asg.OwnerID {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asg, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return respond(ctx, http.StatusCreated, asg)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := new(assignment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []assignment.Assignment{})
	}

	// teachers see their own assignments unless they ask for published ones
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && claims.IsTeacher && filter.Status != assignment.StatusPublished {
		filter.OwnerID = claims.Subject
	}
	if claims.IsStudent {
		filter.Status = assignment.StatusPublished
	}

	asgs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return respond(ctx, http.StatusOK, asgs)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}
	return respond(ctx, http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	asg, err := api.svc.Update(ctx.Request().Context(), asg, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return respond(ctx, http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	asg, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
