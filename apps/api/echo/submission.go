package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
)

type submissionApi struct {
	auth   *auth
	svc    *submission.Service
	asgSvc *assignment.Service
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, a *auth, svc *submission.Service, asgSvc *assignment.Service) {
	api := submissionApi{auth: a, svc: svc, asgSvc: asgSvc}

	sg := g.Group("/submissions", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
}

// Handlers

func (api *submissionApi) create(ctx echo.Context) error {
	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()

	// only published assignments accept submissions
	asg, err := api.asgSvc.GetByID(reqCtx, data.AssignmentID)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}
	if !asg.IsPublished() {
		return errHttpForbidden
	}

	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.Record(reqCtx, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "recording submission")
	}
	return respond(ctx, http.StatusCreated, sub)
}

func (api *submissionApi) query(ctx echo.Context) error {
	filter := new(submission.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []submission.Submission{})
	}

	// students only see their own submissions
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsTeacher) {
		filter.UserID = claims.Subject
	}

	subs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return respond(ctx, http.StatusOK, subs)
}
