package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/activity"
	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       *user.Service
		AssignmentSvc *assignment.Service
		SubmissionSvc *submission.Service
		ActivitySvc   *activity.Service
		AnalyticsSvc  *analytics.Service
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	if s.deps.Validate != nil {
		core.InitValidators(s.deps.Validate, s.deps.Translator)
		user.InitValidators(s.deps.Validate, s.deps.Translator)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	auth := newAuth(conf)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(auth, s.deps.Logger, func() {
		s.shutdown <- syscall.SIGTERM
	})
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(auth.jwtConfig)

	registerUserAPI(v1, jwt, auth, s.deps.UserSvc)
	registerAssignmentAPI(v1, jwt, auth, s.deps.AssignmentSvc, s.deps.UserSvc)
	registerSubmissionAPI(v1, jwt, auth, s.deps.SubmissionSvc, s.deps.AssignmentSvc)
	registerActivityAPI(v1, jwt, auth, s.deps.ActivitySvc)
	registerAnalyticsAPI(v1, jwt, auth, s.deps.AnalyticsSvc, s.deps.UserSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, "Welcome to Darasa API!")
}

// Envelope is the uniform response wrapper. Success is false only on the error
// path (see newAppHTTPErrorHandler).
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message interface{} `json:"message,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, Envelope{Success: true, Data: data})
}
