package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/about"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/settings"
	"github.com/trezcool/potluck/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool
		SignalShutdown func()
		Validate       *validator.Validate
		Translator     ut.Translator
		UserSvc        *user.Service
		DinnerSvc      *dinner.Service
		SettingsSvc    *settings.Service
		AboutSvc       *about.Service
		// Metrics is served on /metrics when set.
		Metrics http.Handler
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts    *Options
		app     *echo.Echo
		limiter *RateLimiter
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:    opts,
		app:     echo.New(),
		limiter: NewRateLimiter(opts.Conf.Auth.LoginRPS, opts.Conf.Auth.LoginBurst),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf
	signalShutdown := s.opts.SignalShutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.GET("/", s.home)
	if s.opts.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics))
	}

	auth := newAuthenticator(conf, s.opts.UserSvc)
	v1 := s.app.Group("/v1")

	registerUserAPI(v1, auth, s.limiter, s.opts.UserSvc, s.opts.Validate)
	registerDinnerAPI(v1, auth, s.opts.DinnerSvc, s.opts.Validate)
	registerSettingsAPI(v1, auth, s.opts.SettingsSvc, s.opts.Validate)
	registerAboutAPI(v1, auth, s.opts.AboutSvc, s.opts.Validate)
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.opts.Logger.Fatal("api server stopped", errors.Wrap(err, "starting server"))
	}
}

func (s *server) Stop(ctx context.Context) error {
	s.limiter.Stop()
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!", nil)
}
