package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core/user"
)

type userApi struct {
	auth     *authenticator
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	auth *authenticator,
	limiter *RateLimiter,
	svc *user.Service,
	validate *validator.Validate,
) {
	api := userApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login, rateLimitMiddleware(limiter))
	ug.POST("/logout", api.logout)

	// authed endpoints
	ug.GET("/me", api.me, auth.session())
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data user.Login
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Login")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, created, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	token, exp, err := api.auth.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.auth.setCookie(ctx, token, exp)

	msg := "Welcome back, " + usr.Name + "!"
	if created {
		msg = "Welcome, " + usr.Name + "!"
	}
	return respond(ctx, http.StatusOK, msg, echo.Map{"token": token, "user": usr})
}

func (api *userApi) logout(ctx echo.Context) error {
	api.auth.clearCookie(ctx)
	return respond(ctx, http.StatusOK, "Logged out", nil)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", echo.Map{"user": usr})
}
