package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core/about"
)

type aboutApi struct {
	svc      *about.Service
	validate *validator.Validate
}

func registerAboutAPI(g *echo.Group, auth *authenticator, svc *about.Service, validate *validator.Validate) {
	api := aboutApi{
		svc:      svc,
		validate: validate,
	}

	g.GET("/about", api.retrieve)
	g.PUT("/about", api.update, auth.session())
}

// Handlers

func (api *aboutApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting about page")
	}
	return respond(ctx, http.StatusOK, "", echo.Map{"about": p})
}

func (api *aboutApi) update(ctx echo.Context) error {
	var data about.UpdatePage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctxUser(ctx).Name, data)
	if err != nil {
		return errors.Wrap(err, "updating about page")
	}
	return respond(ctx, http.StatusOK, "About page updated successfully", echo.Map{"about": p})
}
