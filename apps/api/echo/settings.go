package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/settings"
)

type settingsApi struct {
	svc      *settings.Service
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, auth *authenticator, svc *settings.Service, validate *validator.Validate) {
	api := settingsApi{
		svc:      svc,
		validate: validate,
	}

	g.GET("/settings", api.retrieve)
	g.PUT("/settings", api.update, auth.session(), adminMiddleware())
	g.GET("/donation", api.donation)
}

// Handlers

func (api *settingsApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return respond(ctx, http.StatusOK, "", echo.Map{"settings": s})
}

func (api *settingsApi) update(ctx echo.Context) error {
	var data settings.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating settings")
	}
	return respond(ctx, http.StatusOK, "Configuration updated successfully", echo.Map{"settings": s})
}

// donation computes the recommended donation of the party given as query parameters.
func (api *settingsApi) donation(ctx echo.Context) error {
	var party dinner.Party
	if err := ctx.Bind(&party); err != nil {
		return errors.Wrap(err, "binding to Party")
	}
	if err := dinner.ValidateParty(party, false); err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return respond(ctx, http.StatusOK, "", echo.Map{
		"party":            party,
		"people":           party.Total(),
		"donation":         dinner.Donation(s.DonationAmounts, party),
		"donation_amounts": s.DonationAmounts,
	})
}
