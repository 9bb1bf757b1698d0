package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core/dinner"
)

type dinnerApi struct {
	svc      *dinner.Service
	validate *validator.Validate
}

func registerDinnerAPI(g *echo.Group, auth *authenticator, svc *dinner.Service, validate *validator.Validate) {
	api := dinnerApi{
		svc:      svc,
		validate: validate,
	}
	session := auth.session()

	dg := g.Group("/dinners")

	// un-authed endpoints
	dg.GET("/archived", api.queryArchived)
	dg.GET("/archived/:id", api.retrieveArchived)
	dg.GET("/updates", api.checkUpdates)
	dg.GET("/:which", api.retrieve)

	// authed endpoints
	dg.POST("/archive", api.archive, session, adminMiddleware())
	dg.PUT("/:which/details/:field", api.updateDetail, session)
	dg.POST("/:which/menu", api.addMenuItem, session)
	dg.DELETE("/:which/menu/:category/:id", api.removeMenuItem, session)
	dg.POST("/:which/volunteers", api.signupVolunteer, session)
	dg.DELETE("/:which/volunteers/:role", api.removeVolunteer, session)
	dg.PUT("/:which/rsvp", api.submitRSVP, session)
	dg.DELETE("/:which/rsvp", api.removeRSVP, session)
	dg.POST("/:which/notes", api.addNote, session)
	dg.DELETE("/:which/notes/:id", api.removeNote, session)
}

// Handlers

func (api *dinnerApi) retrieve(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.Overview(ctx.Request().Context(), which)
	if err != nil {
		return errors.Wrap(err, "getting dinner")
	}
	return respond(ctx, http.StatusOK, "", echo.Map{
		"dinner":           ov.Dinner,
		"summary":          ov.Summary,
		"donation_amounts": ov.Rates,
	})
}

func (api *dinnerApi) updateDetail(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	data := dinner.UpdateDetail{Field: dinner.Detail(strings.ToLower(ctx.Param("field")))}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDetail")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.svc.UpdateDetail(ctx.Request().Context(), which, data)
	if err != nil {
		return errors.Wrap(err, "updating dinner detail")
	}
	return respond(ctx, http.StatusOK, capitalize(string(data.Field))+" updated successfully", echo.Map{"dinner": d})
}

func (api *dinnerApi) addMenuItem(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	var data dinner.NewMenuItem
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMenuItem")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.AddMenuItem(ctx.Request().Context(), which, ctxUser(ctx).Name, data)
	if err != nil {
		return errors.Wrap(err, "adding menu item")
	}
	return respond(ctx, http.StatusCreated, "Menu item added successfully", echo.Map{"item": item})
}

func (api *dinnerApi) removeMenuItem(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	cat := dinner.Category(ctx.Param("category"))
	if err = api.svc.RemoveMenuItem(ctx.Request().Context(), which, ctxUser(ctx).Name, cat, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing menu item")
	}
	return respond(ctx, http.StatusOK, "Menu item removed successfully", nil)
}

func (api *dinnerApi) signupVolunteer(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	var data dinner.NewVolunteer
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVolunteer")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.SignupVolunteer(ctx.Request().Context(), which, ctxUser(ctx).Name, data); err != nil {
		return errors.Wrap(err, "signing up volunteer")
	}
	return respond(ctx, http.StatusCreated, "Volunteer signup successful", nil)
}

func (api *dinnerApi) removeVolunteer(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	role := dinner.Role(ctx.Param("role"))
	if err = api.svc.RemoveVolunteer(ctx.Request().Context(), which, ctxUser(ctx).Name, role); err != nil {
		return errors.Wrap(err, "removing volunteer")
	}
	return respond(ctx, http.StatusOK, "Volunteer signup removed successfully", nil)
}

func (api *dinnerApi) submitRSVP(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	var data dinner.NewRSVP
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRSVP")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	rsvp, created, err := api.svc.SubmitRSVP(ctx.Request().Context(), which, ctxUser(ctx).Name, data)
	if err != nil {
		return errors.Wrap(err, "submitting rsvp")
	}
	if created {
		return respond(ctx, http.StatusCreated, "RSVP added successfully", echo.Map{"rsvp": rsvp})
	}
	return respond(ctx, http.StatusOK, "RSVP updated successfully", echo.Map{"rsvp": rsvp})
}

func (api *dinnerApi) removeRSVP(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RemoveRSVP(ctx.Request().Context(), which, ctxUser(ctx).Name); err != nil {
		return errors.Wrap(err, "removing rsvp")
	}
	return respond(ctx, http.StatusOK, "RSVP removed successfully", nil)
}

func (api *dinnerApi) addNote(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	var data dinner.NewNote
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	note, err := api.svc.AddNote(ctx.Request().Context(), which, ctxUser(ctx).Name, data)
	if err != nil {
		return errors.Wrap(err, "adding note")
	}
	return respond(ctx, http.StatusCreated, "Note added successfully", echo.Map{"note": note})
}

func (api *dinnerApi) removeNote(ctx echo.Context) error {
	which, err := bindWhich(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RemoveNote(ctx.Request().Context(), which, ctxUser(ctx).Name, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing note")
	}
	return respond(ctx, http.StatusOK, "Note removed successfully", nil)
}

func (api *dinnerApi) archive(ctx echo.Context) error {
	e, err := api.svc.Archive(ctx.Request().Context(), ctxUser(ctx).Name)
	if err != nil {
		return errors.Wrap(err, "archiving dinner")
	}
	return respond(ctx, http.StatusOK, "Dinner archived successfully", echo.Map{
		"archived": e.Archived.Summary(),
		"current":  e.Current,
	})
}

func (api *dinnerApi) queryArchived(ctx echo.Context) error {
	summaries, err := api.svc.Archived(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying archived dinners")
	}
	return respond(ctx, http.StatusOK, "", echo.Map{"dinners": summaries})
}

func (api *dinnerApi) retrieveArchived(ctx echo.Context) error {
	a, err := api.svc.GetArchived(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting archived dinner")
	}
	return respond(ctx, http.StatusOK, "", echo.Map{"dinner": a})
}

func (api *dinnerApi) checkUpdates(ctx echo.Context) error {
	since, err := bindSince(ctx)
	if err != nil {
		return err
	}
	up, err := api.svc.CheckUpdates(ctx.Request().Context(), since)
	if err != nil {
		return errors.Wrap(err, "checking updates")
	}

	extra := echo.Map{
		"hasUpdates": up.HasUpdates,
		"timestamp":  up.Timestamp,
	}
	if up.HasUpdates {
		extra["sections"] = up.Sections
		extra["dinner"] = up.Dinner
		extra["summary"] = up.Summary
	}
	return respond(ctx, http.StatusOK, "", extra)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
