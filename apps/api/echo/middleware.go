package echoapi

import (
	"github.com/labstack/echo/v4"
)

// adminMiddleware must run after the session middleware.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if !usr.IsAdmin {
				return errAdminOnly
			}
			return next(ctx)
		}
	}
}
