package echoapi

import (
	"github.com/labstack/echo/v4"
)

// respond writes the JSON envelope {success, message, ...extra}.
func respond(ctx echo.Context, code int, message string, extra echo.Map) error {
	body := make(echo.Map, len(extra)+2)
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = code < 400
	body["message"] = message
	return ctx.JSON(code, body)
}
