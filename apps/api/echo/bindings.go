package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
)

const (
	whichParam = "which"
	sinceParam = "since"
)

var (
	errDinnerNotFound   = core.NewNotFoundError("Dinner not found")
	errInvalidTimestamp = core.NewValidationError(errors.New("Invalid timestamp"))
)

// bindWhich reads the :which path parameter (current or next).
func bindWhich(ctx echo.Context) (dinner.Which, error) {
	which := dinner.Which(strings.ToLower(ctx.Param(whichParam)))
	if !which.Valid() {
		return "", errDinnerNotFound
	}
	return which, nil
}

// bindSince reads the ?since= unix milliseconds query parameter; missing means 0.
func bindSince(ctx echo.Context) (int64, error) {
	val := strings.TrimSpace(ctx.QueryParam(sinceParam))
	if val == "" {
		return 0, nil
	}
	since, err := strconv.ParseInt(val, 10, 64)
	if err != nil || since < 0 {
		return 0, errInvalidTimestamp
	}
	return since, nil
}
