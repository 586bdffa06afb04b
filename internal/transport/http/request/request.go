// Package request holds the input helpers shared by HTTP handlers.
package request

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/storefront/pkg/errorbank"
)

// PathID parses an int64 path parameter. Only the integer form is checked;
// ids that match nothing are left to the lookup to report.
func PathID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid "+name, errorbank.WithDetail(name, raw))
	}
	return id, nil
}

// Bind fills dst from query parameters first and then from the request body,
// so creation endpoints accept either form, and validates the result.
func Bind(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		return errorbank.BadRequest("invalid query parameters", errorbank.WithCause(err))
	}
	if err := c.Bind(dst); err != nil {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	if err := c.Validate(dst); err != nil {
		return errorbank.From(err)
	}
	return nil
}
