package root

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/storefront/internal/presentation/http/response"
)

// Hint is served at the root path.
const Hint = "storefront API: see /users/{id}, /users/{id}/orders, /orders/{id} and /health"

// Module wires the root route.
var Module = fx.Invoke(Register)

// Register mounts the root route.
func Register(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return response.New(c).WithData(map[string]string{"message": Hint}).Build()
	})
}
