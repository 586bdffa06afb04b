package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/Additional-Code/storefront/internal/transport/http/order"
	roottransport "github.com/Additional-Code/storefront/internal/transport/http/root"
	usertransport "github.com/Additional-Code/storefront/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	roottransport.Module,
	usertransport.Module,
	ordertransport.Module,
)
