package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/event"
	"github.com/Additional-Code/storefront/internal/logger"
	"github.com/Additional-Code/storefront/internal/messaging"
	"github.com/Additional-Code/storefront/internal/migration"
	"github.com/Additional-Code/storefront/internal/observability"
	repositoryorder "github.com/Additional-Code/storefront/internal/repository/order"
	repositoryuser "github.com/Additional-Code/storefront/internal/repository/user"
	grpcserver "github.com/Additional-Code/storefront/internal/server/grpc"
	httpserver "github.com/Additional-Code/storefront/internal/server/http"
	serviceorder "github.com/Additional-Code/storefront/internal/service/order"
	serviceuser "github.com/Additional-Code/storefront/internal/service/user"
	transporthttp "github.com/Additional-Code/storefront/internal/transport/http"
	"github.com/Additional-Code/storefront/internal/worker"
	workerevents "github.com/Additional-Code/storefront/internal/worker/events"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	event.Module,
	observability.Module,
	repositoryuser.Module,
	repositoryorder.Module,
	serviceuser.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP transport on top of the core modules. Pending
// migrations run before the listeners start when DB_AUTO_MIGRATE is set.
var HTTP = fx.Options(
	Core,
	migration.AutoMigrate,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerevents.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
