package app

import (
	"go.uber.org/fx"

	"github.com/orderdash/orderdash/internal/cache"
	"github.com/orderdash/orderdash/internal/config"
	"github.com/orderdash/orderdash/internal/database"
	"github.com/orderdash/orderdash/internal/logger"
	"github.com/orderdash/orderdash/internal/messaging"
	"github.com/orderdash/orderdash/internal/observability"
	repositoryorder "github.com/orderdash/orderdash/internal/repository/order"
	httpserver "github.com/orderdash/orderdash/internal/server/http"
	serviceorder "github.com/orderdash/orderdash/internal/service/order"
	transporthttp "github.com/orderdash/orderdash/internal/transport/http"
	"github.com/orderdash/orderdash/internal/worker"
	workerorder "github.com/orderdash/orderdash/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP wires the dashboard transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background event processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
