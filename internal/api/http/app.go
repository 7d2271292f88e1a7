package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/api/http/views"
	"github.com/primewheels/agent-service/internal/config"
	"github.com/primewheels/agent-service/internal/observability"
)

// NewApp builds the fiber application with views and error handling.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	fiberCfg := fiber.Config{
		AppName:      cfg.Name,
		Views:        views.NewEngine(),
		ErrorHandler: ErrorHandler(logger, metrics),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	if cfg.TrustProxy {
		fiberCfg.ProxyHeader = fiber.HeaderXForwardedFor
	}
	return fiber.New(fiberCfg)
}
