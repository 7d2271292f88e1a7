package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/primewheels/agent-service/internal/api/http/handlers"
	"github.com/primewheels/agent-service/internal/auth"
	"github.com/primewheels/agent-service/internal/observability"
	"github.com/primewheels/agent-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Pages          *handlers.AgentApplicationsPageHandler
	API            *handlers.AgentApplicationsAPIHandler
	AuthMiddleware *auth.AuthMiddleware
	SubmitLimiter  *ratelimit.Limiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	pageLimited := SubmissionLimit(cfg.SubmitLimiter, cfg.Metrics, func(c *fiber.Ctx, err error) error {
		return handlers.RedirectWithFlash(c, handlers.PathAgentForm, handlers.FlashError, err.Error())
	})
	apiLimited := SubmissionLimit(cfg.SubmitLimiter, cfg.Metrics, auth.RejectWithError)

	app.Use(cfg.AuthMiddleware.Handle)

	app.Get(handlers.PathHome, func(c *fiber.Ctx) error {
		return c.Redirect(handlers.PathAgentForm, fiber.StatusFound)
	})
	app.Get(handlers.PathAgentForm, cfg.Pages.AgentForm)
	app.Post("/submit-agent-form", pageLimited, cfg.Pages.Submit)

	pageHost := auth.RequireHost(handlers.DeniedRedirect)
	app.Get(handlers.PathAdminDashboard, pageHost, cfg.Pages.Dashboard)
	app.Post("/approve/:id", pageHost, cfg.Pages.Approve)
	app.Post("/reject/:id", pageHost, cfg.Pages.Reject)
	app.Get("/application/:id", pageHost, cfg.Pages.Detail)

	api := app.Group("/api")
	api.Post("/submit-agent-form", apiLimited, cfg.API.Submit)

	apiHost := auth.RequireHost(auth.RejectWithError)
	api.Get("/admin-dashboard", apiHost, cfg.API.Dashboard)
	api.Post("/approve/:id", apiHost, cfg.API.Approve)
	api.Post("/reject/:id", apiHost, cfg.API.Reject)
	api.Get("/application/:id", apiHost, cfg.API.Detail)
}
