package http

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/observability"
	"github.com/primewheels/agent-service/internal/ratelimit"
	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

const msgInternal = "Internal server error"

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, throttle *RequestThrottle) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	if throttle != nil {
		app.Use(throttle.Handle)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeError(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler is the fiber fallback for errors raised outside the
// middleware chain, such as unmatched routes.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, metrics, err)
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

	message := domainErr.Message
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		message = msgInternal
	}

	response := fiber.Map{
		"success": false,
		"error":   message,
		"code":    domainErr.Code,
	}
	if len(domainErr.Fields) > 0 {
		response["errors"] = domainErr.Fields
	}
	return c.Status(domainErr.HTTPStatus).JSON(response)
}

// SubmissionLimit counts every submission attempt against the caller's
// window before the body is read. onLimited renders the rejection.
func SubmissionLimit(limiter *ratelimit.Limiter, metrics *observability.Metrics, onLimited func(*fiber.Ctx, error) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := limiter.Allow(c.UserContext(), c.IP())
		if decision.Remaining >= 0 {
			c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}
		if decision.Allowed {
			return c.Next()
		}

		metrics.SubmissionRateLimited()
		if retry := decision.ResetIn; retry > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry.Seconds())+1))
		}
		return onLimited(c, apperrors.NewTooManyRequests(ratelimit.DefaultMessage))
	}
}
