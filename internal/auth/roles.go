package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/primewheels/agent-service/internal/domain"
	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

// DeniedHandler renders a rejected request. err is an unauthorized or
// forbidden DomainError.
type DeniedHandler func(c *fiber.Ctx, err error) error

// RejectWithError returns the error to the error middleware.
func RejectWithError(_ *fiber.Ctx, err error) error {
	return err
}

// RequireRole admits callers holding one of the allowed roles. Anonymous
// callers get an unauthorized error, others a forbidden one.
func RequireRole(onDenied DeniedHandler, allowed ...domain.Role) fiber.Handler {
	if onDenied == nil {
		onDenied = RejectWithError
	}
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal == nil {
			return onDenied(c, apperrors.NewUnauthorized("Please log in to continue"))
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return onDenied(c, apperrors.NewForbidden("Access denied. Host privileges required"))
		}
		return c.Next()
	}
}

// RequireHost is RequireRole for the host role.
func RequireHost(onDenied DeniedHandler) fiber.Handler {
	return RequireRole(onDenied, domain.RoleHost)
}
