package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/domain"
)

const principalKey = "auth_principal"

// DefaultCookieName is where the session layer stores the access token.
const DefaultCookieName = "access_token"

// Principal represents the authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   domain.Role
}

// IsHost reports whether the caller may review applications.
func (p *Principal) IsHost() bool {
	return p != nil && p.Role == domain.RoleHost
}

// AuthMiddleware reads the access token and attaches a principal. Requests
// without a valid token continue anonymously; gates decide what to do.
type AuthMiddleware struct {
	tokens     *TokenManager
	roles      RoleResolver
	cookieName string
	logger     *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, roles RoleResolver, cookieName string, logger *zap.Logger) *AuthMiddleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, roles: roles, cookieName: cookieName, logger: logger}
}

// Handle authenticates the caller when a token is present.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := m.tokenFrom(c)
	if raw == "" {
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		m.logger.Debug("ignoring invalid access token", zap.Error(err))
		return c.Next()
	}

	identity := claims.Identity()
	role := domain.RoleUser
	if m.roles != nil {
		resolved, err := m.roles.ResolveRole(c.UserContext(), identity)
		if err != nil {
			return err
		}
		role = resolved
	}

	c.Locals(principalKey, &Principal{
		UserID: identity.UserID,
		Email:  identity.Email,
		Name:   identity.Name,
		Role:   role,
	})
	return c.Next()
}

func (m *AuthMiddleware) tokenFrom(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(m.cookieName)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
