package middleware

import (
	"strings"

	"storerating/internal/apperror"
	"storerating/internal/models"
	"storerating/internal/services"
	"storerating/pkg/logger"
	"storerating/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// TokenValidator turns a bearer token into a principal. *services.AuthService
// implements it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Principal, error)
}

func reject(c *fiber.Ctx, reason string, err *apperror.Error) error {
	metrics.AuthRejections.WithLabelValues(reason).Inc()
	return c.Status(err.Kind.HTTPStatus()).JSON(fiber.Map{"message": err.Message})
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return reject(c, "missing_token", apperror.Unauthorized("Authorization header is required"))
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return reject(c, "malformed_header", apperror.Unauthorized("Authorization header format must be 'Bearer <token>'"))
		}

		principal, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("JWT validation failed", "path", c.Path(), "error", err)
			return reject(c, "invalid_token", apperror.Unauthorized("Invalid or expired token"))
		}

		c.Locals(principalKey, *principal)
		return c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated principal
// holds one of roles. It must run after AuthRequired.
func RequireRoles(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return reject(c, "missing_principal", apperror.Unauthorized("Authentication required"))
		}
		if _, ok := allowed[principal.Role]; !ok {
			return reject(c, "forbidden_role", apperror.Forbidden("Access denied. Insufficient permissions"))
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (services.Principal, bool) {
	p, ok := c.Locals(principalKey).(services.Principal)
	return p, ok
}
