package middleware

import (
	"errors"
	"strings"

	"go-pos-terminal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(tokenString string) (*service.Principal, error)
}

// RequireAuth validates the JWT and stores the principal in c.Locals.
// Websocket upgrades cannot set headers from a browser, so a "token" query
// parameter is accepted as well.
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		principal, err := auth.Authenticate(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrSessionReplaced) {
				return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
			}
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("principal", principal)
		c.Locals("user_id", principal.UserID.String())
		c.Locals("username", principal.Username)
		c.Locals("user_privileges", principal.Privileges)

		return c.Next()
	}
}

// Principal returns the caller stored by RequireAuth.
func Principal(c *fiber.Ctx) *service.Principal {
	p, _ := c.Locals("principal").(*service.Principal)
	return p
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}
