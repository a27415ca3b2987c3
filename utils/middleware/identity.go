package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/video-agent-api/utils/auth"
	"github.com/sahilchouksey/video-agent-api/utils/response"
)

const userIDKey = "user_id"

// Identity resolves the caller. Without a JWT manager every request runs as
// fallbackUser; with one, a bearer token is optional but must be valid when sent.
func Identity(jwtManager *auth.JWTManager, fallbackUser string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userIDKey, fallbackUser)
		if jwtManager == nil {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		c.Locals(userIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the identity stored by Identity
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
