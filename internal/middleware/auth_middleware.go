package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/models"
	jwtPkg "github.com/sefazor/eventphotos-backend/pkg/jwt"
	"go.uber.org/zap"
)

const (
	LocalUserID    = "userID"
	LocalUserEmail = "userEmail"
)

// AuthMiddleware resolves the bearer token into userID/userEmail locals.
func AuthMiddleware(secret string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authorization header is required"))
		}

		// Check if the header starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid authorization header format"))
		}

		claims, err := jwtPkg.ValidateToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.Debug("token validation failed", zap.String("ip", c.IP()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid token"))
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserEmail, claims.Email)

		return c.Next()
	}
}

// UserID, AuthMiddleware'den geçmemiş isteklerde 0 döner
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalUserEmail).(string)
	return email
}
