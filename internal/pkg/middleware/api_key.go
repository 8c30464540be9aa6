package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// APIKeyAuthMiddleware authenticates requests carrying a user API key header.
func APIKeyAuthMiddleware(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing API key"})
		}

		user, err := users.GetByAPIKeyHash(models.HashAPIKey(apiKey))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid API key"})
			}
			log.Errorf("[API] API key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "API key verification failed"})
		}
		if !user.Confirmed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account not confirmed"})
		}
		if err := users.TouchLastVisit(user.UUID); err != nil {
			log.Warnf("[API] Could not update last visit of %s: %v", user.UUID, err)
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UUID:             user.UUID,
			Username:         user.DisplayName(),
			IsLoggedIn:       true,
			IsAdmin:          user.IsAdmin,
			Confirmed:        user.Confirmed,
			ShowAdultContent: user.ShowAdultContent,
		})
		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	if apiKey := strings.TrimSpace(c.Get("X-API-Key")); apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
