package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ufsoft/screener/internal/pkg/security"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UUID             string                  `json:"uuid"`
	Username         string                  `json:"username"`
	IsLoggedIn       bool                    `json:"is_logged_in"`
	IsAdmin          bool                    `json:"is_admin"`
	Confirmed        bool                    `json:"confirmed"`
	ShowAdultContent bool                    `json:"show_adult_content"`
	Capabilities     *security.CapabilitySet `json:"-"`
}

// Requester returns the identity used for visibility decisions.
func (u UserContext) Requester() visibility.Requester {
	r := visibility.Requester{
		UUID:             u.UUID,
		IsAdmin:          u.IsAdmin,
		ShowAdultContent: u.ShowAdultContent,
	}
	if u.Capabilities != nil {
		r.Capabilities = u.Capabilities
	}
	return r
}

// GetUserContext retrieves the user context from fiber context
// Returns an empty anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// SetUserContext stores the user context on the request.
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(LocalsKey, uc)
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserUUID returns the uuid of the current (possibly anonymous) user.
func GetUserUUID(c *fiber.Ctx) string {
	return GetUserContext(c).UUID
}
