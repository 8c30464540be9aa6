package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/config"
	"github.com/ufsoft/screener/internal/pkg/session"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// UserContextMiddleware attaches an identity to every request. With
// createAnonymous, visitors without a session user get a persisted anonymous
// user so their uploads always have an owner; rendition routes load existing
// identities only, so hotlinked images do not mint users.
func UserContextMiddleware(users repository.UserRepository, cfg *config.Config, createAnonymous bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := session.GetSessionStore()
		if store == nil {
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}
		sess, err := store.Get(c)
		if err != nil {
			log.Warnf("[Session] Could not load session: %v", err)
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		var user *models.User
		if uuid, ok := sess.Get(usercontext.KeyUserUUID).(string); ok && uuid != "" {
			user, err = users.GetByUUID(uuid)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		if user == nil && !createAnonymous {
			usercontext.SetUserContext(c, usercontext.UserContext{
				Capabilities: session.LoadCapabilities(c, cfg.App.Secret, cfg.Visibility.CapabilityLimit),
			})
			return c.Next()
		}
		if user == nil {
			user = models.NewAnonymousUser()
			if err := users.Create(user); err != nil {
				return err
			}
			sess.Set(usercontext.KeyUserUUID, user.UUID)
			sess.Delete(usercontext.KeyLoggedIn)
			if err := sess.Save(); err != nil {
				return err
			}
		} else if err := users.TouchLastVisit(user.UUID); err != nil {
			log.Warnf("[Session] Could not update last visit of %s: %v", user.UUID, err)
		}

		loggedIn, _ := sess.Get(usercontext.KeyLoggedIn).(bool)
		usercontext.SetUserContext(c, usercontext.UserContext{
			UUID:             user.UUID,
			Username:         user.DisplayName(),
			IsLoggedIn:       loggedIn && !user.IsAnonymous(),
			IsAdmin:          loggedIn && user.IsAdmin,
			Confirmed:        user.Confirmed,
			ShowAdultContent: user.ShowAdultContent,
			Capabilities:     session.LoadCapabilities(c, cfg.App.Secret, cfg.Visibility.CapabilityLimit),
		})
		return c.Next()
	}
}
