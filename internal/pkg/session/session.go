package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ufsoft/screener/internal/pkg/config"
	"github.com/ufsoft/screener/internal/pkg/security"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// Expiration is how long an idle session survives. Anonymous identities are
// tied to the session, so it is long lived.
const Expiration = 30 * 24 * time.Hour

var sessionStore *session.Store

// NewSessionStore creates the session store: redis backed when a cache is
// configured, in memory otherwise.
func NewSessionStore(cfg *config.Config) *session.Store {
	sc := session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   !cfg.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     Expiration,
		KeyLookup:      "cookie:session_id",
	}
	if cfg.Cache.Enabled() {
		port, err := strconv.Atoi(cfg.Cache.Port)
		if err != nil {
			port = 6379
		}
		// sessions use database 1, the cache uses database 0
		sc.Storage = redis.New(redis.Config{
			Host:     cfg.Cache.Host,
			Port:     port,
			Password: cfg.Cache.Password,
			Database: 1,
			Reset:    false,
		})
	}
	sessionStore = session.New(sc)
	return sessionStore
}

// SetSessionStore replaces the global store, used by tests.
func SetSessionStore(store *session.Store) {
	sessionStore = store
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if value, ok := sess.Get(key).(string); ok {
		return value
	}
	return ""
}

// LoadCapabilities reads the signed capability set from the session. A
// missing or tampered value yields an empty set.
func LoadCapabilities(c *fiber.Ctx, secret string, limit int) *security.CapabilitySet {
	set, err := security.DecodeCapabilities(GetSessionValue(c, usercontext.KeyCapabilities), secret, limit)
	if err != nil {
		return security.NewCapabilitySet(limit)
	}
	return set
}

// GrantCapability adds id to the session's capability set.
func GrantCapability(c *fiber.Ctx, id, secret string, limit int) (*security.CapabilitySet, error) {
	set := LoadCapabilities(c, secret, limit)
	set.Add(id)
	token, err := set.Encode(secret)
	if err != nil {
		return nil, err
	}
	return set, SetSessionValue(c, usercontext.KeyCapabilities, token)
}

// Login binds the session to an account. The session id is rotated so a
// pre-login id cannot be reused.
func Login(c *fiber.Ctx, userUUID string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usercontext.KeyUserUUID, userUUID)
	sess.Set(usercontext.KeyLoggedIn, true)
	return sess.Save()
}

// Logout drops the session and everything stored in it.
func Logout(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	return sess.Destroy()
}
