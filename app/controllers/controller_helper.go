package controllers

import (
	"errors"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/config"
	"github.com/ufsoft/screener/internal/pkg/hcaptcha"
	"github.com/ufsoft/screener/internal/pkg/ingestion"
	"github.com/ufsoft/screener/internal/pkg/mail"
	"github.com/ufsoft/screener/internal/pkg/metrics/counter"
	"github.com/ufsoft/screener/internal/pkg/statistics"
	"github.com/ufsoft/screener/internal/pkg/storage"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

// Dependencies are the services the handlers work with.
type Dependencies struct {
	Config     *config.Config
	Repos      *repository.Repositories
	Storage    *storage.Manager
	Health     *storage.HealthMonitor
	Pipeline   *ingestion.Pipeline
	Remover    *ingestion.Remover
	Policy     visibility.Policy
	Views      *counter.ViewCounter
	Statistics *statistics.Collector
	DiskUsage  *statistics.DiskUsage
	Notifier   *mail.Notifier
	Captcha    *hcaptcha.Verifier
}

var deps *Dependencies

// Initialize installs the handler dependencies. It must run before routes
// are served.
func Initialize(d *Dependencies) {
	deps = d
	adminController = NewAdminController(d)
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// internalError logs err under the given component and answers 500 without
// leaking details.
func internalError(c *fiber.Ctx, component string, err error) error {
	log.Errorf("[%s] %s %s: %v", component, c.Method(), c.Path(), err)
	return jsonError(c, fiber.StatusInternalServerError, "internal server error")
}

// notFoundOr answers 404 for repository.ErrNotFound and 500 otherwise.
func notFoundOr(c *fiber.Ctx, component string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "not found")
	}
	return internalError(c, component, err)
}

func formBool(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(key))) {
	case "1", "on", "yes", "true", "y":
		return true
	}
	return false
}

// GetClientIP determines the client address, honouring the headers set by
// Cloudflare and common reverse proxies.
func GetClientIP(c *fiber.Ctx) string {
	if ip := cleanIP(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	// X-Forwarded-For lists the original client first
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if ip := cleanIP(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := cleanIP(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return cleanIP(c.IP())
}

// cleanIP returns the canonical form of s, unwrapping IPv4-mapped IPv6
// addresses, or "" when s is not an address.
func cleanIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

// formValues returns every value submitted for key, in urlencoded or
// multipart bodies.
func formValues(c *fiber.Ctx, key string) []string {
	if form, err := c.MultipartForm(); err == nil {
		return form.Value[key]
	}
	var values []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		values = append(values, string(v))
	}
	return values
}
