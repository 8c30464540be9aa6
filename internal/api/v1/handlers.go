package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to the controllers to keep behavior consistent
	"github.com/ufsoft/screener/app/controllers"
)

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer serves the key authenticated v1 API described in
// public/docs/v1/openapi.yml.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// GetAccount returns the key owner.
func (s *APIServer) GetAccount(c *fiber.Ctx) error {
	return controllers.HandleAPIAccount(c)
}

// GetCategories lists the key owner's categories.
func (s *APIServer) GetCategories(c *fiber.Ctx) error {
	return controllers.HandleAPICategories(c)
}

// PostUpload uploads an image, optionally into the category in the path.
func (s *APIServer) PostUpload(c *fiber.Ctx) error {
	return controllers.HandleAPIUpload(c)
}

// RegisterHandlers installs the v1 routes. Everything but ping requires
// auth.
func RegisterHandlers(router fiber.Router, s *APIServer, auth fiber.Handler) {
	router.Get("/ping", s.GetPing)
	router.Get("/account", auth, s.GetAccount)
	router.Get("/categories", auth, s.GetCategories)
	router.Post("/upload", auth, s.PostUpload)
	router.Post("/upload/:category", auth, s.PostUpload)
}
