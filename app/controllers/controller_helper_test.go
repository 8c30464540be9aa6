package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "cloudflare header wins",
			headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "first forwarded address",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"},
			want:    "198.51.100.1",
		},
		{
			name:    "real ip header",
			headers: map[string]string{"X-Real-IP": "192.0.2.44"},
			want:    "192.0.2.44",
		},
		{
			name:    "garbage is skipped",
			headers: map[string]string{"CF-Connecting-IP": "not-an-ip", "X-Real-IP": "::ffff:192.0.2.9"},
			want:    "192.0.2.9",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Get("/", func(c *fiber.Ctx) error {
				got = GetClientIP(c)
				return c.SendStatus(fiber.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			_, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/show/pets/cat.png", safeRedirect("/show/pets/cat.png"))
	assert.Equal(t, "/", safeRedirect("https://example.com/"))
	assert.Equal(t, "/", safeRedirect("//example.com/x"))
	assert.Equal(t, "/", safeRedirect("/\\example.com"))
	assert.Equal(t, "/", safeRedirect(""))
}

func TestFormHelpers(t *testing.T) {
	app := fiber.New()
	var (
		flags   []bool
		private []string
	)
	app.Post("/", func(c *fiber.Ctx) error {
		flags = []bool{formBool(c, "a"), formBool(c, "b"), formBool(c, "c"), formBool(c, "missing")}
		private = formValues(c, "private")
		return c.SendStatus(fiber.StatusNoContent)
	})

	form := url.Values{"a": {"on"}, "b": {"Yes"}, "c": {"0"}, "private": {"pets", "diary"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, false, false}, flags)
	assert.Equal(t, []string{"pets", "diary"}, private)
}
