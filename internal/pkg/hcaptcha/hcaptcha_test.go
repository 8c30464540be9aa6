package hcaptcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsoft/screener/internal/pkg/config"
)

func TestVerifier_Disabled(t *testing.T) {
	v := NewVerifier(config.HCaptcha{})
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify(context.Background(), "", ""))
}

func TestVerifier_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		ok := r.PostForm.Get("response") == "good" && r.PostForm.Get("secret") == "shh"
		resp := Response{Success: ok}
		if !ok {
			resp.ErrorCodes = []string{"invalid-input-response"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	v := NewVerifier(config.HCaptcha{SiteKey: "site", Secret: "shh"}).WithEndpoint(srv.URL)
	ctx := context.Background()
	assert.NoError(t, v.Verify(ctx, "good", "192.0.2.1"))

	err := v.Verify(ctx, "bad", "")
	assert.ErrorIs(t, err, ErrCaptchaFailed)
	assert.Contains(t, err.Error(), "invalid-input-response")

	assert.ErrorIs(t, v.Verify(ctx, "", ""), ErrCaptchaFailed)
}
