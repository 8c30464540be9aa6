package router

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsoft/screener/app/controllers"
	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/config"
	"github.com/ufsoft/screener/internal/pkg/database"
	"github.com/ufsoft/screener/internal/pkg/ingestion"
	"github.com/ufsoft/screener/internal/pkg/mail"
	"github.com/ufsoft/screener/internal/pkg/metrics/counter"
	"github.com/ufsoft/screener/internal/pkg/session"
	"github.com/ufsoft/screener/internal/pkg/statistics"
	"github.com/ufsoft/screener/internal/pkg/storage"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

type testEnv struct {
	app     *fiber.App
	repos   *repository.Repositories
	backend *storage.LocalBackend
	mailer  *mail.RecordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	manager := storage.NewManager(backend)

	cfg := &config.Config{
		App:        config.App{Env: "dev", Secret: "test-secret", Country: "Portugal", BaseURL: "http://screener.test"},
		Upload:     config.Upload{MaxSize: 10 << 20},
		Watermark:  config.Watermark{Optional: true},
		Visibility: config.Visibility{CapabilityLimit: config.DefaultCapabilityLimit},
	}
	session.SetSessionStore(fsession.New())
	mailer := &mail.RecordingMailer{}

	deps := &controllers.Dependencies{
		Config:     cfg,
		Repos:      repos,
		Storage:    manager,
		Pipeline:   ingestion.NewPipeline(repos, manager, ingestion.Config{MaxSize: cfg.Upload.MaxSize, TempDir: t.TempDir(), WatermarkOptional: true}),
		Remover:    ingestion.NewRemover(repos, manager),
		Policy:     visibility.Policy{},
		Views:      counter.NewViewCounter(nil, repos.Image),
		Statistics: statistics.NewCollector(db),
		DiskUsage:  statistics.NewDiskUsage(repos.Image, repos.User, manager),
		Notifier:   mail.NewNotifier(mailer, cfg.App.BaseURL),
	}

	app := fiber.New()
	InstallRouter(app, deps)
	return &testEnv{app: app, repos: repos, backend: backend, mailer: mailer}
}

// client is a browser: it keeps the cookies it is given.
type client struct {
	env     *testEnv
	cookies map[string]string
	headers map[string]string
}

func (e *testEnv) client() *client {
	return &client{env: e, cookies: map[string]string{}, headers: map[string]string{}}
}

func (c *client) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.env.app.Test(req, -1)
	require.NoError(t, err)
	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" || cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}
	return resp
}

func (c *client) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return c.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(t *testing.T, path string, values url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return c.do(t, req)
}

func (c *client) upload(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if data != nil {
		part, err := w.CreateFormFile(ingestion.FieldFile, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return c.do(t, req)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadImage stores an image as c and returns its links.
func uploadImage(t *testing.T, c *client, category, filename string, extra map[string]string) map[string]any {
	t.Helper()
	fields := map[string]string{controllers.FieldTOS: "yes", ingestion.FieldCategoryName: category}
	for k, v := range extra {
		fields[k] = v
	}
	resp := c.upload(t, "/upload", filename, pngBytes(t, 40, 30), fields)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	links, ok := body["links"].(map[string]any)
	require.True(t, ok, "links missing from %v", body)
	return links
}

var (
	accountHashRe = regexp.MustCompile(`/account/confirm/([0-9a-f]+)`)
	abuseHashRe   = regexp.MustCompile(`/abuse/confirm/([0-9a-f]+)`)
)

func mailedHash(t *testing.T, mailer *mail.RecordingMailer, re *regexp.Regexp) string {
	t.Helper()
	messages := mailer.Messages()
	require.NotEmpty(t, messages)
	m := re.FindStringSubmatch(messages[len(messages)-1].Body)
	require.Len(t, m, 2)
	return m[1]
}

func TestUploadAndServe(t *testing.T) {
	env := newTestEnv(t)
	uploader := env.client()

	links := uploadImage(t, uploader, "pets", "cat.png", nil)
	assert.Equal(t, "/image/pets/cat.png", links["image"])
	assert.Equal(t, "/show/pets/cat.png", links["show"])

	visitor := env.client()
	resp := visitor.get(t, "/image/pets/cat.png")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderCacheControl), "public, max-age="))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderExpires))
	etag := resp.Header.Get(fiber.HeaderETag)
	require.NotEmpty(t, etag)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_, _, err = image.Decode(bytes.NewReader(data))
	assert.NoError(t, err)

	for _, path := range []string{"/resized/pets/cat.png", "/thumbnail/pets/cat.png"} {
		resp := visitor.get(t, path)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}

	// rendition routes do not hand out sessions
	assert.Empty(t, visitor.cookies)

	req := httptest.NewRequest(http.MethodGet, "/image/pets/cat.png", nil)
	req.Header.Set(fiber.HeaderIfNoneMatch, etag)
	resp = visitor.do(t, req)
	assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)
	assert.Equal(t, etag, resp.Header.Get(fiber.HeaderETag))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderCacheControl))
	assert.Empty(t, resp.Header.Get(fiber.HeaderExpires))
	notModifiedBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, notModifiedBody)

	// a matching validator is answered without touching storage
	require.NoError(t, os.Remove(filepath.Join(env.backend.Root(), "pets", "cat.png")))
	req = httptest.NewRequest(http.MethodGet, "/image/pets/cat.png", nil)
	req.Header.Set(fiber.HeaderIfNoneMatch, etag)
	resp = visitor.do(t, req)
	assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)

	resp = visitor.get(t, "/image/pets/cat.png")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestServeUnknownImage(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	assert.Equal(t, fiber.StatusNotFound, c.get(t, "/image/nowhere/missing.png").StatusCode)

	uploadImage(t, c, "pets", "cat.png", nil)
	assert.Equal(t, fiber.StatusNotFound, c.get(t, "/image/pets/dog.png").StatusCode)
	assert.Equal(t, fiber.StatusNotFound, c.get(t, "/show/other/cat.png").StatusCode)
}

func TestUploadRequiresTermsForUnconfirmedUsers(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	resp := c.upload(t, "/upload", "cat.png", pngBytes(t, 10, 10), map[string]string{ingestion.FieldCategoryName: "pets"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, controllers.FieldTOS, body["field"])
	form, ok := body["form"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pets", form[ingestion.FieldCategoryName])
}

func TestUploadErrorsNameTheField(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	resp := c.upload(t, "/upload", "notes.png", []byte("definitely not a picture"), map[string]string{controllers.FieldTOS: "yes"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, ingestion.FieldFile, decode(t, resp)["field"])

	resp = c.upload(t, "/upload", "", nil, map[string]string{controllers.FieldTOS: "yes"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, ingestion.FieldFile, decode(t, resp)["field"])

	uploadImage(t, c, "pets", "cat.png", nil)
	resp = c.upload(t, "/upload", "cat.png", pngBytes(t, 12, 12), map[string]string{controllers.FieldTOS: "yes", ingestion.FieldCategoryName: "pets"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestMultipleUploadReturnsToCategoryUploadPage(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	fields := map[string]string{controllers.FieldTOS: "yes", ingestion.FieldCategoryName: "cats", ingestion.FieldMultiple: "on"}
	resp := c.upload(t, "/upload", "tom.png", pngBytes(t, 20, 20), fields)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/upload/cats", resp.Header.Get(fiber.HeaderLocation))

	fields = map[string]string{
		controllers.FieldTOS:           "yes",
		ingestion.FieldCategoryName:    "diary",
		ingestion.FieldCategoryPrivate: "on",
		ingestion.FieldMultiple:        "on",
	}
	resp = c.upload(t, "/upload", "page.png", pngBytes(t, 20, 20), fields)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	diary, err := env.repos.Category.GetByName("diary")
	require.NoError(t, err)
	assert.Equal(t, "/upload/"+diary.Secret, resp.Header.Get(fiber.HeaderLocation))
}

func TestPrivateImageVisibleToUploaderOnly(t *testing.T) {
	env := newTestEnv(t)
	uploader := env.client()

	links := uploadImage(t, uploader, "vault", "secret.png", map[string]string{ingestion.FieldPrivate: "1"})
	path, ok := links["image"].(string)
	require.True(t, ok)
	assert.NotContains(t, path, "secret.png")

	resp := uploader.get(t, path)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderCacheControl), "private"))

	assert.Equal(t, fiber.StatusNotFound, env.client().get(t, path).StatusCode)
}

func TestAdultContentGate(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	uploadImage(t, c, "beach", "towel.png", map[string]string{ingestion.FieldAdultContent: "1"})

	resp := c.get(t, "/image/beach/towel.png")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, controllers.AdultContentConfirmPath, body["confirm_url"])

	resp = c.postForm(t, controllers.AdultContentConfirmPath, url.Values{"confirm": {"yes"}, "next": {"/show/beach/towel.png"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/show/beach/towel.png", resp.Header.Get(fiber.HeaderLocation))

	assert.Equal(t, fiber.StatusOK, c.get(t, "/image/beach/towel.png").StatusCode)
	assert.Equal(t, fiber.StatusConflict, env.client().get(t, "/image/beach/towel.png").StatusCode)
}

func TestAdultContentConfirmRejectsForeignRedirects(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	resp := c.postForm(t, controllers.AdultContentConfirmPath, url.Values{"confirm": {"yes"}, "next": {"//evil.example/x"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	resp = c.postForm(t, controllers.AdultContentConfirmPath, url.Values{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAbuseReportFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	uploadImage(t, c, "pets", "cat.png", nil)

	resp := c.postForm(t, "/abuse/pets/cat.png", url.Values{"reason": {"not my cat"}})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = c.postForm(t, "/abuse/pets/cat.png", url.Values{"reason": {"not my cat"}, "email": {"reporter@example.com"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// pending review hides the image from everyone but admins
	assert.Equal(t, fiber.StatusConflict, env.client().get(t, "/image/pets/cat.png").StatusCode)

	resp = c.postForm(t, "/abuse/pets/cat.png", url.Values{"reason": {"again"}, "email": {"reporter@example.com"}})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	hash := mailedHash(t, env.mailer, abuseHashRe)
	resp = c.get(t, "/abuse/confirm/"+hash)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	report, err := env.repos.Abuse.GetByHash(hash)
	require.NoError(t, err)
	assert.True(t, report.Confirmed)
	assert.Equal(t, fiber.StatusGone, env.client().get(t, "/image/pets/cat.png").StatusCode)

	resp = c.get(t, "/abuse/confirm/0000")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestAbuseReportOnPrivateImage(t *testing.T) {
	env := newTestEnv(t)
	uploader := env.client()
	links := uploadImage(t, uploader, "vault", "secret.png", map[string]string{ingestion.FieldPrivate: "1"})
	abusePath, ok := links["abuse"].(string)
	require.True(t, ok)

	stranger := env.client()
	existing := stranger.get(t, "/abuse/vault/secret.png")
	missing := stranger.get(t, "/abuse/vault/missing.png")
	assert.Equal(t, fiber.StatusNotFound, existing.StatusCode)
	assert.Equal(t, missing.StatusCode, existing.StatusCode)
	assert.Equal(t, decode(t, missing), decode(t, existing))
	assert.Equal(t, fiber.StatusNotFound, stranger.get(t, abusePath).StatusCode)

	resp := stranger.postForm(t, "/abuse/vault/secret.png", url.Values{"reason": {"curious"}, "email": {"stranger@example.com"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	img, err := env.repos.Image.GetByRef("vault", "secret.png")
	require.NoError(t, err)
	assert.Nil(t, img.Abuse)

	assert.Equal(t, fiber.StatusOK, uploader.get(t, abusePath).StatusCode)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	owner := env.client()

	resp := owner.postForm(t, "/category", url.Values{"name": {"cats"}, "description": {"all cats"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/category/cats", decode(t, resp)["url"])

	assert.Equal(t, fiber.StatusConflict, owner.postForm(t, "/category", url.Values{"name": {"cats"}}).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, owner.postForm(t, "/category", url.Values{"name": {"two words"}}).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, owner.postForm(t, "/category", url.Values{}).StatusCode)

	resp = owner.postForm(t, "/category", url.Values{"name": {"diary"}, "private": {"on"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	secretURL, ok := decode(t, resp)["url"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "/category/diary", secretURL)

	visitor := env.client()
	resp = visitor.get(t, "/categories")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	listed, ok := decode(t, resp)["categories"].([]any)
	require.True(t, ok)
	assert.Len(t, listed, 1)

	resp = owner.get(t, "/categories")
	listed, ok = decode(t, resp)["categories"].([]any)
	require.True(t, ok)
	assert.Len(t, listed, 2)

	assert.Equal(t, fiber.StatusNotFound, visitor.get(t, "/category/diary").StatusCode)
	assert.Equal(t, fiber.StatusOK, visitor.get(t, secretURL).StatusCode)
	assert.Equal(t, fiber.StatusOK, owner.get(t, "/category/diary").StatusCode)
}

func TestShowImageCountsViews(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	uploadImage(t, c, "pets", "cat.png", nil)

	resp := c.get(t, "/show/pets/cat.png")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["owned"])

	img, err := env.repos.Image.GetByRef("pets", "cat.png")
	require.NoError(t, err)
	assert.Equal(t, 1, img.Views)
}

func TestAccountLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	// uploads made before registering stay with the account
	uploadImage(t, c, "pets", "cat.png", nil)

	register := url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"s3cret-pass"},
		"password_confirm": {"s3cret-pass"},
	}
	resp := c.postForm(t, "/account/register", register)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, fiber.StatusConflict, env.client().postForm(t, "/account/register", register).StatusCode)

	login := url.Values{"username": {"alice"}, "password": {"s3cret-pass"}}
	assert.Equal(t, fiber.StatusForbidden, c.postForm(t, "/account/login", login).StatusCode)

	hash := mailedHash(t, env.mailer, accountHashRe)
	resp = c.get(t, "/account/confirm/"+hash)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	bad := url.Values{"username": {"alice"}, "password": {"wrong"}}
	assert.Equal(t, fiber.StatusUnauthorized, c.postForm(t, "/account/login", bad).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, c.postForm(t, "/account/login", url.Values{"username": {"bob"}}).StatusCode)

	resp = c.postForm(t, "/account/login", login)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", decode(t, resp)["next"])

	resp = c.get(t, "/account/images")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	images, ok := decode(t, resp)["images"].([]any)
	require.True(t, ok)
	assert.Len(t, images, 1)

	resp = c.postForm(t, "/account/preferences", url.Values{"password": {"new-pass"}, "password_confirm": {"other"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = c.postForm(t, "/account/preferences", url.Values{"show_adult_content": {"1"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user, err := env.repos.User.GetByUsername("alice")
	require.NoError(t, err)
	assert.True(t, user.ShowAdultContent)

	resp = c.postForm(t, "/account/logout", nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, c.get(t, "/account/preferences").StatusCode)
}

func TestAPIUploadWithKey(t *testing.T) {
	env := newTestEnv(t)

	user, err := models.CreateUser("robot", "robot@example.com", "beep-boop")
	require.NoError(t, err)
	user.Confirmed = true
	key, err := user.IssueAPIKey()
	require.NoError(t, err)
	require.NoError(t, env.repos.User.Create(user))

	anonymous := env.client()
	resp := anonymous.upload(t, "/api/v1/upload", "cat.png", pngBytes(t, 20, 20), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	bot := env.client()
	bot.headers["X-API-Key"] = key
	resp = bot.upload(t, "/api/v1/upload", "cat.png", pngBytes(t, 20, 20), map[string]string{ingestion.FieldCategoryName: "robots"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	img, err := env.repos.Image.GetByRef("robots", "cat.png")
	require.NoError(t, err)
	assert.Equal(t, user.UUID, img.OwnerUUID)

	resp = bot.get(t, "/api/v1/categories")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	categories, ok := decode(t, resp)["categories"].([]any)
	require.True(t, ok)
	assert.Len(t, categories, 1)

	assert.Equal(t, fiber.StatusOK, anonymous.get(t, "/api/v1/ping").StatusCode)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	assert.Equal(t, fiber.StatusUnauthorized, c.get(t, "/admin/").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, c.postForm(t, "/admin/images/delete/x", nil).StatusCode)
}

func TestAdminModeration(t *testing.T) {
	env := newTestEnv(t)

	admin, err := models.CreateUser("root", "root@example.com", "admin-pass")
	require.NoError(t, err)
	admin.Confirmed = true
	admin.IsAdmin = true
	require.NoError(t, env.repos.User.Create(admin))

	uploader := env.client()
	uploadImage(t, uploader, "pets", "cat.png", nil)
	uploadImage(t, uploader, "junk", "trash.png", nil)

	c := env.client()
	resp := c.postForm(t, "/account/login", url.Values{"username": {"root"}, "password": {"admin-pass"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "/admin", decode(t, resp)["next"])

	resp = c.get(t, "/admin/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = c.postForm(t, "/admin/categories", url.Values{"private": {"pets"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	pets, err := env.repos.Category.GetByName("pets")
	require.NoError(t, err)
	assert.True(t, pets.Private)

	img, err := env.repos.Image.GetByRef("junk", "trash.png")
	require.NoError(t, err)
	resp = c.postForm(t, "/admin/images/delete/"+img.ID, nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, err = env.repos.Image.GetByID(img.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = os.Stat(filepath.Join(env.backend.Root(), "junk", "trash.png"))
	assert.True(t, os.IsNotExist(err))

	resp = c.postForm(t, "/admin/categories/delete/pets", nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, err = env.repos.Category.GetByName("pets")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	resp = c.postForm(t, "/admin/users/delete/"+admin.UUID, nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, err = env.repos.User.GetByUUID(admin.UUID)
	assert.NoError(t, err)
}
