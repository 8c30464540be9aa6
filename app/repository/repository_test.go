package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ufsoft/screener/app/models"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Category{}, &models.Image{}, &models.Abuse{}, &models.Change{}))
	return NewRepositories(db)
}

func commitImage(t *testing.T, repos *Repositories, cat *models.Category, filename string) *models.Image {
	t.Helper()
	img := models.NewImage(cat, filename, "image/png")
	img.OwnerUUID = cat.OwnerUUID
	require.NoError(t, repos.Image.Commit(cat, img))
	return img
}

func TestImageCommit_CreatesCategoryOnce(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("pets", "my pets", false, "u1")
	commitImage(t, repos, cat, "a.png")

	again := models.NewCategory("pets", "other", true, "u2")
	commitImage(t, repos, again, "b.png")

	assert.Equal(t, cat.Secret, again.Secret, "the stored category wins")
	assert.Equal(t, "my pets", again.Description)

	images, err := repos.Image.ListByCategory("pets")
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestImageCommit_DuplicateFilename(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("pets", "", false, "")
	commitImage(t, repos, cat, "a.png")

	dup := models.NewImage(cat, "a.png", "image/png")
	dup.ID = "0000000000000000000000000000000000000000"
	err := repos.Image.Commit(cat, dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestImageGetByRef(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("pets", "", false, "")
	img := commitImage(t, repos, cat, "photo.jpg")

	for _, ref := range []string{img.ID, "photo.jpg", "photo.thumbnail.jpg", "photo.resized.jpg"} {
		got, err := repos.Image.GetByRef("pets", ref)
		require.NoError(t, err, ref)
		assert.Equal(t, img.ID, got.ID)
	}

	_, err := repos.Image.GetByRef("other", img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repos.Image.GetByRef("pets", "missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryGetByRef(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("holiday", "", true, "")
	require.NoError(t, repos.Category.Create(cat))

	byName, err := repos.Category.GetByRef("holiday")
	require.NoError(t, err)
	bySecret, err := repos.Category.GetByRef(cat.Secret)
	require.NoError(t, err)
	assert.Equal(t, byName.Name, bySecret.Name)

	_, err = repos.Category.GetByRef("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryDelete_Cascades(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("pets", "", false, "")
	img := commitImage(t, repos, cat, "a.png")
	require.NoError(t, repos.Abuse.Create(models.NewAbuse(img, "", "spam", "127.0.0.1", "a@b.c")))

	removed, err := repos.Category.Delete("pets")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, img.ID, removed[0].ID)

	_, err = repos.Image.GetByID(img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repos.Abuse.GetByImageID(img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryListVisible(t *testing.T) {
	repos := newTestRepos(t)
	require.NoError(t, repos.Category.Create(models.NewCategory("public", "", false, "u1")))
	require.NoError(t, repos.Category.Create(models.NewCategory("mine", "", true, "u1")))
	require.NoError(t, repos.Category.Create(models.NewCategory("theirs", "", true, "u2")))

	visible, err := repos.Category.ListVisible("u1")
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	anon, err := repos.Category.ListVisible("")
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, "public", anon[0].Name)
}

func TestAbuse_OnePerImage(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("pets", "", false, "")
	img := commitImage(t, repos, cat, "a.png")

	first := models.NewAbuse(img, "", "spam", "127.0.0.1", "a@b.c")
	require.NoError(t, repos.Abuse.Create(first))
	second := models.NewAbuse(img, "", "again", "127.0.0.2", "x@y.z")
	assert.ErrorIs(t, repos.Abuse.Create(second), ErrDuplicate)

	require.NoError(t, repos.Abuse.Confirm(first.Hash))
	got, err := repos.Image.GetByID(img.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AbuseConfirmed, got.AbuseStatus())

	assert.ErrorIs(t, repos.Abuse.Confirm("unknown"), ErrNotFound)
}

func TestChangeApply_ConfirmsAndDeletes(t *testing.T) {
	repos := newTestRepos(t)
	user, err := models.CreateUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))

	change, err := models.NewChange(user, models.ChangeConfirmed, "")
	require.NoError(t, err)
	require.NoError(t, repos.Change.Create(change))

	loaded, err := repos.Change.GetByHash(change.Hash)
	require.NoError(t, err)
	require.NoError(t, repos.Change.Apply(loaded))

	stored, err := repos.User.GetByUUID(user.UUID)
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)

	_, err = repos.Change.GetByHash(change.Hash)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserUniqueUsername(t *testing.T) {
	repos := newTestRepos(t)
	a, err := models.CreateUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(a))

	b, err := models.CreateUser("alice", "other@example.com", "secret123")
	require.NoError(t, err)
	assert.ErrorIs(t, repos.User.Create(b), ErrDuplicate)

	// anonymous users have no username and never collide
	require.NoError(t, repos.User.Create(models.NewAnonymousUser()))
	require.NoError(t, repos.User.Create(models.NewAnonymousUser()))
}

func TestUserDelete_Cascades(t *testing.T) {
	repos := newTestRepos(t)
	user := models.NewAnonymousUser()
	require.NoError(t, repos.User.Create(user))
	cat := models.NewCategory("pets", "", false, user.UUID)
	commitImage(t, repos, cat, "a.png")

	removed, err := repos.User.Delete(user.UUID)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	stored, err := repos.Category.GetByName("pets")
	require.NoError(t, err)
	assert.Empty(t, stored.OwnerUUID)

	_, err = repos.User.GetByUUID(user.UUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageAddViews(t *testing.T) {
	repos := newTestRepos(t)
	cat := models.NewCategory("pets", "", false, "")
	img := commitImage(t, repos, cat, "a.png")

	require.NoError(t, repos.Image.AddViews(img.ID, 3))
	got, err := repos.Image.GetByID(img.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Views)
}

func TestUserGetByAPIKeyHash(t *testing.T) {
	repos := newTestRepos(t)
	u, err := models.CreateUser("alice", "alice@example.com", "secret-password")
	require.NoError(t, err)
	key, err := u.IssueAPIKey()
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(u))
	require.NoError(t, repos.User.Create(models.NewAnonymousUser()))

	found, err := repos.User.GetByAPIKeyHash(models.HashAPIKey(key))
	require.NoError(t, err)
	assert.Equal(t, u.UUID, found.UUID)

	_, err = repos.User.GetByAPIKeyHash(models.HashAPIKey("scr_unknown"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFactory(t *testing.T) {
	_, err := GetGlobalRepositories()
	assert.ErrorIs(t, err, ErrFactoryNotInitialized)

	f := NewFactory(nil)
	assert.Same(t, f.Repositories(), f.Repositories())

	repos := InitializeFactory(nil)
	again := InitializeFactory(nil)
	assert.Same(t, repos, again)
	global, err := GetGlobalRepositories()
	require.NoError(t, err)
	assert.Same(t, repos, global)
}
