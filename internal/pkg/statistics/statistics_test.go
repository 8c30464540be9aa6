package statistics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/database"
	"github.com/ufsoft/screener/internal/pkg/storage"
)

func TestDiskUsage_CategoryAndUser(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	manager := storage.NewManager(backend)
	ctx := context.Background()

	owner := models.NewAnonymousUser()
	require.NoError(t, repos.User.Create(owner))

	cat := models.NewCategory("pets", "", false, owner.UUID)
	publish := func(filename string, size int, abuse bool) *models.Image {
		img := models.NewImage(cat, filename, "image/png")
		img.OwnerUUID = owner.UUID
		img.ResizedAlias = true
		require.NoError(t, repos.Image.Commit(cat, img))
		l, err := storage.LayoutFor(img)
		require.NoError(t, err)
		_, err = manager.Publish(ctx, []storage.Object{
			{Key: l.Original, Data: make([]byte, size)},
			{Key: l.Resized, AliasOf: l.Original},
			{Key: l.Thumbnail, Data: make([]byte, 7)},
		})
		require.NoError(t, err)
		if abuse {
			require.NoError(t, repos.Abuse.Create(models.NewAbuse(img, "", "spam", "127.0.0.1", "a@example.com")))
		}
		return img
	}
	publish("a.png", 100, false)
	publish("b.png", 50, true)

	du := NewDiskUsage(repos.Image, repos.User, manager)
	usage, err := du.ForCategory(ctx, "pets")
	require.NoError(t, err)
	assert.Equal(t, models.DiskUsage{Images: 100, Thumbs: 7, Abuse: 57}, usage)

	usage, err = du.RefreshUser(ctx, owner.UUID)
	require.NoError(t, err)
	assert.Equal(t, int64(164), usage.Total())

	stored, err := repos.User.GetByUUID(owner.UUID)
	require.NoError(t, err)
	assert.Equal(t, usage, stored.DiskUsage())
}

func TestCollector_WithoutCache(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	cat := models.NewCategory("pets", "", false, "")
	require.NoError(t, repos.Image.Commit(cat, models.NewImage(cat, "a.png", "image/png")))

	stats := NewCollector(db).Get(context.Background())
	assert.Equal(t, int64(1), stats.TotalImages)
	assert.Equal(t, int64(1), stats.TodayImages)
	assert.Equal(t, int64(1), stats.TotalCategories)
	assert.Zero(t, stats.TotalUsers)
}
