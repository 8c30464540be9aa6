package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsoft/screener/app/models"
)

func TestResolve_Public(t *testing.T) {
	l, err := Resolve("pets", "photo", ".jpg", false, "abc")
	require.NoError(t, err)
	assert.Equal(t, "pets", l.Dir)
	assert.Equal(t, "pets/photo.jpg", l.Original)
	assert.Equal(t, "pets/photo.resized.jpg", l.Resized)
	assert.Equal(t, "pets/photo.thumbnail.jpg", l.Thumbnail)
}

func TestResolve_Private(t *testing.T) {
	id := "0123456789abcdef0123456789abcdef01234567"
	l, err := Resolve("holiday", "beach", ".png", true, id)
	require.NoError(t, err)
	assert.Equal(t, "holiday/"+id, l.Original)
	assert.Equal(t, "holiday/resized/"+id, l.Resized)
	assert.Equal(t, "holiday/thumbnail/"+id, l.Thumbnail)
	assert.Equal(t, l.Resized, l.Key(models.RenditionResized))
}

func TestResolve_RejectsTraversal(t *testing.T) {
	cases := []struct{ category, name, ext string }{
		{"..", "a", ".png"},
		{"a/b", "a", ".png"},
		{"pets", "../etc", ".png"},
		{"pets", "a\\b", ".png"},
		{"pets", "a\x00", ".png"},
		{"", "a", ".png"},
		{"pets", "a", "/.png"},
	}
	for _, c := range cases {
		_, err := Resolve(c.category, c.name, c.ext, false, "id")
		assert.ErrorIs(t, err, ErrInvalidPath, "%q %q %q", c.category, c.name, c.ext)
	}
}

func newLocal(t *testing.T) (*Manager, *LocalBackend) {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	return NewManager(backend), backend
}

func TestLocalPublishAndOpen(t *testing.T) {
	m, backend := newLocal(t)
	ctx := context.Background()

	l, err := Resolve("pets", "photo", ".jpg", false, "id")
	require.NoError(t, err)
	ops, err := m.Publish(ctx, []Object{
		{Key: l.Original, Data: []byte("original-bytes")},
		{Key: l.Resized, AliasOf: l.Original},
		{Key: l.Thumbnail, Data: []byte("thumb")},
	})
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.True(t, ops[1].Alias)

	rc, size, err := backend.Open(ctx, l.Resized)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "original-bytes", string(body))
	assert.Equal(t, int64(len("original-bytes")), size)

	info, err := backend.Stat(ctx, l.Resized)
	require.NoError(t, err)
	assert.True(t, info.Alias)

	// no temp files are left behind
	entries, err := os.ReadDir(filepath.Join(backend.Root(), "pets"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLocalPut_RefusesOverwrite(t *testing.T) {
	_, backend := newLocal(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "pets/a.png", []byte("a"), "image/png"))
	assert.ErrorIs(t, backend.Put(ctx, "pets/a.png", []byte("b"), "image/png"), fs.ErrExist)

	data, err := os.ReadFile(filepath.Join(backend.Root(), "pets", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
	entries, err := os.ReadDir(filepath.Join(backend.Root(), "pets"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalOpen_Missing(t *testing.T) {
	_, backend := newLocal(t)
	_, _, err := backend.Open(context.Background(), "pets/missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestRemoveRenditions_PrunesEmptyDirectories(t *testing.T) {
	m, backend := newLocal(t)
	ctx := context.Background()

	img := &models.Image{ID: "0123456789abcdef0123456789abcdef01234567", Filename: "a.png", CategoryName: "holiday", Path: "holiday", Private: true}
	l, err := LayoutFor(img)
	require.NoError(t, err)
	_, err = m.Publish(ctx, []Object{
		{Key: l.Original, Data: []byte("o")},
		{Key: l.Resized, AliasOf: l.Original},
		{Key: l.Thumbnail, AliasOf: l.Original},
	})
	require.NoError(t, err)

	require.NoError(t, m.RemoveRenditions(ctx, img))
	_, err = os.Stat(filepath.Join(backend.Root(), "holiday"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveRenditions_KeepsNonEmptyDirectory(t *testing.T) {
	m, backend := newLocal(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "pets/other.png", []byte("x"), ""))

	img := &models.Image{ID: "id", Filename: "a.png", CategoryName: "pets", Path: "pets"}
	l, err := LayoutFor(img)
	require.NoError(t, err)
	_, err = m.Publish(ctx, []Object{{Key: l.Original, Data: []byte("o")}})
	require.NoError(t, err)

	// missing renditions are not an error
	require.NoError(t, m.RemoveRenditions(ctx, img))
	_, err = os.Stat(filepath.Join(backend.Root(), "pets", "other.png"))
	assert.NoError(t, err)
}

func TestUsage_Buckets(t *testing.T) {
	m, _ := newLocal(t)
	ctx := context.Background()

	img := &models.Image{ID: "id", Filename: "a.png", CategoryName: "pets", Path: "pets"}
	l, err := LayoutFor(img)
	require.NoError(t, err)
	_, err = m.Publish(ctx, []Object{
		{Key: l.Original, Data: make([]byte, 100)},
		{Key: l.Resized, AliasOf: l.Original},
		{Key: l.Thumbnail, Data: make([]byte, 10)},
	})
	require.NoError(t, err)

	usage, err := m.Usage(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, models.DiskUsage{Images: 100, Thumbs: 10}, usage)

	img.Abuse = &models.Abuse{}
	usage, err = m.Usage(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, models.DiskUsage{Abuse: 110}, usage)
}

func TestHealthMonitor_CheckOnce(t *testing.T) {
	m, _ := newLocal(t)
	h := NewHealthMonitor(m, 0)
	res := h.CheckOnce(context.Background())
	assert.True(t, res.Healthy)
	assert.Equal(t, "local", h.Last().Backend)
}
