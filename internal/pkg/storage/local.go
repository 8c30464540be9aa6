package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"
)

// LocalBackend stores renditions below a root directory on the local disk.
type LocalBackend struct {
	root string
}

// NewLocalBackend creates root if needed.
func NewLocalBackend(root string) (*LocalBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads path %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", abs, err)
	}
	return &LocalBackend{root: abs}, nil
}

func (b *LocalBackend) Name() string { return "local" }

// Root returns the absolute root directory.
func (b *LocalBackend) Root() string { return b.root }

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// Put writes data to a temporary file next to the destination and links it
// into place. Existing keys are never overwritten.
func (b *LocalBackend) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := b.path(key)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", key, fs.ErrExist)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return err
	}
	// link instead of rename: an existing destination fails with EEXIST
	// rather than being replaced
	defer cleanup()
	if err := os.Link(tmpName, dst); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Alias creates a relative symlink from key to target.
func (b *LocalBackend) Alias(ctx context.Context, key, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := b.path(key)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	rel, err := filepath.Rel(dir, b.path(target))
	if err != nil {
		return err
	}
	if err := os.Symlink(rel, dst); err != nil {
		return fmt.Errorf("alias %s -> %s: %w", key, target, err)
	}
	return nil
}

func (b *LocalBackend) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (b *LocalBackend) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	p := b.path(key)
	linfo, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}
	info := ObjectInfo{Key: key, Size: linfo.Size(), Alias: linfo.Mode()&os.ModeSymlink != 0}
	if info.Alias {
		target, err := os.Stat(p)
		if err != nil {
			return ObjectInfo{}, err
		}
		info.Size = target.Size()
	}
	return info, nil
}

func (b *LocalBackend) Remove(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveDirIfEmpty removes the rendition sub-directories and dir, each only
// when empty.
func (b *LocalBackend) RemoveDirIfEmpty(_ context.Context, dir string) error {
	for _, d := range []string{path.Join(dir, ResizedDir), path.Join(dir, ThumbnailDir), dir} {
		p := b.path(d)
		entries, err := os.ReadDir(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("[Storage] Could not remove empty directory %s: %v", p, err)
		}
	}
	return nil
}

func (b *LocalBackend) Ping(_ context.Context) error {
	f, err := os.CreateTemp(b.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("uploads directory %s is not writable: %w", b.root, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
