package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/config"
)

// Object is one rendition to publish: either bytes or an alias of another key.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
	AliasOf     string
}

// FileOperation represents a storage operation result
type FileOperation struct {
	Key      string        `json:"key"`
	Bytes    int64         `json:"bytes"`
	Alias    bool          `json:"alias"`
	Duration time.Duration `json:"duration"`
}

// Manager publishes, streams and removes renditions on a Backend.
type Manager struct {
	backend Backend
}

// NewManager creates a new storage manager instance
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// NewManagerFromConfig builds the configured backend.
func NewManagerFromConfig(ctx context.Context, cfg *config.Config) (*Manager, error) {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		client, err := NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		backend := NewS3Backend(client, cfg.Storage.S3.BucketName, cfg.Storage.S3.Prefix)
		if err := backend.Ping(ctx); err != nil {
			return nil, err
		}
		log.Infof("[Storage] Using bucket %s", cfg.Storage.S3.BucketName)
		return NewManager(backend), nil
	default:
		backend, err := NewLocalBackend(cfg.Upload.Path)
		if err != nil {
			return nil, err
		}
		log.Infof("[Storage] Using local directory %s", backend.Root())
		return NewManager(backend), nil
	}
}

// Backend returns the underlying backend.
func (m *Manager) Backend() Backend {
	return m.backend
}

// Publish writes objects in order. On failure it returns the keys written so
// far so the caller can compensate.
func (m *Manager) Publish(ctx context.Context, objects []Object) ([]FileOperation, error) {
	ops := make([]FileOperation, 0, len(objects))
	for _, obj := range objects {
		start := time.Now()
		var err error
		if obj.AliasOf != "" {
			err = m.backend.Alias(ctx, obj.Key, obj.AliasOf)
		} else {
			err = m.backend.Put(ctx, obj.Key, obj.Data, obj.ContentType)
		}
		if err != nil {
			log.Errorf("[Storage] Failed to publish %s: %v", obj.Key, err)
			return ops, err
		}
		ops = append(ops, FileOperation{
			Key:      obj.Key,
			Bytes:    int64(len(obj.Data)),
			Alias:    obj.AliasOf != "",
			Duration: time.Since(start),
		})
	}
	return ops, nil
}

// Remove deletes keys best-effort, then prunes dir when it is empty. The
// first error is returned after every key was attempted.
func (m *Manager) Remove(ctx context.Context, dir string, keys ...string) error {
	var first error
	// reverse order so aliases go before their targets
	for i := len(keys) - 1; i >= 0; i-- {
		if err := m.backend.Remove(ctx, keys[i]); err != nil {
			log.Warnf("[Storage] Failed to remove %s: %v", keys[i], err)
			if first == nil {
				first = err
			}
		}
	}
	if dir != "" {
		if err := m.backend.RemoveDirIfEmpty(ctx, dir); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RemoveRenditions deletes the three renditions of an image and its category
// directory when that becomes empty.
func (m *Manager) RemoveRenditions(ctx context.Context, image *models.Image) error {
	layout, err := LayoutFor(image)
	if err != nil {
		return err
	}
	return m.Remove(ctx, layout.Dir, layout.Keys()...)
}

// Open returns a reader over a rendition and its size.
func (m *Manager) Open(ctx context.Context, image *models.Image, kind models.RenditionKind) (io.ReadCloser, int64, error) {
	layout, err := LayoutFor(image)
	if err != nil {
		return nil, 0, err
	}
	return m.backend.Open(ctx, layout.Key(kind))
}

// Usage returns the bytes an image occupies, bucketed by rendition. Images
// with an abuse report count into the abuse bucket; resized aliases are not
// counted.
func (m *Manager) Usage(ctx context.Context, image *models.Image) (models.DiskUsage, error) {
	layout, err := LayoutFor(image)
	if err != nil {
		return models.DiskUsage{}, err
	}
	var usage models.DiskUsage
	for _, kind := range models.RenditionKinds() {
		info, err := m.backend.Stat(ctx, layout.Key(kind))
		if err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				continue
			}
			return models.DiskUsage{}, fmt.Errorf("stat %s: %w", layout.Key(kind), err)
		}
		if kind == models.RenditionResized && info.Alias {
			continue
		}
		switch {
		case image.Abuse != nil:
			usage.Abuse += info.Size
		case kind == models.RenditionOriginal:
			usage.Images += info.Size
		case kind == models.RenditionResized:
			usage.Resized += info.Size
		default:
			usage.Thumbs += info.Size
		}
	}
	return usage, nil
}

// Ping checks that the backend is reachable and writable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.backend.Ping(ctx)
}
