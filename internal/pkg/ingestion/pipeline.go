package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/imageprocessor"
	"github.com/ufsoft/screener/internal/pkg/statistics"
	"github.com/ufsoft/screener/internal/pkg/storage"
	"github.com/ufsoft/screener/internal/pkg/upload"
)

// DefaultCategory receives uploads that do not name a category.
const DefaultCategory = "uncategorized"

// Form holds the parsed upload form fields.
type Form struct {
	CategoryName        string
	CategoryDescription string
	CategoryPrivate     bool
	Description         string
	Private             bool
	AdultContent        bool
	WatermarkText       string
	// Values are the raw submitted values, echoed back on errors.
	Values map[string]string
}

// CapabilityGranter records that the uploading session may view a private
// image.
type CapabilityGranter interface {
	Grant(imageID string) error
}

// Request is one upload.
type Request struct {
	OwnerUUID   string
	SubmitterIP string
	// CategoryRef is the category name or secret the upload page was opened for.
	CategoryRef  string
	Filename     string
	File         io.Reader
	DeclaredSize int64
	Form         Form
	Session      CapabilityGranter
}

// Config tunes the pipeline.
type Config struct {
	MaxSize int64
	TempDir string
	// Watermarker is nil when no font is configured.
	Watermarker *imageprocessor.Watermarker
	// DefaultWatermarkText is used when the form leaves the text empty and
	// the watermark is not optional.
	DefaultWatermarkText string
	WatermarkOptional    bool
}

// Pipeline validates uploads, generates renditions, publishes them and
// commits the metadata.
type Pipeline struct {
	categories repository.CategoryRepository
	images     repository.ImageRepository
	storage    *storage.Manager
	usage      *statistics.DiskUsage
	cfg        Config
}

func NewPipeline(repos *repository.Repositories, manager *storage.Manager, cfg Config) *Pipeline {
	return &Pipeline{
		categories: repos.Category,
		images:     repos.Image,
		storage:    manager,
		usage:      statistics.NewDiskUsage(repos.Image, repos.User, manager),
		cfg:        cfg,
	}
}

// Ingest runs an upload through the pipeline. Recoverable failures are
// returned as *FormError; ErrCommitFailed is not recoverable.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*models.Image, error) {
	form := req.Form.Values
	if form == nil {
		form = map[string]string{}
	}

	category, err := p.resolveCategory(req)
	if err != nil {
		return nil, err
	}

	if req.File == nil || req.Filename == "" {
		return nil, formError(ErrNoFileUploaded, FieldFile, form)
	}

	if category == nil {
		name := req.Form.CategoryName
		if name == "" {
			name = DefaultCategory
		}
		if !models.ValidCategoryName(name) {
			return nil, formError(ErrInvalidCategoryName, FieldCategoryName, form)
		}
		existing, err := p.categories.GetByName(name)
		switch {
		case err == nil:
			category = existing
		case errors.Is(err, repository.ErrNotFound):
			category = models.NewCategory(name, req.Form.CategoryDescription, req.Form.CategoryPrivate, req.OwnerUUID)
		default:
			return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
		}
	}

	filename := path.Base(req.Filename)
	base, ext := models.SplitFilename(filename)
	if _, err := storage.Resolve(category.Name, base, ext, false, ""); err != nil || !upload.AllowedExtension(filename) || models.HasRenditionInfix(base) {
		return nil, formError(ErrInvalidFilename, FieldFile, form)
	}

	exists, err := p.images.ExistsInCategory(category.Name, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if exists {
		return nil, formError(ErrDuplicateImage, FieldFile, form)
	}

	if p.cfg.MaxSize > 0 && req.DeclaredSize > p.cfg.MaxSize {
		return nil, formError(ErrFileTooBig, FieldFile, form)
	}
	raw, err := upload.Stage(req.File, p.cfg.TempDir, p.cfg.MaxSize)
	if err != nil {
		if errors.Is(err, upload.ErrFileTooBig) {
			return nil, formError(ErrFileTooBig, FieldFile, form)
		}
		log.Errorf("[Upload] Staging %s failed: %v", filename, err)
		return nil, formError(ErrSaveFailed, FieldFile, form)
	}

	sniffed, err := upload.ValidateImageBySniff(filename, raw)
	if err != nil {
		return nil, formError(fmt.Errorf("%w: %v", ErrInvalidImage, err), FieldFile, form)
	}

	opts := imageprocessor.DefaultOptions()
	if f, ferr := imageprocessor.FormatFromExtension(ext); ferr == nil {
		opts.Format = f
	}
	opts.Watermarker = p.cfg.Watermarker
	opts.WatermarkText = p.watermarkText(req.Form.WatermarkText)

	renditions, err := imageprocessor.Generate(raw, opts)
	if err != nil {
		if errors.Is(err, imageprocessor.ErrInvalidImage) {
			return nil, formError(err, FieldFile, form)
		}
		return nil, formError(fmt.Errorf("%w: %v", ErrSaveFailed, err), FieldFile, form)
	}

	mime := renditions.Format.MimeType()
	if mime == "application/octet-stream" {
		mime = sniffed
	}
	image := models.NewImage(category, filename, mime)
	image.Description = req.Form.Description
	image.Private = req.Form.Private
	image.AdultContent = req.Form.AdultContent
	image.SubmitterIP = req.SubmitterIP
	image.OwnerUUID = req.OwnerUUID
	image.Width = renditions.Width
	image.Height = renditions.Height
	image.ResizedAlias = renditions.Resized.Alias
	image.ThumbnailAlias = renditions.Thumbnail.Alias
	md := imageprocessor.ExtractMetadata(raw)
	image.CameraModel = md.CameraModel
	image.TakenAt = md.TakenAt

	layout, err := storage.LayoutFor(image)
	if err != nil {
		return nil, formError(ErrInvalidFilename, FieldFile, form)
	}
	// written only lists keys this upload created; rollback never touches
	// another image's files
	written, err := p.storage.Publish(ctx, objectsFor(layout, renditions, mime))
	if err != nil {
		p.rollback(ctx, layout.Dir, written)
		if len(written) == 0 && errors.Is(err, fs.ErrExist) {
			// a concurrent upload of the same name published first
			return nil, formError(ErrDuplicateImage, FieldFile, form)
		}
		return nil, formError(fmt.Errorf("%w: %v", ErrSaveFailed, err), FieldFile, form)
	}

	if err := p.images.Commit(category, image); err != nil {
		p.rollback(ctx, layout.Dir, written)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, formError(ErrDuplicateImage, FieldFile, form)
		}
		log.Errorf("[Upload] Commit of %s/%s failed: %v", category.Name, filename, err)
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	log.Infof("[Upload] Stored %s/%s (%dx%d, private=%t)", category.Name, filename, image.Width, image.Height, image.Private)

	if req.OwnerUUID != "" {
		if _, err := p.usage.RefreshUser(ctx, req.OwnerUUID); err != nil {
			log.Warnf("[Upload] Disk usage refresh for %s failed: %v", req.OwnerUUID, err)
		}
	}
	if image.Private && req.Session != nil {
		if err := req.Session.Grant(image.ID); err != nil {
			log.Warnf("[Upload] Could not grant capability for %s: %v", image.ID, err)
		}
	}
	return image, nil
}

// resolveCategory looks up the category the upload page was opened for. The
// form's category name wins when given.
func (p *Pipeline) resolveCategory(req Request) (*models.Category, error) {
	if req.Form.CategoryName != "" || req.CategoryRef == "" {
		return nil, nil
	}
	category, err := p.categories.GetByRef(req.CategoryRef)
	switch {
	case err == nil:
		return category, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
}

func (p *Pipeline) watermarkText(submitted string) string {
	if submitted != "" || p.cfg.WatermarkOptional {
		return submitted
	}
	return p.cfg.DefaultWatermarkText
}

// rollback removes renditions written by a failed upload.
func (p *Pipeline) rollback(ctx context.Context, dir string, written []storage.FileOperation) {
	keys := make([]string, 0, len(written))
	for _, op := range written {
		keys = append(keys, op.Key)
	}
	if err := p.storage.Remove(ctx, dir, keys...); err != nil {
		log.Warnf("[Upload] Rollback of %v incomplete: %v", keys, err)
	}
}

func objectsFor(layout storage.Layout, r *imageprocessor.Renditions, contentType string) []storage.Object {
	objects := []storage.Object{{Key: layout.Original, Data: r.Original.Data, ContentType: contentType}}
	for _, pair := range []struct {
		key string
		r   imageprocessor.Rendition
	}{{layout.Resized, r.Resized}, {layout.Thumbnail, r.Thumbnail}} {
		if pair.r.Alias {
			objects = append(objects, storage.Object{Key: pair.key, AliasOf: layout.Original})
		} else {
			objects = append(objects, storage.Object{Key: pair.key, Data: pair.r.Data, ContentType: contentType})
		}
	}
	return objects
}
