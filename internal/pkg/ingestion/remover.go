package ingestion

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/statistics"
	"github.com/ufsoft/screener/internal/pkg/storage"
)

// Remover deletes images in two phases: the database rows first, then the
// stored renditions. A failure in the second phase leaves orphaned files but
// never rows pointing at missing files.
type Remover struct {
	repos   *repository.Repositories
	storage *storage.Manager
	usage   *statistics.DiskUsage
}

func NewRemover(repos *repository.Repositories, manager *storage.Manager) *Remover {
	return &Remover{
		repos:   repos,
		storage: manager,
		usage:   statistics.NewDiskUsage(repos.Image, repos.User, manager),
	}
}

// RemoveImage deletes a single image.
func (r *Remover) RemoveImage(ctx context.Context, id string) (*models.Image, error) {
	image, err := r.repos.Image.Delete(id)
	if err != nil {
		return nil, err
	}
	err = r.removeFiles(ctx, []models.Image{*image})
	r.refreshOwners(ctx, []models.Image{*image})
	return image, err
}

// RemoveCategory deletes a category with all its images.
func (r *Remover) RemoveCategory(ctx context.Context, name string) error {
	images, err := r.repos.Category.Delete(name)
	if err != nil {
		return err
	}
	err = r.removeFiles(ctx, images)
	r.refreshOwners(ctx, images)
	return err
}

// RemoveUser deletes a user with all images they own.
func (r *Remover) RemoveUser(ctx context.Context, uuid string) error {
	images, err := r.repos.User.Delete(uuid)
	if err != nil {
		return err
	}
	return r.removeFiles(ctx, images)
}

func (r *Remover) removeFiles(ctx context.Context, images []models.Image) error {
	var errs []error
	for i := range images {
		if err := r.storage.RemoveRenditions(ctx, &images[i]); err != nil {
			log.Warnf("[Storage] Orphaned renditions of %s/%s: %v", images[i].CategoryName, images[i].Filename, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Remover) refreshOwners(ctx context.Context, images []models.Image) {
	seen := map[string]bool{}
	for _, img := range images {
		if img.OwnerUUID == "" || seen[img.OwnerUUID] {
			continue
		}
		seen[img.OwnerUUID] = true
		if _, err := r.usage.RefreshUser(ctx, img.OwnerUUID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Warnf("[Storage] Disk usage refresh for %s failed: %v", img.OwnerUUID, err)
		}
	}
}
