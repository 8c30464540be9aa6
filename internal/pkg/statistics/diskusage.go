package statistics

import (
	"context"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/storage"
)

// DiskUsage computes the storage bytes held by categories and users by
// scanning their renditions.
type DiskUsage struct {
	images  repository.ImageRepository
	users   repository.UserRepository
	storage *storage.Manager
}

func NewDiskUsage(images repository.ImageRepository, users repository.UserRepository, storage *storage.Manager) *DiskUsage {
	return &DiskUsage{images: images, users: users, storage: storage}
}

// ForCategory sums the usage of every image in the category.
func (d *DiskUsage) ForCategory(ctx context.Context, categoryName string) (models.DiskUsage, error) {
	images, err := d.images.ListByCategory(categoryName)
	if err != nil {
		return models.DiskUsage{}, err
	}
	return d.sum(ctx, images)
}

// ForUser sums the usage of every image the user owns.
func (d *DiskUsage) ForUser(ctx context.Context, userUUID string) (models.DiskUsage, error) {
	images, err := d.images.ListByOwner(userUUID)
	if err != nil {
		return models.DiskUsage{}, err
	}
	return d.sum(ctx, images)
}

// RefreshUser recomputes and stores the user's usage.
func (d *DiskUsage) RefreshUser(ctx context.Context, userUUID string) (models.DiskUsage, error) {
	usage, err := d.ForUser(ctx, userUUID)
	if err != nil {
		return models.DiskUsage{}, err
	}
	return usage, d.users.UpdateDiskUsage(userUUID, usage)
}

func (d *DiskUsage) sum(ctx context.Context, images []models.Image) (models.DiskUsage, error) {
	var total models.DiskUsage
	for i := range images {
		u, err := d.storage.Usage(ctx, &images[i])
		if err != nil {
			return models.DiskUsage{}, err
		}
		total = total.Add(u)
	}
	return total, nil
}
