package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ufsoft/screener/app/models"
)

// imageRepository implements the ImageRepository interface
type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository instance
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Commit creates the category when it does not exist yet and then the image.
// A category created concurrently by another upload wins; category is
// reloaded from the stored row in that case.
func (r *imageRepository) Commit(category *models.Category, image *models.Image) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(category).Error; err != nil {
			return err
		}
		var stored models.Category
		if err := tx.Where("name = ?", category.Name).First(&stored).Error; err != nil {
			return err
		}
		*category = stored

		image.CategoryName = category.Name
		return tx.Omit(clause.Associations).Create(image).Error
	})
	return translate(err)
}

// GetByID retrieves an image by its id
func (r *imageRepository) GetByID(id string) (*models.Image, error) {
	var image models.Image
	err := r.db.Preload("Abuse").Preload("Category").Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, translate(err)
	}
	return &image, nil
}

// GetByFilename retrieves an image by its stored filename inside a category
func (r *imageRepository) GetByFilename(categoryName, filename string) (*models.Image, error) {
	var image models.Image
	err := r.db.Preload("Abuse").Preload("Category").
		Where("category_name = ? AND filename = ?", categoryName, filename).First(&image).Error
	if err != nil {
		return nil, translate(err)
	}
	return &image, nil
}

func (r *imageRepository) GetByRef(categoryName, ref string) (*models.Image, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	image, err := r.GetByID(ref)
	if err == nil {
		if image.CategoryName != categoryName {
			return nil, ErrNotFound
		}
		return image, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	for _, filename := range models.CandidateFilenames(ref) {
		image, err = r.GetByFilename(categoryName, filename)
		if err == nil {
			return image, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (r *imageRepository) ExistsInCategory(categoryName, filename string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Image{}).
		Where("category_name = ? AND filename = ?", categoryName, filename).Count(&count).Error
	return count > 0, err
}

func (r *imageRepository) ListByCategory(categoryName string) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Preload("Abuse").Where("category_name = ?", categoryName).
		Order("stamp DESC").Find(&images).Error
	return images, err
}

func (r *imageRepository) ListByOwner(ownerUUID string) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Preload("Abuse").Where("owner_uuid = ?", ownerUUID).
		Order("stamp DESC").Find(&images).Error
	return images, err
}

// Update updates an existing image in the database
func (r *imageRepository) Update(image *models.Image) error {
	return translate(r.db.Omit(clause.Associations).Save(image).Error)
}

func (r *imageRepository) AddViews(id string, n int64) error {
	return r.db.Model(&models.Image{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", n)).Error
}

// Delete hard deletes an image and its abuse report in a transaction
func (r *imageRepository) Delete(id string) (*models.Image, error) {
	var image models.Image
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Category").Where("id = ?", id).First(&image).Error; err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", id).Delete(&models.Abuse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Image{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &image, nil
}
