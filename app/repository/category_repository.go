package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ufsoft/screener/app/models"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository instance
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *models.Category) error {
	return translate(r.db.Create(category).Error)
}

func (r *categoryRepository) GetByName(name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) GetBySecret(secret string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("secret = ?", secret).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) GetByRef(ref string) (*models.Category, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	category, err := r.GetByName(ref)
	if errors.Is(err, ErrNotFound) {
		return r.GetBySecret(ref)
	}
	return category, err
}

func (r *categoryRepository) Exists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) SetPrivate(name string, private bool) error {
	res := r.db.Model(&models.Category{}).Where("name = ?", name).Update("private", private)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) Delete(name string) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("name = ?", name).First(&category).Error; err != nil {
			return err
		}
		if err := tx.Where("category_name = ?", name).Find(&images).Error; err != nil {
			return err
		}
		if err := tx.Where("image_id IN (?)",
			tx.Model(&models.Image{}).Select("id").Where("category_name = ?", name),
		).Delete(&models.Abuse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_name = ?", name).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return images, nil
}

func (r *categoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// ListVisible returns the public categories plus the private ones owned by
// the requester.
func (r *categoryRepository) ListVisible(requesterUUID string) ([]models.Category, error) {
	var categories []models.Category
	q := r.db.Order("name ASC")
	if requesterUUID == "" {
		q = q.Where("private = ?", false)
	} else {
		q = q.Where("private = ? OR owner_uuid = ?", false, requesterUUID)
	}
	err := q.Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListByOwner(ownerUUID string) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("owner_uuid = ?", ownerUUID).Order("name ASC").Find(&categories).Error
	return categories, err
}
