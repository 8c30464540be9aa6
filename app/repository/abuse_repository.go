package repository

import (
	"gorm.io/gorm"

	"github.com/ufsoft/screener/app/models"
)

type abuseRepository struct {
	db *gorm.DB
}

// NewAbuseRepository creates a new abuse repository instance
func NewAbuseRepository(db *gorm.DB) AbuseRepository {
	return &abuseRepository{db: db}
}

// Create stores a report. A second report for the same image fails with ErrDuplicate.
func (r *abuseRepository) Create(abuse *models.Abuse) error {
	return translate(r.db.Omit("Image").Create(abuse).Error)
}

func (r *abuseRepository) GetByHash(hash string) (*models.Abuse, error) {
	var abuse models.Abuse
	if err := r.db.Preload("Image").Preload("Image.Category").Where("hash = ?", hash).First(&abuse).Error; err != nil {
		return nil, translate(err)
	}
	return &abuse, nil
}

func (r *abuseRepository) GetByImageID(imageID string) (*models.Abuse, error) {
	var abuse models.Abuse
	if err := r.db.Where("image_id = ?", imageID).First(&abuse).Error; err != nil {
		return nil, translate(err)
	}
	return &abuse, nil
}

func (r *abuseRepository) Confirm(hash string) error {
	res := r.db.Model(&models.Abuse{}).Where("hash = ?", hash).Update("confirmed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *abuseRepository) List() ([]models.Abuse, error) {
	var reports []models.Abuse
	err := r.db.Preload("Image").Order("created_at DESC").Find(&reports).Error
	return reports, err
}
