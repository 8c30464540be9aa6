package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/ufsoft/screener/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return translate(r.db.Create(user).Error)
}

func (r *userRepository) GetByUUID(uuid string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("api_key_hash = ?", hash).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return translate(r.db.Save(user).Error)
}

func (r *userRepository) TouchLastVisit(uuid string) error {
	return r.db.Model(&models.User{}).Where("uuid = ?", uuid).
		Update("last_visit", time.Now().UTC()).Error
}

func (r *userRepository) UpdateDiskUsage(uuid string, usage models.DiskUsage) error {
	return r.db.Model(&models.User{}).Where("uuid = ?", uuid).Updates(map[string]interface{}{
		"disk_images":  usage.Images,
		"disk_resized": usage.Resized,
		"disk_thumbs":  usage.Thumbs,
		"disk_abuse":   usage.Abuse,
	}).Error
}

func (r *userRepository) Delete(uuid string) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("uuid = ?", uuid).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_uuid = ?", uuid).Find(&images).Error; err != nil {
			return err
		}
		if len(images) > 0 {
			ids := make([]string, 0, len(images))
			for _, img := range images {
				ids = append(ids, img.ID)
			}
			if err := tx.Where("image_id IN ?", ids).Delete(&models.Abuse{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.Image{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("owner_uuid = ?", uuid).Delete(&models.Change{}).Error; err != nil {
			return err
		}
		// categories outlive their owner
		if err := tx.Model(&models.Category{}).Where("owner_uuid = ?", uuid).Update("owner_uuid", "").Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return images, nil
}

func (r *userRepository) List() ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at ASC").Find(&users).Error
	return users, err
}
