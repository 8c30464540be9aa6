package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ufsoft/screener/app/models"
)

type changeRepository struct {
	db *gorm.DB
}

// NewChangeRepository creates a new change repository instance
func NewChangeRepository(db *gorm.DB) ChangeRepository {
	return &changeRepository{db: db}
}

func (r *changeRepository) Create(change *models.Change) error {
	return translate(r.db.Omit(clause.Associations).Create(change).Error)
}

func (r *changeRepository) GetByHash(hash string) (*models.Change, error) {
	var change models.Change
	if err := r.db.Preload("Owner").Where("hash = ?", hash).First(&change).Error; err != nil {
		return nil, translate(err)
	}
	return &change, nil
}

func (r *changeRepository) Apply(change *models.Change) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Where("uuid = ?", change.OwnerUUID).First(&owner).Error; err != nil {
			return err
		}
		if err := change.Apply(&owner); err != nil {
			return err
		}
		if err := tx.Save(&owner).Error; err != nil {
			return err
		}
		change.Owner = &owner
		return tx.Delete(&models.Change{}, "hash = ?", change.Hash).Error
	})
	return translate(err)
}

func (r *changeRepository) Delete(hash string) error {
	return r.db.Delete(&models.Change{}, "hash = ?", hash).Error
}
