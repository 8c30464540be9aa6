package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ufsoft/screener/app/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps gorm errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByUUID(uuid string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	TouchLastVisit(uuid string) error
	UpdateDiskUsage(uuid string, usage models.DiskUsage) error
	// Delete removes the user with its images and pending changes and returns
	// the removed images so their files can be cleaned up.
	Delete(uuid string) ([]models.Image, error)
	List() ([]models.User, error)
}

// CategoryRepository defines the interface for category-related database operations
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByName(name string) (*models.Category, error)
	GetBySecret(secret string) (*models.Category, error)
	// GetByRef resolves a category by name or by secret.
	GetByRef(ref string) (*models.Category, error)
	Exists(name string) (bool, error)
	SetPrivate(name string, private bool) error
	// Delete removes the category with its images and abuse reports and
	// returns the removed images so their files can be cleaned up.
	Delete(name string) ([]models.Image, error)
	List() ([]models.Category, error)
	ListVisible(requesterUUID string) ([]models.Category, error)
	ListByOwner(ownerUUID string) ([]models.Category, error)
}

// ImageRepository defines the interface for image-related database operations
type ImageRepository interface {
	// Commit stores image and, if it is not yet persisted, its category in a
	// single transaction.
	Commit(category *models.Category, image *models.Image) error
	GetByID(id string) (*models.Image, error)
	GetByFilename(categoryName, filename string) (*models.Image, error)
	// GetByRef resolves an image inside a category by id or by any of its
	// rendition names.
	GetByRef(categoryName, ref string) (*models.Image, error)
	ExistsInCategory(categoryName, filename string) (bool, error)
	ListByCategory(categoryName string) ([]models.Image, error)
	ListByOwner(ownerUUID string) ([]models.Image, error)
	Update(image *models.Image) error
	AddViews(id string, n int64) error
	// Delete removes the image row and its abuse report.
	Delete(id string) (*models.Image, error)
}

// AbuseRepository defines the interface for abuse report operations
type AbuseRepository interface {
	Create(abuse *models.Abuse) error
	GetByHash(hash string) (*models.Abuse, error)
	GetByImageID(imageID string) (*models.Abuse, error)
	Confirm(hash string) error
	List() ([]models.Abuse, error)
}

// ChangeRepository defines the interface for pending account changes
type ChangeRepository interface {
	Create(change *models.Change) error
	GetByHash(hash string) (*models.Change, error)
	// Apply applies the change to its owner and removes it atomically.
	Apply(change *models.Change) error
	Delete(hash string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Category CategoryRepository
	Image    ImageRepository
	Abuse    AbuseRepository
	Change   ChangeRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Category: NewCategoryRepository(db),
		Image:    NewImageRepository(db),
		Abuse:    NewAbuseRepository(db),
		Change:   NewChangeRepository(db),
	}
}
