package repository

import (
	"errors"
	"sync"

	"gorm.io/gorm"
)

var ErrFactoryNotInitialized = errors.New("repository factory not initialized")

// Factory builds the repository set for one database handle, once.
type Factory struct {
	db    *gorm.DB
	once  sync.Once
	repos *Repositories
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// Repositories returns the set bound to the factory's database.
func (f *Factory) Repositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

var (
	globalMu      sync.RWMutex
	globalFactory *Factory
)

// InitializeFactory installs the process wide factory. Later calls are
// ignored so handlers built early keep their repositories.
func InitializeFactory(db *gorm.DB) *Repositories {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalFactory == nil {
		globalFactory = NewFactory(db)
	}
	return globalFactory.Repositories()
}

// GetGlobalRepositories returns the process wide repositories.
func GetGlobalRepositories() (*Repositories, error) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil {
		return nil, ErrFactoryNotInitialized
	}
	return globalFactory.Repositories(), nil
}
