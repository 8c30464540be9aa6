package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Names of account attributes that can be changed through a pending change.
const (
	ChangeConfirmed = "confirmed"
	ChangeEmail     = "email"
	ChangePassword  = "password"
)

// ChangeLifetime is how long a pending change can be confirmed.
const ChangeLifetime = 48 * time.Hour

// Change is a pending account modification. It is applied once the owner
// follows the mailed confirmation link carrying its hash.
type Change struct {
	Hash      string    `gorm:"primaryKey;type:char(32)" json:"-"`
	OwnerUUID string    `gorm:"type:char(36);index;not null" json:"-"`
	Owner     *User     `gorm:"foreignKey:OwnerUUID;references:UUID" json:"-"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Value     string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewChange returns an unsaved pending change for owner.
func NewChange(owner *User, name, value string) (*Change, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return &Change{
		Hash:      hex.EncodeToString(b),
		OwnerUUID: owner.UUID,
		Owner:     owner,
		Name:      name,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Expired reports whether the change can no longer be confirmed.
func (c *Change) Expired(now time.Time) bool {
	return now.Sub(c.CreatedAt) > ChangeLifetime
}

// Apply writes the change onto user. The password value is already hashed.
func (c *Change) Apply(user *User) error {
	switch c.Name {
	case ChangeConfirmed:
		user.Confirmed = true
	case ChangeEmail:
		email := c.Value
		user.Email = &email
	case ChangePassword:
		user.Password = c.Value
	default:
		return fmt.Errorf("unknown change %q", c.Name)
	}
	return nil
}
