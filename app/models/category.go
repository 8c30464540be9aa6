package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

type Category struct {
	Name        string    `gorm:"primaryKey;type:varchar(255)" json:"name"`
	Secret      string    `gorm:"type:char(40);uniqueIndex;not null" json:"-"`
	Private     bool      `gorm:"default:false" json:"private"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerUUID   string    `gorm:"type:char(36);index" json:"-"`
	Owner       *User     `gorm:"foreignKey:OwnerUUID;references:UUID" json:"-"`
	Images      []Image   `gorm:"foreignKey:CategoryName;references:Name" json:"images,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewCategory builds an unsaved category. The secret is derived once from the
// name and the creation time and never changes afterwards.
func NewCategory(name, description string, private bool, ownerUUID string) *Category {
	now := time.Now().UTC()
	return &Category{
		Name:        name,
		Secret:      categorySecret(name, now),
		Private:     private,
		Description: description,
		OwnerUUID:   ownerUUID,
		CreatedAt:   now,
	}
}

func categorySecret(name string, at time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s%d", name, at.UnixNano())))
	return hex.EncodeToString(sum[:])
}

// Ref returns the public reference of the category: the secret for private
// categories, the name otherwise.
func (c *Category) Ref() string {
	if c.Private {
		return c.Secret
	}
	return c.Name
}

// MatchesSecret reports whether ref is this category's secret.
func (c *Category) MatchesSecret(ref string) bool {
	return ref != "" && ref == c.Secret
}

// IsOwnedBy reports whether the given user uuid owns the category.
func (c *Category) IsOwnedBy(userUUID string) bool {
	return userUUID != "" && c.OwnerUUID == userUUID
}

// ValidCategoryName reports whether name can be used as a category name.
// Names are used as directory names, so whitespace and path separators are refused.
func ValidCategoryName(name string) bool {
	if name == "" || len(strings.Fields(name)) != 1 || strings.TrimSpace(name) != name {
		return false
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return true
}
