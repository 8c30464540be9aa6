package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is either an anonymous visitor (no username) or a registered account.
// Anonymous users are created on first visit so uploads always have an owner.
type User struct {
	UUID             string     `gorm:"primaryKey;type:char(36)" json:"uuid"`
	Username         *string    `gorm:"uniqueIndex;type:varchar(150)" json:"username,omitempty" validate:"omitempty,min=3,max=150"`
	Email            *string    `gorm:"uniqueIndex;type:varchar(200)" json:"email,omitempty" validate:"omitempty,email,max=200"`
	Password         string     `gorm:"type:text" json:"-"`
	Confirmed        bool       `gorm:"default:false" json:"confirmed"`
	IsAdmin          bool       `gorm:"default:false" json:"is_admin"`
	ShowAdultContent bool       `gorm:"default:false" json:"show_adult_content"`
	LastVisit        *time.Time `json:"last_visit,omitempty"`
	DiskImages       int64      `gorm:"default:0" json:"disk_images"`
	DiskResized      int64      `gorm:"default:0" json:"disk_resized"`
	DiskThumbs       int64      `gorm:"default:0" json:"disk_thumbs"`
	DiskAbuse        int64      `gorm:"default:0" json:"disk_abuse"`
	APIKeyHash       *string    `gorm:"uniqueIndex;type:char(64)" json:"-"`
	APIKeyPrefix     string     `gorm:"type:varchar(20)" json:"api_key_prefix,omitempty"`
	APIKeyCreatedAt  *time.Time `json:"api_key_created_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewAnonymousUser returns an unsaved visitor identity.
func NewAnonymousUser() *User {
	now := time.Now().UTC()
	return &User{
		UUID:      uuid.NewString(),
		LastVisit: &now,
	}
}

// CreateUser builds an unconfirmed account with a hashed password.
func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		UUID:     uuid.NewString(),
		Username: &username,
		Email:    &email,
		Password: pw,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies the provided password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsAnonymous reports whether the user never registered.
func (u *User) IsAnonymous() bool {
	return u.Username == nil || *u.Username == ""
}

// DisplayName returns the username, or "anonymous".
func (u *User) DisplayName() string {
	if u.IsAnonymous() {
		return "anonymous"
	}
	return *u.Username
}

// EmailAddress returns the email, or an empty string.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// DiskUsage returns the accounted byte buckets.
func (u *User) DiskUsage() DiskUsage {
	return DiskUsage{Images: u.DiskImages, Resized: u.DiskResized, Thumbs: u.DiskThumbs, Abuse: u.DiskAbuse}
}

// DiskUsage holds the byte buckets accounted per user or category.
type DiskUsage struct {
	Images  int64 `json:"images"`
	Resized int64 `json:"resized"`
	Thumbs  int64 `json:"thumbs"`
	Abuse   int64 `json:"abuse"`
}

// Total sums all buckets.
func (d DiskUsage) Total() int64 {
	return d.Images + d.Resized + d.Thumbs + d.Abuse
}

// Add returns the bucket-wise sum of d and o.
func (d DiskUsage) Add(o DiskUsage) DiskUsage {
	return DiskUsage{
		Images:  d.Images + o.Images,
		Resized: d.Resized + o.Resized,
		Thumbs:  d.Thumbs + o.Thumbs,
		Abuse:   d.Abuse + o.Abuse,
	}
}

// SetDiskUsage copies the buckets onto the user.
func (u *User) SetDiskUsage(d DiskUsage) {
	u.DiskImages = d.Images
	u.DiskResized = d.Resized
	u.DiskThumbs = d.Thumbs
	u.DiskAbuse = d.Abuse
}
