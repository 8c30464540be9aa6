package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
)

// Suffixes inserted before the extension of public rendition names.
const (
	ResizedInfix   = ".resized"
	ThumbnailInfix = ".thumbnail"
)

// CacheLifetime is how long clients may cache a rendition. Renditions never
// change after creation.
const CacheLifetime = 365 * 24 * time.Hour

type Image struct {
	ID             string     `gorm:"primaryKey;type:char(40)" json:"id"`
	Filename       string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_category_filename" json:"filename"`
	CategoryName   string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_category_filename" json:"category"`
	Category       *Category  `gorm:"foreignKey:CategoryName;references:Name" json:"-"`
	Path           string     `gorm:"type:varchar(255);not null" json:"-"`
	Mimetype       string     `gorm:"type:varchar(100)" json:"mimetype"`
	Description    string     `gorm:"type:text" json:"description"`
	SubmitterIP    string     `gorm:"type:varchar(45);default:null" json:"-"`
	Private        bool       `gorm:"default:false" json:"private"`
	AdultContent   bool       `gorm:"default:false" json:"adult_content"`
	Views          int        `gorm:"default:0" json:"views"`
	Width          int        `gorm:"type:int" json:"width"`
	Height         int        `gorm:"type:int" json:"height"`
	ResizedAlias   bool       `gorm:"default:false" json:"-"`
	ThumbnailAlias bool       `gorm:"default:false" json:"-"`
	CameraModel    *string    `gorm:"type:varchar(255)" json:"camera_model,omitempty"`
	TakenAt        *time.Time `json:"taken_at,omitempty"`
	Stamp          time.Time  `gorm:"not null" json:"stamp"`
	OwnerUUID      string     `gorm:"type:char(36);index" json:"-"`
	Owner          *User      `gorm:"foreignKey:OwnerUUID;references:UUID" json:"-"`
	Abuse          *Abuse     `gorm:"foreignKey:ImageID;references:ID" json:"-"`
}

// NewImage builds an unsaved image. The id is derived from the storage
// location and the creation stamp; the stamp is truncated to whole seconds so
// it survives a database round trip unchanged.
func NewImage(category *Category, filename, mimetype string) *Image {
	stamp := time.Now().UTC().Truncate(time.Second)
	img := &Image{
		Filename:     filename,
		CategoryName: category.Name,
		Category:     category,
		Path:         category.Name,
		Mimetype:     mimetype,
		Stamp:        stamp,
	}
	img.ID = imageID(path.Join(img.Path, filename), stamp)
	return img
}

func imageID(location string, stamp time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s%d", location, stamp.UnixNano())))
	return hex.EncodeToString(sum[:])
}

// SplitFilename splits a filename into its base and extension (with the dot).
func SplitFilename(filename string) (string, string) {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext), ext
}

// ImageName is the name the original rendition is addressed by.
func (i *Image) ImageName() string {
	if i.Private {
		return i.ID
	}
	return i.Filename
}

// ResizedName is the name the resized rendition is addressed by.
func (i *Image) ResizedName() string {
	if i.Private {
		return i.ID
	}
	base, ext := SplitFilename(i.Filename)
	return base + ResizedInfix + ext
}

// ThumbName is the name the thumbnail rendition is addressed by.
func (i *Image) ThumbName() string {
	if i.Private {
		return i.ID
	}
	base, ext := SplitFilename(i.Filename)
	return base + ThumbnailInfix + ext
}

// NameFor returns the addressable name of the given rendition.
func (i *Image) NameFor(kind RenditionKind) string {
	switch kind {
	case RenditionResized:
		return i.ResizedName()
	case RenditionThumbnail:
		return i.ThumbName()
	default:
		return i.ImageName()
	}
}

// ETag is a stable validator over the id and creation stamp.
func (i *Image) ETag() string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s%d", i.ID, i.Stamp.Unix())))
	return hex.EncodeToString(sum[:])
}

// Expires returns the expiry of cached renditions.
func (i *Image) Expires() time.Time {
	return i.Stamp.Add(CacheLifetime)
}

// IsOwnedBy reports whether the given user uuid owns the image.
func (i *Image) IsOwnedBy(userUUID string) bool {
	return userUUID != "" && i.OwnerUUID == userUUID
}

// AbuseStatus reports the moderation state of the image.
func (i *Image) AbuseStatus() AbuseStatus {
	switch {
	case i.Abuse == nil:
		return AbuseNone
	case i.Abuse.Confirmed:
		return AbuseConfirmed
	default:
		return AbuseReported
	}
}

// IsAlias reports whether the rendition shares storage with the original.
func (i *Image) IsAlias(kind RenditionKind) bool {
	switch kind {
	case RenditionResized:
		return i.ResizedAlias
	case RenditionThumbnail:
		return i.ThumbnailAlias
	default:
		return false
	}
}

// HasRenditionInfix reports whether a file base name ends like a derived
// rendition name. Such names would share keys with another image's
// renditions.
func HasRenditionInfix(base string) bool {
	lower := strings.ToLower(base)
	return strings.HasSuffix(lower, ResizedInfix) || strings.HasSuffix(lower, ThumbnailInfix)
}

// CandidateFilenames returns the stored filenames a requested name may refer
// to: the name itself and the name with a rendition infix stripped.
func CandidateFilenames(requested string) []string {
	base, ext := SplitFilename(requested)
	candidates := []string{requested}
	for _, infix := range []string{ThumbnailInfix, ResizedInfix} {
		if strings.HasSuffix(base, infix) {
			candidates = append(candidates, strings.TrimSuffix(base, infix)+ext)
		}
	}
	return candidates
}
