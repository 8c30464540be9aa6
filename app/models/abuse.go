package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// AbuseStatus is the moderation state of an image.
type AbuseStatus int

const (
	AbuseNone AbuseStatus = iota
	AbuseReported
	AbuseConfirmed
)

type Abuse struct {
	Hash          string    `gorm:"primaryKey;type:char(40)" json:"hash"`
	ImageID       string    `gorm:"type:char(40);uniqueIndex;not null" json:"image_id"`
	Image         *Image    `gorm:"foreignKey:ImageID;references:ID" json:"-"`
	Confirmed     bool      `gorm:"default:false" json:"confirmed"`
	Reason        string    `gorm:"type:text;not null" json:"reason"`
	ReporterIP    string    `gorm:"type:varchar(45);default:null" json:"-"`
	ReporterEmail string    `gorm:"type:varchar(200);not null" json:"-"`
	OwnerUUID     string    `gorm:"type:char(36);index" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewAbuse builds an unconfirmed report for image. The hash doubles as the
// confirmation token mailed to the reporter.
func NewAbuse(image *Image, ownerUUID, reason, reporterIP, reporterEmail string) *Abuse {
	now := time.Now().UTC()
	sum := sha1.Sum([]byte(fmt.Sprintf("%s%s%s%s%d", ownerUUID, image.ID, reason, reporterIP, now.UnixNano())))
	return &Abuse{
		Hash:          hex.EncodeToString(sum[:]),
		ImageID:       image.ID,
		Image:         image,
		Reason:        reason,
		ReporterIP:    reporterIP,
		ReporterEmail: reporterEmail,
		OwnerUUID:     ownerUUID,
		CreatedAt:     now,
	}
}
