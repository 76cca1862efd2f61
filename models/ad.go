package models

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model-level validation errors surfaced by the BeforeSave hook
var (
	ErrAssetPathEmpty     = errors.New("ad asset path is required")
	ErrAssetExtNotAllowed = errors.New("ad asset extension is not allowed")
	ErrAppLinkEmpty       = errors.New("app link is required")
	ErrAppLinkNotURL      = errors.New("app link must be a valid URL")
)

// allowedAssetExts is the allow-list of creative file extensions
var allowedAssetExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".mp4":  true,
	".webp": true,
}

// AllowedAssetExtension reports whether the given asset path carries an
// extension from the creative allow-list. Comparison is case-insensitive.
func AllowedAssetExtension(assetPath string) bool {
	return allowedAssetExts[strings.ToLower(filepath.Ext(assetPath))]
}

// Ad represents an uploaded creative asset plus its click-through destination.
// Counters are only ever mutated through the conditional-increment repository
// methods, never by loading and re-saving the row.
type Ad struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AdAssetPath     string         `gorm:"type:varchar(255);not null" json:"ad_asset_path"`
	AppLink         string         `gorm:"type:text;not null" json:"app_link"`
	IsBanner        bool           `gorm:"not null;default:false" json:"is_banner"`
	ImpressionCount int64          `gorm:"not null;default:0" json:"impression_count"`
	ClickCount      int64          `gorm:"not null;default:0" json:"click_count"`
	Custom          JSONMap        `gorm:"type:jsonb;not null;default:'{}'" json:"custom"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for Ad
func (Ad) TableName() string { return "ads" }

// BeforeSave enforces row-level validation on create and update.
func (a *Ad) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(a.AdAssetPath) == "" {
		return ErrAssetPathEmpty
	}
	if !AllowedAssetExtension(a.AdAssetPath) {
		return ErrAssetExtNotAllowed
	}
	if strings.TrimSpace(a.AppLink) == "" {
		return ErrAppLinkEmpty
	}
	if u, err := url.Parse(a.AppLink); err != nil || u.Scheme == "" || u.Host == "" {
		return ErrAppLinkNotURL
	}
	return nil
}

// BeforeCreate assigns the UUID primary key.
func (a *Ad) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Custom == nil {
		a.Custom = JSONMap{}
	}
	return nil
}

// AdFilter provides filter fields for repository queries
type AdFilter struct {
	ID            *uuid.UUID
	IsBanner      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
