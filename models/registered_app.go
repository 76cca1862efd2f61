package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisteredApp represents a client application identified by its APK key and
// package name. At most one live (non soft-deleted) row may exist per
// (app_apk_key, app_package_name) pair; registration is idempotent on it.
type RegisteredApp struct {
	AppID          uuid.UUID      `gorm:"type:uuid;primaryKey;column:app_id" json:"app_id"`
	AppName        string         `gorm:"type:varchar(255);not null" json:"app_name"`
	AppApkKey      string         `gorm:"type:varchar(255);not null;index:idx_registered_apk_keys_key_package" json:"app_apk_key"`
	AppPackageName string         `gorm:"type:varchar(255);not null;index:idx_registered_apk_keys_key_package" json:"app_package_name"`
	AppVersion     string         `gorm:"type:varchar(64);not null" json:"app_version"`
	AdCount        int64          `gorm:"not null;default:0" json:"ad_count"`
	AppImpressions int64          `gorm:"not null;default:0" json:"app_impressions"`
	AppClicks      int64          `gorm:"not null;default:0" json:"app_clicks"`
	Custom         JSONMap        `gorm:"type:jsonb;not null;default:'{}'" json:"custom"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for RegisteredApp
func (RegisteredApp) TableName() string { return "registered_apk_keys" }

// BeforeCreate assigns the UUID primary key.
func (a *RegisteredApp) BeforeCreate(tx *gorm.DB) error {
	if a.AppID == uuid.Nil {
		a.AppID = uuid.New()
	}
	if a.Custom == nil {
		a.Custom = JSONMap{}
	}
	return nil
}

// RegisteredAppFilter provides filter fields for repository queries
type RegisteredAppFilter struct {
	AppID          *uuid.UUID
	AppApkKey      *string
	AppPackageName *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
