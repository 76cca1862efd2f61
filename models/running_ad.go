package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunningAd links one registered app to one ad and carries its own counters.
// The (app_id, ad_id) unique index spans soft-deleted rows: a deactivated link
// blocks a duplicate insert and is revived through the bulk upsert path.
type RunningAd struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AppID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_running_ads_app_id;uniqueIndex:uk_running_ads_app_ad" json:"app_id"`
	AdID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_running_ads_ad_id;uniqueIndex:uk_running_ads_app_ad" json:"ad_id"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	ImpressionCount int64          `gorm:"not null;default:0" json:"impression_count"`
	ClickCount      int64          `gorm:"not null;default:0" json:"click_count"`
	Custom          JSONMap        `gorm:"type:jsonb;not null;default:'{}'" json:"custom"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	App *RegisteredApp `gorm:"belongsTo;foreignKey:AppID;references:AppID" json:"app,omitempty"`
	Ad  *Ad            `gorm:"foreignKey:AdID;references:ID" json:"ad,omitempty"`
}

// TableName returns the table name for RunningAd
func (RunningAd) TableName() string { return "running_ads" }

// BeforeCreate assigns the UUID primary key.
func (r *RunningAd) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Custom == nil {
		r.Custom = JSONMap{}
	}
	return nil
}

// RunningAdFilter provides filter fields for repository queries
type RunningAdFilter struct {
	ID            *uuid.UUID
	AppID         *uuid.UUID
	AdID          *uuid.UUID
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// RunningAdSummary is the flattened row returned by the joined listing:
// the link's counters plus the referenced ad's asset/link and the app's name.
type RunningAdSummary struct {
	ID              uuid.UUID `json:"id"`
	AppID           uuid.UUID `json:"app_id"`
	AdID            uuid.UUID `json:"ad_id"`
	ImpressionCount int64     `json:"impression_count"`
	ClickCount      int64     `json:"click_count"`
	AdAssetPath     string    `json:"ad_asset_path"`
	AppLink         string    `json:"app_link"`
	AppName         string    `json:"app_name"`
}
