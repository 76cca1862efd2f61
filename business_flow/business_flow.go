// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/models"
)

// ToAdDTO converts an ad model to its response shape
func ToAdDTO(ad models.Ad) dto.AdDTO {
	return dto.AdDTO{
		ID:              ad.ID.String(),
		AdAssetPath:     ad.AdAssetPath,
		AppLink:         ad.AppLink,
		IsBanner:        ad.IsBanner,
		ImpressionCount: ad.ImpressionCount,
		ClickCount:      ad.ClickCount,
		Custom:          ad.Custom,
		CreatedAt:       ad.CreatedAt.Format(time.RFC3339),
	}
}

// ToRegisteredAppDTO converts an app model to its response shape
func ToRegisteredAppDTO(app models.RegisteredApp) dto.RegisteredAppDTO {
	return dto.RegisteredAppDTO{
		AppID:          app.AppID.String(),
		AppName:        app.AppName,
		AppApkKey:      app.AppApkKey,
		AppPackageName: app.AppPackageName,
		AppVersion:     app.AppVersion,
		AdCount:        app.AdCount,
		AppImpressions: app.AppImpressions,
		AppClicks:      app.AppClicks,
		Custom:         app.Custom,
		CreatedAt:      app.CreatedAt.Format(time.RFC3339),
	}
}

// ToRunningAdDTO converts a placement model to its response shape
func ToRunningAdDTO(ra models.RunningAd) dto.RunningAdDTO {
	return dto.RunningAdDTO{
		ID:              ra.ID.String(),
		AppID:           ra.AppID.String(),
		AdID:            ra.AdID.String(),
		IsActive:        ra.IsActive,
		ImpressionCount: ra.ImpressionCount,
		ClickCount:      ra.ClickCount,
		Custom:          ra.Custom,
		CreatedAt:       ra.CreatedAt.Format(time.RFC3339),
	}
}

// ToRunningAdSummaryDTO converts a joined listing row to its response shape
func ToRunningAdSummaryDTO(row models.RunningAdSummary) dto.RunningAdSummaryDTO {
	return dto.RunningAdSummaryDTO{
		ID:              row.ID.String(),
		AppID:           row.AppID.String(),
		AdID:            row.AdID.String(),
		ImpressionCount: row.ImpressionCount,
		ClickCount:      row.ClickCount,
		AdAssetPath:     row.AdAssetPath,
		AppLink:         row.AppLink,
		AppName:         row.AppName,
	}
}
