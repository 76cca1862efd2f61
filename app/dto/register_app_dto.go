package dto

// RegisterAppRequest represents the idempotent app registration payload
type RegisterAppRequest struct {
	AppName        string `json:"app_name" validate:"required"`
	AppApkKey      string `json:"app_apk_key" validate:"required"`
	AppPackageName string `json:"app_package_name" validate:"required"`
	AppVersion     string `json:"app_version" validate:"required"`
}

// RegisteredAppDTO represents one registered app in responses
type RegisteredAppDTO struct {
	AppID          string         `json:"app_id"`
	AppName        string         `json:"app_name"`
	AppApkKey      string         `json:"app_apk_key"`
	AppPackageName string         `json:"app_package_name"`
	AppVersion     string         `json:"app_version"`
	AdCount        int64          `json:"ad_count"`
	AppImpressions int64          `json:"app_impressions"`
	AppClicks      int64          `json:"app_clicks"`
	Custom         map[string]any `json:"custom,omitempty"`
	CreatedAt      string         `json:"created_at"`
}

// RegisterAppResponse reports the stored record; Existing is true when the
// (apk key, package name) pair was already registered and no new row was made.
type RegisterAppResponse struct {
	Existing bool             `json:"existing"`
	App      RegisteredAppDTO `json:"app"`
}

// ListAppsResponse represents the getAllApps payload
type ListAppsResponse struct {
	Apps []RegisteredAppDTO `json:"apps"`
}
