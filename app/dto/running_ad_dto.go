package dto

// CreateRunningAdRequest links one ad to one app
type CreateRunningAdRequest struct {
	AppID string `json:"app_id" validate:"required,uuid4"`
	AdID  string `json:"ad_id" validate:"required,uuid4"`
}

// RunningAdRef is one entry of the bulk placement payload
type RunningAdRef struct {
	ID string `json:"id" validate:"required,uuid4"`
}

// CreateMultipleRunningAdsRequest places a list of ads on one app.
// Existing (app, ad) pairs are reactivated instead of duplicated.
type CreateMultipleRunningAdsRequest struct {
	AppID       string         `json:"app_id" validate:"required,uuid4"`
	AdsListData []RunningAdRef `json:"adslistData" validate:"required,min=1,dive"`
}

// RunningAdDTO represents one placement in responses
type RunningAdDTO struct {
	ID              string         `json:"id"`
	AppID           string         `json:"app_id"`
	AdID            string         `json:"ad_id"`
	IsActive        bool           `json:"is_active"`
	ImpressionCount int64          `json:"impression_count"`
	ClickCount      int64          `json:"click_count"`
	Custom          map[string]any `json:"custom,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

// RunningAdSummaryDTO is the joined listing row: link counters plus the
// referenced ad's asset/link and the owning app's name.
type RunningAdSummaryDTO struct {
	ID              string `json:"id"`
	AppID           string `json:"app_id"`
	AdID            string `json:"ad_id"`
	ImpressionCount int64  `json:"impression_count"`
	ClickCount      int64  `json:"click_count"`
	AdAssetPath     string `json:"ad_asset_path"`
	AppLink         string `json:"app_link"`
	AppName         string `json:"app_name"`
}

// ListRunningAdsResponse represents the get-all-running-ads payload
type ListRunningAdsResponse struct {
	RunningAds []RunningAdSummaryDTO `json:"running_ads"`
}

// RandomRunningAdResponse is the flattened random-placement payload served to
// SDK clients: the asset to render, the destination link, and the placement id
// to report events against.
type RandomRunningAdResponse struct {
	RandomImage string `json:"randomImage"`
	AppURL      string `json:"appurl"`
	AdID        string `json:"ad_id"`
}

// IncrementRequest identifies the placement whose counters move
type IncrementRequest struct {
	RunningAdID string `json:"running_ad_id" validate:"required,uuid4"`
}

// DeactivateRunningAdRequest identifies the placement to deactivate
type DeactivateRunningAdRequest struct {
	ID string `json:"id" validate:"required,uuid4"`
}
