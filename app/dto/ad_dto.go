package dto

// AdTuple is one entry of the bulk upload payload.
type AdTuple struct {
	IsBanner    bool   `json:"is_banner"`
	AdAssetPath string `json:"ad_asset_path" validate:"required"`
	AppLink     string `json:"app_link" validate:"required,url"`
}

// UploadMultipleAdsRequest represents the bulk ad creation payload
type UploadMultipleAdsRequest struct {
	AdsData []AdTuple `json:"adsData" validate:"required,min=1,dive"`
}

// AdDTO represents one ad in list responses
type AdDTO struct {
	ID              string         `json:"id"`
	AdAssetPath     string         `json:"ad_asset_path"`
	AppLink         string         `json:"app_link"`
	IsBanner        bool           `json:"is_banner"`
	ImpressionCount int64          `json:"impression_count"`
	ClickCount      int64          `json:"click_count"`
	Custom          map[string]any `json:"custom,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

// ListAdsResponse represents the get-all-ads payload
type ListAdsResponse struct {
	Ads []AdDTO `json:"ads"`
}

// RandomAdResponse wraps the single uniformly random ad
type RandomAdResponse struct {
	Ad *AdDTO `json:"ad"`
}
