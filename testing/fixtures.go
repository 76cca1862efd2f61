// Package testing provides test utilities and database setup for testing the ads backend
package testing

import (
	"fmt"
	"math/rand"

	"github.com/ads-sdk/backend/models"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAd creates an ad with a valid asset path and link
func (tf *TestFixtures) CreateTestAd() (*models.Ad, error) {
	ad := &models.Ad{
		AdAssetPath: fmt.Sprintf("asset-%d.png", rand.Intn(1_000_000)),
		AppLink:     "https://example.com/install",
		IsBanner:    false,
	}
	if err := tf.DB.DB.Create(ad).Error; err != nil {
		return nil, fmt.Errorf("failed to create test ad: %w", err)
	}
	return ad, nil
}

// CreateTestBannerAd creates an ad flagged as a banner
func (tf *TestFixtures) CreateTestBannerAd() (*models.Ad, error) {
	ad := &models.Ad{
		AdAssetPath: fmt.Sprintf("banner-%d.jpg", rand.Intn(1_000_000)),
		AppLink:     "https://example.com/banner",
		IsBanner:    true,
	}
	if err := tf.DB.DB.Create(ad).Error; err != nil {
		return nil, fmt.Errorf("failed to create test banner ad: %w", err)
	}
	return ad, nil
}

// CreateTestApp creates a registered app with unique identity fields
func (tf *TestFixtures) CreateTestApp() (*models.RegisteredApp, error) {
	n := rand.Intn(1_000_000)
	app := &models.RegisteredApp{
		AppName:        fmt.Sprintf("Test App %d", n),
		AppApkKey:      fmt.Sprintf("apk-key-%d", n),
		AppPackageName: fmt.Sprintf("com.example.app%d", n),
		AppVersion:     "1.0.0",
	}
	if err := tf.DB.DB.Create(app).Error; err != nil {
		return nil, fmt.Errorf("failed to create test app: %w", err)
	}
	return app, nil
}

// CreateTestRunningAd links the given ad to the given app
func (tf *TestFixtures) CreateTestRunningAd(app *models.RegisteredApp, ad *models.Ad) (*models.RunningAd, error) {
	ra := &models.RunningAd{
		AppID: app.AppID,
		AdID:  ad.ID,
	}
	if err := tf.DB.DB.Create(ra).Error; err != nil {
		return nil, fmt.Errorf("failed to create test running ad: %w", err)
	}
	return ra, nil
}

// CreateTestPlacement creates one app, one ad, and the link between them
func (tf *TestFixtures) CreateTestPlacement() (*models.RegisteredApp, *models.Ad, *models.RunningAd, error) {
	app, err := tf.CreateTestApp()
	if err != nil {
		return nil, nil, nil, err
	}
	ad, err := tf.CreateTestAd()
	if err != nil {
		return nil, nil, nil, err
	}
	ra, err := tf.CreateTestRunningAd(app, ad)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, ad, ra, nil
}
