// Package businessflow_test contains database-backed tests for the business flows
package businessflow_test

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	businessflow "github.com/ads-sdk/backend/business_flow"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/repository"
	testingutil "github.com/ads-sdk/backend/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlows(testDB *testingutil.TestDB) (businessflow.AdFlow, businessflow.RegisterAppFlow, businessflow.RunningAdFlow) {
	adRepo := repository.NewAdRepository(testDB.DB)
	appRepo := repository.NewRegisteredAppRepository(testDB.DB)
	runningRepo := repository.NewRunningAdRepository(testDB.DB)

	adFlow := businessflow.NewAdFlow(adRepo, testDB.DB)
	registerFlow := businessflow.NewRegisterAppFlow(appRepo, adRepo, runningRepo, testDB.DB)
	runningFlow := businessflow.NewRunningAdFlow(runningRepo, adRepo, appRepo, testDB.DB)
	return adFlow, registerFlow, runningFlow
}

func registerRequest() *dto.RegisterAppRequest {
	n := rand.Intn(1_000_000)
	return &dto.RegisterAppRequest{
		AppName:        fmt.Sprintf("Flow App %d", n),
		AppApkKey:      fmt.Sprintf("flow-apk-%d", n),
		AppPackageName: fmt.Sprintf("com.flow.app%d", n),
		AppVersion:     "2.1.0",
	}
}

func TestAdFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		adFlow, _, _ := newFlows(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("RandomAdEmptyInventory", func(t *testing.T) {
			_, err := adFlow.RandomAd(ctx)
			assert.ErrorIs(t, err, businessflow.ErrNoAdsAvailable)
		})

		t.Run("CreateAd", func(t *testing.T) {
			ad, err := adFlow.CreateAd(ctx, "  creative.png  ", "https://example.com/install", true)
			require.NoError(t, err)
			assert.Equal(t, "creative.png", ad.AdAssetPath)
			assert.True(t, ad.IsBanner)
			assert.NotEmpty(t, ad.ID)
		})

		t.Run("CreateAdMissingFields", func(t *testing.T) {
			_, err := adFlow.CreateAd(ctx, "", "https://example.com", false)
			assert.ErrorIs(t, err, businessflow.ErrAdAssetRequired)

			_, err = adFlow.CreateAd(ctx, "creative.png", "   ", false)
			assert.ErrorIs(t, err, businessflow.ErrAppLinkRequired)
		})

		t.Run("CreateMultipleAds", func(t *testing.T) {
			count, err := adFlow.CreateMultipleAds(ctx, []dto.AdTuple{
				{AdAssetPath: "one.png", AppLink: "https://example.com/1"},
				{AdAssetPath: "two.jpg", AppLink: "https://example.com/2", IsBanner: true},
			})
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})

		t.Run("CreateMultipleAdsEmptyList", func(t *testing.T) {
			_, err := adFlow.CreateMultipleAds(ctx, nil)
			assert.ErrorIs(t, err, businessflow.ErrEmptyAdList)
		})

		t.Run("CreateMultipleAdsRollsBackOnBadEntry", func(t *testing.T) {
			before, err := adFlow.ListAds(ctx)
			require.NoError(t, err)

			_, err = adFlow.CreateMultipleAds(ctx, []dto.AdTuple{
				{AdAssetPath: "good.png", AppLink: "https://example.com/good"},
				{AdAssetPath: "bad.exe", AppLink: "https://example.com/bad"},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrAssetExtNotAllowed)

			after, err := adFlow.ListAds(ctx)
			require.NoError(t, err)
			assert.Len(t, after, len(before))
		})

		t.Run("ListAds", func(t *testing.T) {
			ads, err := adFlow.ListAds(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(ads), 3)
		})

		t.Run("RandomAd", func(t *testing.T) {
			ad, err := adFlow.RandomAd(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, ad.ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRegisterAppFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		adFlow, registerFlow, _ := newFlows(testDB)
		appRepo := repository.NewRegisteredAppRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("NoAdsAvailableRollsBack", func(t *testing.T) {
			req := registerRequest()
			_, err := registerFlow.RegisterApp(ctx, req)
			assert.ErrorIs(t, err, businessflow.ErrNoAdsAvailable)

			// The app insert must not survive the rollback.
			stored, err := appRepo.ByApkKeyAndPackage(ctx, req.AppApkKey, req.AppPackageName)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("RegisterBootstrapsPlacement", func(t *testing.T) {
			_, err := adFlow.CreateAd(ctx, "bootstrap.png", "https://example.com/app", false)
			require.NoError(t, err)

			req := registerRequest()
			resp, err := registerFlow.RegisterApp(ctx, req)
			require.NoError(t, err)
			assert.False(t, resp.Existing)
			assert.Equal(t, req.AppName, resp.App.AppName)
			assert.Equal(t, int64(1), resp.App.AdCount)
		})

		t.Run("RegisterIsIdempotent", func(t *testing.T) {
			req := registerRequest()
			first, err := registerFlow.RegisterApp(ctx, req)
			require.NoError(t, err)
			require.False(t, first.Existing)

			second, err := registerFlow.RegisterApp(ctx, req)
			require.NoError(t, err)
			assert.True(t, second.Existing)
			assert.Equal(t, first.App.AppID, second.App.AppID)
		})

		t.Run("PackageNameCaseInsensitive", func(t *testing.T) {
			req := registerRequest()
			first, err := registerFlow.RegisterApp(ctx, req)
			require.NoError(t, err)

			upper := *req
			upper.AppPackageName = strings.ToUpper(req.AppPackageName)
			second, err := registerFlow.RegisterApp(ctx, &upper)
			require.NoError(t, err)
			assert.True(t, second.Existing)
			assert.Equal(t, first.App.AppID, second.App.AppID)
		})

		t.Run("MissingFields", func(t *testing.T) {
			req := registerRequest()
			req.AppApkKey = "   "
			_, err := registerFlow.RegisterApp(ctx, req)
			assert.ErrorIs(t, err, businessflow.ErrMissingRequiredFields)
		})

		t.Run("ListApps", func(t *testing.T) {
			apps, err := registerFlow.ListApps(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(apps), 3)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRunningAdFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		_, _, runningFlow := newFlows(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("CreateRunningAdUnknownApp", func(t *testing.T) {
			ad, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			_, err = runningFlow.CreateRunningAd(ctx, &dto.CreateRunningAdRequest{
				AppID: uuid.New().String(),
				AdID:  ad.ID.String(),
			})
			assert.ErrorIs(t, err, businessflow.ErrAppNotFound)
		})

		t.Run("CreateRunningAdUnknownAd", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)

			_, err = runningFlow.CreateRunningAd(ctx, &dto.CreateRunningAdRequest{
				AppID: app.AppID.String(),
				AdID:  uuid.New().String(),
			})
			assert.ErrorIs(t, err, businessflow.ErrAdNotFound)
		})

		t.Run("CreateRunningAdIsRepeatable", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)
			ad, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			req := &dto.CreateRunningAdRequest{AppID: app.AppID.String(), AdID: ad.ID.String()}
			first, err := runningFlow.CreateRunningAd(ctx, req)
			require.NoError(t, err)
			second, err := runningFlow.CreateRunningAd(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.True(t, second.IsActive)
		})

		t.Run("CreateMultipleRunningAds", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)
			adOne, err := fixtures.CreateTestAd()
			require.NoError(t, err)
			adTwo, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			rows, err := runningFlow.CreateMultipleRunningAds(ctx, &dto.CreateMultipleRunningAdsRequest{
				AppID: app.AppID.String(),
				AdsListData: []dto.RunningAdRef{
					{ID: adOne.ID.String()},
					{ID: adTwo.ID.String()},
				},
			})
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			// ad_count follows the batch.
			appRepo := repository.NewRegisteredAppRepository(testDB.DB)
			stored, err := appRepo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), stored.AdCount)
		})

		t.Run("CreateMultipleRunningAdsRollsBackOnUnknownAd", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)
			ad, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			_, err = runningFlow.CreateMultipleRunningAds(ctx, &dto.CreateMultipleRunningAdsRequest{
				AppID: app.AppID.String(),
				AdsListData: []dto.RunningAdRef{
					{ID: ad.ID.String()},
					{ID: uuid.New().String()},
				},
			})
			assert.ErrorIs(t, err, businessflow.ErrAdNotFound)

			rows, err := runningFlow.ListRunningAdsByApp(ctx, app.AppID.String())
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("RandomAdByApp", func(t *testing.T) {
			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			resp, err := runningFlow.RandomAdByApp(ctx, app.AppID.String())
			require.NoError(t, err)
			assert.Equal(t, ad.AdAssetPath, resp.RandomImage)
			assert.Equal(t, ad.AppLink, resp.AppURL)
			assert.Equal(t, ra.ID.String(), resp.AdID)
		})

		t.Run("RandomAdByAppNoPlacements", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)

			_, err = runningFlow.RandomAdByApp(ctx, app.AppID.String())
			assert.ErrorIs(t, err, businessflow.ErrRunningAdNotFound)
		})

		t.Run("IncrementCascadesToAllThree", func(t *testing.T) {
			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			require.NoError(t, runningFlow.IncrementImpression(ctx, ra.ID.String()))
			require.NoError(t, runningFlow.IncrementImpression(ctx, ra.ID.String()))
			require.NoError(t, runningFlow.IncrementClick(ctx, ra.ID.String()))

			runningRepo := repository.NewRunningAdRepository(testDB.DB)
			adRepo := repository.NewAdRepository(testDB.DB)
			appRepo := repository.NewRegisteredAppRepository(testDB.DB)

			storedRA, err := runningRepo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), storedRA.ImpressionCount)
			assert.Equal(t, int64(1), storedRA.ClickCount)

			storedAd, err := adRepo.ByID(ctx, ad.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), storedAd.ImpressionCount)
			assert.Equal(t, int64(1), storedAd.ClickCount)

			storedApp, err := appRepo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), storedApp.AppImpressions)
			assert.Equal(t, int64(1), storedApp.AppClicks)
		})

		t.Run("ParallelImpressionsAllLand", func(t *testing.T) {
			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			// Every event must survive; the locked read serializes the
			// cascades so none of the increments can be lost.
			const n = 20
			errCh := make(chan error, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errCh <- runningFlow.IncrementImpression(ctx, ra.ID.String())
				}()
			}
			wg.Wait()
			close(errCh)
			for err := range errCh {
				require.NoError(t, err)
			}

			runningRepo := repository.NewRunningAdRepository(testDB.DB)
			adRepo := repository.NewAdRepository(testDB.DB)
			appRepo := repository.NewRegisteredAppRepository(testDB.DB)

			storedRA, err := runningRepo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(n), storedRA.ImpressionCount)

			storedAd, err := adRepo.ByID(ctx, ad.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(n), storedAd.ImpressionCount)

			storedApp, err := appRepo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(n), storedApp.AppImpressions)
		})

		t.Run("IncrementUnknownPlacement", func(t *testing.T) {
			err := runningFlow.IncrementImpression(ctx, uuid.New().String())
			assert.ErrorIs(t, err, businessflow.ErrRunningAdNotFound)
		})

		t.Run("IncrementInactivePlacement", func(t *testing.T) {
			_, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)
			require.NoError(t, runningFlow.Deactivate(ctx, ra.ID.String()))

			err = runningFlow.IncrementClick(ctx, ra.ID.String())
			assert.ErrorIs(t, err, businessflow.ErrRunningAdInactive)
		})

		t.Run("IncrementRollsBackWhenAdRemoved", func(t *testing.T) {
			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			// Remove the ad underneath the placement: the placement bump
			// succeeds but the ad bump hits zero rows, so nothing must stick.
			adRepo := repository.NewAdRepository(testDB.DB)
			require.NoError(t, adRepo.SoftDelete(ctx, ad.ID))

			err = runningFlow.IncrementImpression(ctx, ra.ID.String())
			require.Error(t, err)

			runningRepo := repository.NewRunningAdRepository(testDB.DB)
			storedRA, err := runningRepo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), storedRA.ImpressionCount)

			appRepo := repository.NewRegisteredAppRepository(testDB.DB)
			storedApp, err := appRepo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), storedApp.AppImpressions)
		})

		t.Run("DeactivateIsIdempotent", func(t *testing.T) {
			app, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			require.NoError(t, runningFlow.Deactivate(ctx, ra.ID.String()))
			require.NoError(t, runningFlow.Deactivate(ctx, ra.ID.String()))

			appRepo := repository.NewRegisteredAppRepository(testDB.DB)
			stored, err := appRepo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), stored.AdCount)
		})

		t.Run("DeactivateUnknownPlacement", func(t *testing.T) {
			err := runningFlow.Deactivate(ctx, uuid.New().String())
			assert.ErrorIs(t, err, businessflow.ErrRunningAdNotFound)
		})

		t.Run("DeactivatedExcludedFromListings", func(t *testing.T) {
			app, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)
			require.NoError(t, runningFlow.Deactivate(ctx, ra.ID.String()))

			rows, err := runningFlow.ListRunningAdsByApp(ctx, app.AppID.String())
			require.NoError(t, err)
			assert.Empty(t, rows)

			_, err = runningFlow.RandomAdByApp(ctx, app.AppID.String())
			assert.ErrorIs(t, err, businessflow.ErrRunningAdNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}
