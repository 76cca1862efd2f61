// Package repository_test contains database-backed tests for the data access layer
package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/repository"
	testingutil "github.com/ads-sdk/backend/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAdRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("RandomEmptyInventory", func(t *testing.T) {
			ad, err := repo.Random(ctx)
			require.NoError(t, err)
			assert.Nil(t, ad)
		})

		t.Run("Save", func(t *testing.T) {
			ad := &models.Ad{
				AdAssetPath: "creative.png",
				AppLink:     "https://example.com/install",
			}
			require.NoError(t, repo.Save(ctx, ad))
			assert.NotEqual(t, uuid.Nil, ad.ID)
			assert.NotNil(t, ad.Custom)
		})

		t.Run("SaveRejectsInvalidAsset", func(t *testing.T) {
			ad := &models.Ad{
				AdAssetPath: "creative.exe",
				AppLink:     "https://example.com/install",
			}
			err := repo.Save(ctx, ad)
			assert.ErrorIs(t, err, models.ErrAssetExtNotAllowed)
		})

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			ad, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, ad)
			assert.Equal(t, original.ID, ad.ID)
			assert.Equal(t, original.AdAssetPath, ad.AdAssetPath)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			ad, err := repo.ByID(ctx, uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, ad)
		})

		t.Run("ByFilterIsBanner", func(t *testing.T) {
			_, err := fixtures.CreateTestBannerAd()
			require.NoError(t, err)

			isBanner := true
			rows, err := repo.ByFilter(ctx, models.AdFilter{IsBanner: &isBanner}, "created_at DESC", 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, rows)
			for _, row := range rows {
				assert.True(t, row.IsBanner)
			}
		})

		t.Run("IncrementCounters", func(t *testing.T) {
			ad, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			require.NoError(t, repo.IncrementImpression(ctx, ad.ID))
			require.NoError(t, repo.IncrementImpression(ctx, ad.ID))
			require.NoError(t, repo.IncrementClick(ctx, ad.ID))

			stored, err := repo.ByID(ctx, ad.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, int64(2), stored.ImpressionCount)
			assert.Equal(t, int64(1), stored.ClickCount)
		})

		t.Run("IncrementUnknownID", func(t *testing.T) {
			err := repo.IncrementImpression(ctx, uuid.New())
			assert.ErrorIs(t, err, repository.ErrRowNotFound)
		})

		t.Run("SoftDelete", func(t *testing.T) {
			ad, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			require.NoError(t, repo.SoftDelete(ctx, ad.ID))

			// Live-scope reads stop seeing the row.
			stored, err := repo.ByID(ctx, ad.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)

			// Counters on a removed row must fail, not resurrect it.
			err = repo.IncrementClick(ctx, ad.ID)
			assert.ErrorIs(t, err, repository.ErrRowNotFound)

			// A second delete finds nothing.
			err = repo.SoftDelete(ctx, ad.ID)
			assert.ErrorIs(t, err, repository.ErrRowNotFound)
		})

		t.Run("RandomSkipsDeleted", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			kept, err := fixtures.CreateTestAd()
			require.NoError(t, err)
			removed, err := fixtures.CreateTestAd()
			require.NoError(t, err)
			require.NoError(t, repo.SoftDelete(ctx, removed.ID))

			for i := 0; i < 10; i++ {
				ad, err := repo.Random(ctx)
				require.NoError(t, err)
				require.NotNil(t, ad)
				assert.Equal(t, kept.ID, ad.ID)
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRegisteredAppRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewRegisteredAppRepository(testDB.DB)
		runningRepo := repository.NewRunningAdRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByID", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, app.AppID)

			stored, err := repo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, app.AppApkKey, stored.AppApkKey)
		})

		t.Run("ByApkKeyAndPackage", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)

			stored, err := repo.ByApkKeyAndPackage(ctx, app.AppApkKey, app.AppPackageName)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, app.AppID, stored.AppID)

			missing, err := repo.ByApkKeyAndPackage(ctx, app.AppApkKey, "com.other.package")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("SyncAdCount", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)
			adOne, err := fixtures.CreateTestAd()
			require.NoError(t, err)
			adTwo, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			first, err := fixtures.CreateTestRunningAd(app, adOne)
			require.NoError(t, err)
			_, err = fixtures.CreateTestRunningAd(app, adTwo)
			require.NoError(t, err)

			require.NoError(t, repo.SyncAdCount(ctx, app.AppID))
			stored, err := repo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), stored.AdCount)

			// Deactivated placements drop out of the count.
			require.NoError(t, runningRepo.Deactivate(ctx, first.ID))
			require.NoError(t, repo.SyncAdCount(ctx, app.AppID))
			stored, err = repo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), stored.AdCount)
		})

		t.Run("SyncAdCountUnknownApp", func(t *testing.T) {
			err := repo.SyncAdCount(ctx, uuid.New())
			assert.ErrorIs(t, err, repository.ErrRowNotFound)
		})

		t.Run("IncrementCounters", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)

			require.NoError(t, repo.IncrementImpression(ctx, app.AppID))
			require.NoError(t, repo.IncrementClick(ctx, app.AppID))
			require.NoError(t, repo.IncrementClick(ctx, app.AppID))

			stored, err := repo.ByID(ctx, app.AppID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), stored.AppImpressions)
			assert.Equal(t, int64(2), stored.AppClicks)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRunningAdRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewRunningAdRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByID", func(t *testing.T) {
			_, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			stored, err := repo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, stored.IsActive)
		})

		t.Run("UpsertBatchRevivesDeactivated", func(t *testing.T) {
			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			require.NoError(t, repo.Deactivate(ctx, ra.ID))

			err = repo.UpsertBatch(ctx, []*models.RunningAd{{AppID: app.AppID, AdID: ad.ID}})
			require.NoError(t, err)

			// Same row came back active, no duplicate was inserted.
			stored, err := repo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, stored.IsActive)

			rows, err := repo.ByFilter(ctx, models.RunningAdFilter{AppID: &app.AppID, AdID: &ad.ID}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})

		t.Run("UpsertBatchRevivesSoftDeleted", func(t *testing.T) {
			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			require.NoError(t, testDB.DB.Delete(&models.RunningAd{}, "id = ?", ra.ID).Error)
			gone, err := repo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			require.Nil(t, gone)

			err = repo.UpsertBatch(ctx, []*models.RunningAd{{AppID: app.AppID, AdID: ad.ID}})
			require.NoError(t, err)

			stored, err := repo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, stored.IsActive)
		})

		t.Run("Deactivate", func(t *testing.T) {
			_, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			require.NoError(t, repo.Deactivate(ctx, ra.ID))

			stored, err := repo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.False(t, stored.IsActive)

			// Already inactive: nothing matches the conditional update.
			err = repo.Deactivate(ctx, ra.ID)
			assert.ErrorIs(t, err, repository.ErrRowNotFound)
		})

		t.Run("IncrementCounters", func(t *testing.T) {
			_, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			require.NoError(t, repo.IncrementImpression(ctx, ra.ID))
			require.NoError(t, repo.IncrementClick(ctx, ra.ID))

			stored, err := repo.ByID(ctx, ra.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), stored.ImpressionCount)
			assert.Equal(t, int64(1), stored.ClickCount)
		})

		t.Run("ByIDLockedInsideTransaction", func(t *testing.T) {
			_, _, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			err = repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				row, err := repo.ByIDLocked(txCtx, ra.ID)
				if err != nil {
					return err
				}
				require.NotNil(t, row)
				assert.Equal(t, ra.ID, row.ID)
				return nil
			})
			require.NoError(t, err)
		})

		t.Run("RandomActiveByApp", func(t *testing.T) {
			app, err := fixtures.CreateTestApp()
			require.NoError(t, err)

			// No placements at all.
			row, err := repo.RandomActiveByApp(ctx, app.AppID)
			require.NoError(t, err)
			assert.Nil(t, row)

			activeAd, err := fixtures.CreateTestAd()
			require.NoError(t, err)
			inactiveAd, err := fixtures.CreateTestAd()
			require.NoError(t, err)

			active, err := fixtures.CreateTestRunningAd(app, activeAd)
			require.NoError(t, err)
			inactive, err := fixtures.CreateTestRunningAd(app, inactiveAd)
			require.NoError(t, err)
			require.NoError(t, repo.Deactivate(ctx, inactive.ID))

			for i := 0; i < 10; i++ {
				row, err := repo.RandomActiveByApp(ctx, app.AppID)
				require.NoError(t, err)
				require.NotNil(t, row)
				assert.Equal(t, active.ID, row.ID)
				require.NotNil(t, row.Ad)
				assert.Equal(t, activeAd.AdAssetPath, row.Ad.AdAssetPath)
			}
		})

		t.Run("RandomActiveByAppSkipsDeletedAd", func(t *testing.T) {
			app, ad, _, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)

			adRepo := repository.NewAdRepository(testDB.DB)
			require.NoError(t, adRepo.SoftDelete(ctx, ad.ID))

			row, err := repo.RandomActiveByApp(ctx, app.AppID)
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("ListActiveSummaries", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			app, ad, ra, err := fixtures.CreateTestPlacement()
			require.NoError(t, err)
			require.NoError(t, repo.IncrementImpression(ctx, ra.ID))

			rows, err := repo.ListActiveSummaries(ctx, 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, ra.ID, rows[0].ID)
			assert.Equal(t, ad.AdAssetPath, rows[0].AdAssetPath)
			assert.Equal(t, ad.AppLink, rows[0].AppLink)
			assert.Equal(t, app.AppName, rows[0].AppName)
			assert.Equal(t, int64(1), rows[0].ImpressionCount)

			// Deactivated placements drop out of the listing.
			require.NoError(t, repo.Deactivate(ctx, ra.ID))
			rows, err = repo.ListActiveSummaries(ctx, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWithTransactionRollback(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAdRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		var savedID uuid.UUID
		txErr := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
			ad := &models.Ad{
				AdAssetPath: "rollback.png",
				AppLink:     "https://example.com/install",
			}
			if err := repo.Save(txCtx, ad); err != nil {
				return err
			}
			savedID = ad.ID
			return errors.New("boom")
		})
		require.Error(t, txErr)

		stored, err := repo.ByID(ctx, savedID)
		require.NoError(t, err)
		assert.Nil(t, stored)

		return nil
	})
	require.NoError(t, err)
}
