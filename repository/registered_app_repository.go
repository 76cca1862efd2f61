package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ads-sdk/backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisteredAppRepositoryImpl implements RegisteredAppRepository
type RegisteredAppRepositoryImpl struct {
	*BaseRepository[models.RegisteredApp, models.RegisteredAppFilter]
}

func NewRegisteredAppRepository(db *gorm.DB) RegisteredAppRepository {
	return &RegisteredAppRepositoryImpl{BaseRepository: NewBaseRepository[models.RegisteredApp, models.RegisteredAppFilter](db)}
}

func (r *RegisteredAppRepositoryImpl) ByID(ctx context.Context, appID uuid.UUID) (*models.RegisteredApp, error) {
	db := r.getDB(ctx)
	var row models.RegisteredApp
	if err := db.Where("app_id = ?", appID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find app by id %s: %w", appID, err)
	}
	return &row, nil
}

// ByApkKeyAndPackage looks up an app by its identity pair. Registration is
// keyed on (apk key, package name), so at most one live row can match.
func (r *RegisteredAppRepositoryImpl) ByApkKeyAndPackage(ctx context.Context, apkKey, packageName string) (*models.RegisteredApp, error) {
	filter := models.RegisteredAppFilter{AppApkKey: &apkKey, AppPackageName: &packageName}
	rows, err := r.ByFilter(ctx, filter, "created_at DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *RegisteredAppRepositoryImpl) applyFilter(db *gorm.DB, f models.RegisteredAppFilter) *gorm.DB {
	if f.AppID != nil {
		db = db.Where("app_id = ?", *f.AppID)
	}
	if f.AppApkKey != nil {
		db = db.Where("app_apk_key = ?", *f.AppApkKey)
	}
	if f.AppPackageName != nil {
		db = db.Where("app_package_name = ?", *f.AppPackageName)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *RegisteredAppRepositoryImpl) ByFilter(ctx context.Context, filter models.RegisteredAppFilter, orderBy string, limit, offset int) ([]*models.RegisteredApp, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.RegisteredApp{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.RegisteredApp
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SyncAdCount recomputes the app's ad_count from its active placements.
// Called after placements are created, revived or deactivated so the stored
// counter never drifts from the running_ads table.
func (r *RegisteredAppRepositoryImpl) SyncAdCount(ctx context.Context, appID uuid.UUID) error {
	db := r.getDB(ctx)
	res := db.Model(&models.RegisteredApp{}).
		Where("app_id = ?", appID).
		UpdateColumn("ad_count", gorm.Expr(
			"(SELECT COUNT(*) FROM running_ads WHERE app_id = ? AND is_active = TRUE AND deleted_at IS NULL)", appID))
	if res.Error != nil {
		return fmt.Errorf("failed to sync ad_count for app %s: %w", appID, res.Error)
	}
	switch {
	case res.RowsAffected == 0:
		return ErrRowNotFound
	case res.RowsAffected > 1:
		return fmt.Errorf("%w: ad_count on app_id=%s hit %d rows", ErrMultipleRowsAffected, appID, res.RowsAffected)
	}
	return nil
}

func (r *RegisteredAppRepositoryImpl) IncrementImpression(ctx context.Context, appID uuid.UUID) error {
	return r.incrementColumn(ctx, "app_id", appID, "app_impressions")
}

func (r *RegisteredAppRepositoryImpl) IncrementClick(ctx context.Context, appID uuid.UUID) error {
	return r.incrementColumn(ctx, "app_id", appID, "app_clicks")
}
