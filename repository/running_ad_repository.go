package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ads-sdk/backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunningAdRepositoryImpl implements RunningAdRepository
type RunningAdRepositoryImpl struct {
	*BaseRepository[models.RunningAd, models.RunningAdFilter]
}

func NewRunningAdRepository(db *gorm.DB) RunningAdRepository {
	return &RunningAdRepositoryImpl{BaseRepository: NewBaseRepository[models.RunningAd, models.RunningAdFilter](db)}
}

func (r *RunningAdRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.RunningAd, error) {
	db := r.getDB(ctx)
	var row models.RunningAd
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find running ad by id %s: %w", id, err)
	}
	return &row, nil
}

// ByIDLocked reads the running ad with a FOR UPDATE lock. Only meaningful
// inside a transaction; the caller holds the row until commit or rollback, so
// a concurrent deactivation cannot slip between the check and the increments.
func (r *RunningAdRepositoryImpl) ByIDLocked(ctx context.Context, id uuid.UUID) (*models.RunningAd, error) {
	db := r.getDB(ctx)
	var row models.RunningAd
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock running ad %s: %w", id, err)
	}
	return &row, nil
}

func (r *RunningAdRepositoryImpl) applyFilter(db *gorm.DB, f models.RunningAdFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.AppID != nil {
		db = db.Where("app_id = ?", *f.AppID)
	}
	if f.AdID != nil {
		db = db.Where("ad_id = ?", *f.AdID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *RunningAdRepositoryImpl) ByFilter(ctx context.Context, filter models.RunningAdFilter, orderBy string, limit, offset int) ([]*models.RunningAd, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.RunningAd{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.RunningAd
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveSummaries joins active placements with their ad and app rows and
// returns the flattened view the listing endpoints expose. Soft-deleted ads
// and apps drop out of the join.
func (r *RunningAdRepositoryImpl) ListActiveSummaries(ctx context.Context, limit, offset int) ([]*models.RunningAdSummary, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.RunningAd{}).
		Select(`running_ads.id, running_ads.app_id, running_ads.ad_id,
			running_ads.impression_count, running_ads.click_count,
			ads.ad_asset_path, ads.app_link, registered_apk_keys.app_name`).
		Joins("JOIN ads ON ads.id = running_ads.ad_id AND ads.deleted_at IS NULL").
		Joins("JOIN registered_apk_keys ON registered_apk_keys.app_id = running_ads.app_id AND registered_apk_keys.deleted_at IS NULL").
		Where("running_ads.is_active = ?", true).
		Order("running_ads.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.RunningAdSummary
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list running ad summaries: %w", err)
	}
	return rows, nil
}

// RandomActiveByApp picks one active placement of the app uniformly at random,
// skipping placements whose ad has been soft-deleted. The Ad association is
// preloaded so the caller can flatten asset path and link into the response.
func (r *RunningAdRepositoryImpl) RandomActiveByApp(ctx context.Context, appID uuid.UUID) (*models.RunningAd, error) {
	db := r.getDB(ctx)
	var row models.RunningAd
	err := db.Preload("Ad").
		Joins("JOIN ads ON ads.id = running_ads.ad_id AND ads.deleted_at IS NULL").
		Where("running_ads.app_id = ? AND running_ads.is_active = ?", appID, true).
		Order("RANDOM()").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick random running ad for app %s: %w", appID, err)
	}
	return &row, nil
}

// UpsertBatch inserts placements, reviving the existing (app_id, ad_id) row on
// conflict. The unique key spans soft-deleted rows, so a previously removed or
// deactivated placement comes back active instead of duplicating.
func (r *RunningAdRepositoryImpl) UpsertBatch(ctx context.Context, placements []*models.RunningAd) error {
	if len(placements) == 0 {
		return nil
	}

	db := r.getDB(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "app_id"}, {Name: "ad_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_active":  true,
			"deleted_at": nil,
			"updated_at": clause.Expr{SQL: "NOW()"},
		}),
	}).Create(&placements).Error
	if err != nil {
		return fmt.Errorf("failed to upsert running ads: %w", err)
	}
	return nil
}

// Deactivate flips the placement to inactive. The row survives so the
// (app_id, ad_id) pair stays reserved and the counters stay auditable.
func (r *RunningAdRepositoryImpl) Deactivate(ctx context.Context, id uuid.UUID) error {
	db := r.getDB(ctx)
	res := db.Model(&models.RunningAd{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate running ad %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (r *RunningAdRepositoryImpl) IncrementImpression(ctx context.Context, id uuid.UUID) error {
	return r.incrementColumn(ctx, "id", id, "impression_count")
}

func (r *RunningAdRepositoryImpl) IncrementClick(ctx context.Context, id uuid.UUID) error {
	return r.incrementColumn(ctx, "id", id, "click_count")
}
