package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ads-sdk/backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdRepositoryImpl implements AdRepository
type AdRepositoryImpl struct {
	*BaseRepository[models.Ad, models.AdFilter]
}

func NewAdRepository(db *gorm.DB) AdRepository {
	return &AdRepositoryImpl{BaseRepository: NewBaseRepository[models.Ad, models.AdFilter](db)}
}

func (r *AdRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	db := r.getDB(ctx)
	var row models.Ad
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ad by id %s: %w", id, err)
	}
	return &row, nil
}

func (r *AdRepositoryImpl) applyFilter(db *gorm.DB, f models.AdFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.IsBanner != nil {
		db = db.Where("is_banner = ?", *f.IsBanner)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *AdRepositoryImpl) ByFilter(ctx context.Context, filter models.AdFilter, orderBy string, limit, offset int) ([]*models.Ad, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Ad{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Ad
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Random returns one live ad picked uniformly at random, or nil when the
// inventory is empty.
func (r *AdRepositoryImpl) Random(ctx context.Context) (*models.Ad, error) {
	db := r.getDB(ctx)
	var row models.Ad
	if err := db.Order("RANDOM()").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick random ad: %w", err)
	}
	return &row, nil
}

// SoftDelete marks the ad as deleted. The row stays in the table so existing
// placements keep resolving their foreign key, but every live-scope query
// stops seeing it.
func (r *AdRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	db := r.getDB(ctx)
	res := db.Where("id = ?", id).Delete(&models.Ad{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete ad %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (r *AdRepositoryImpl) IncrementImpression(ctx context.Context, id uuid.UUID) error {
	return r.incrementColumn(ctx, "id", id, "impression_count")
}

func (r *AdRepositoryImpl) IncrementClick(ctx context.Context, id uuid.UUID) error {
	return r.incrementColumn(ctx, "id", id, "click_count")
}
