// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/ads-sdk/backend/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// AdRepository defines operations for ad inventory
type AdRepository interface {
	Repository[models.Ad, models.AdFilter]
	ByID(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	ByFilter(ctx context.Context, filter models.AdFilter, orderBy string, limit, offset int) ([]*models.Ad, error)
	Random(ctx context.Context) (*models.Ad, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	IncrementImpression(ctx context.Context, id uuid.UUID) error
	IncrementClick(ctx context.Context, id uuid.UUID) error
}

// RegisteredAppRepository defines operations for registered applications
type RegisteredAppRepository interface {
	Repository[models.RegisteredApp, models.RegisteredAppFilter]
	ByID(ctx context.Context, appID uuid.UUID) (*models.RegisteredApp, error)
	ByApkKeyAndPackage(ctx context.Context, apkKey, packageName string) (*models.RegisteredApp, error)
	ByFilter(ctx context.Context, filter models.RegisteredAppFilter, orderBy string, limit, offset int) ([]*models.RegisteredApp, error)
	SyncAdCount(ctx context.Context, appID uuid.UUID) error
	IncrementImpression(ctx context.Context, appID uuid.UUID) error
	IncrementClick(ctx context.Context, appID uuid.UUID) error
}

// RunningAdRepository defines operations for ad-to-app placements
type RunningAdRepository interface {
	Repository[models.RunningAd, models.RunningAdFilter]
	ByID(ctx context.Context, id uuid.UUID) (*models.RunningAd, error)
	ByIDLocked(ctx context.Context, id uuid.UUID) (*models.RunningAd, error)
	ByFilter(ctx context.Context, filter models.RunningAdFilter, orderBy string, limit, offset int) ([]*models.RunningAd, error)
	ListActiveSummaries(ctx context.Context, limit, offset int) ([]*models.RunningAdSummary, error)
	RandomActiveByApp(ctx context.Context, appID uuid.UUID) (*models.RunningAd, error)
	UpsertBatch(ctx context.Context, placements []*models.RunningAd) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	IncrementImpression(ctx context.Context, id uuid.UUID) error
	IncrementClick(ctx context.Context, id uuid.UUID) error
}
