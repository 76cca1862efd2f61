package businessflow

import (
	"context"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/repository"
	"github.com/ads-sdk/backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunningAdFlow manages ad-to-app placements: creation, listing, the random
// pick served to SDK clients, deactivation, and the cascading counter updates.
type RunningAdFlow interface {
	CreateRunningAd(ctx context.Context, req *dto.CreateRunningAdRequest) (*dto.RunningAdDTO, error)
	CreateMultipleRunningAds(ctx context.Context, req *dto.CreateMultipleRunningAdsRequest) ([]dto.RunningAdDTO, error)
	ListRunningAds(ctx context.Context) ([]dto.RunningAdSummaryDTO, error)
	ListRunningAdsByApp(ctx context.Context, appID string) ([]dto.RunningAdDTO, error)
	RandomAdByApp(ctx context.Context, appID string) (*dto.RandomRunningAdResponse, error)
	IncrementImpression(ctx context.Context, runningAdID string) error
	IncrementClick(ctx context.Context, runningAdID string) error
	Deactivate(ctx context.Context, runningAdID string) error
}

type RunningAdFlowImpl struct {
	runningRepo repository.RunningAdRepository
	adRepo      repository.AdRepository
	appRepo     repository.RegisteredAppRepository
	db          *gorm.DB
}

func NewRunningAdFlow(
	runningRepo repository.RunningAdRepository,
	adRepo repository.AdRepository,
	appRepo repository.RegisteredAppRepository,
	db *gorm.DB,
) RunningAdFlow {
	return &RunningAdFlowImpl{
		runningRepo: runningRepo,
		adRepo:      adRepo,
		appRepo:     appRepo,
		db:          db,
	}
}

// CreateRunningAd links one ad to one app. A previously deactivated or
// removed (app, ad) pair is revived instead of duplicated, so the call is
// safe to repeat.
func (f *RunningAdFlowImpl) CreateRunningAd(ctx context.Context, req *dto.CreateRunningAdRequest) (*dto.RunningAdDTO, error) {
	appID, err := uuid.Parse(req.AppID)
	if err != nil {
		return nil, ErrAppIDRequired
	}
	adID, err := uuid.Parse(req.AdID)
	if err != nil {
		return nil, ErrAdIDRequired
	}

	var out *dto.RunningAdDTO
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		app, err := f.appRepo.ByID(txCtx, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return ErrAppNotFound
		}
		ad, err := f.adRepo.ByID(txCtx, adID)
		if err != nil {
			return err
		}
		if ad == nil {
			return ErrAdNotFound
		}

		placement := &models.RunningAd{AppID: appID, AdID: adID}
		if err := f.runningRepo.UpsertBatch(txCtx, []*models.RunningAd{placement}); err != nil {
			return err
		}
		if err := f.appRepo.SyncAdCount(txCtx, appID); err != nil {
			return err
		}

		stored, err := f.placementByPair(txCtx, appID, adID)
		if err != nil {
			return err
		}
		row := ToRunningAdDTO(*stored)
		out = &row
		return nil
	})
	if err != nil {
		if IsAppNotFound(err) || IsAdNotFound(err) {
			return nil, err
		}
		return nil, NewBusinessError("RUNNING_AD_CREATE_FAILED", "Failed to create running ad", err)
	}
	return out, nil
}

// CreateMultipleRunningAds places a list of ads on one app in a single
// transaction. Conflicting pairs are revived; a missing app or ad rolls the
// whole batch back.
func (f *RunningAdFlowImpl) CreateMultipleRunningAds(ctx context.Context, req *dto.CreateMultipleRunningAdsRequest) ([]dto.RunningAdDTO, error) {
	appID, err := uuid.Parse(req.AppID)
	if err != nil {
		return nil, ErrAppIDRequired
	}
	if len(req.AdsListData) == 0 {
		return nil, ErrEmptyPlacementList
	}

	adIDs := make([]uuid.UUID, 0, len(req.AdsListData))
	for _, ref := range req.AdsListData {
		adID, err := uuid.Parse(ref.ID)
		if err != nil {
			return nil, ErrAdIDRequired
		}
		adIDs = append(adIDs, adID)
	}

	var out []dto.RunningAdDTO
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		app, err := f.appRepo.ByID(txCtx, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return ErrAppNotFound
		}

		placements := make([]*models.RunningAd, 0, len(adIDs))
		for _, adID := range adIDs {
			ad, err := f.adRepo.ByID(txCtx, adID)
			if err != nil {
				return err
			}
			if ad == nil {
				return ErrAdNotFound
			}
			placements = append(placements, &models.RunningAd{AppID: appID, AdID: adID})
		}

		if err := f.runningRepo.UpsertBatch(txCtx, placements); err != nil {
			return err
		}
		if err := f.appRepo.SyncAdCount(txCtx, appID); err != nil {
			return err
		}

		out = make([]dto.RunningAdDTO, 0, len(adIDs))
		for _, adID := range adIDs {
			stored, err := f.placementByPair(txCtx, appID, adID)
			if err != nil {
				return err
			}
			out = append(out, ToRunningAdDTO(*stored))
		}
		return nil
	})
	if err != nil {
		if IsAppNotFound(err) || IsAdNotFound(err) {
			return nil, err
		}
		return nil, NewBusinessError("RUNNING_AD_BULK_CREATE_FAILED", "Failed to create running ads", err)
	}
	return out, nil
}

func (f *RunningAdFlowImpl) placementByPair(ctx context.Context, appID, adID uuid.UUID) (*models.RunningAd, error) {
	filter := models.RunningAdFilter{AppID: &appID, AdID: &adID}
	rows, err := f.runningRepo.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRunningAdNotFound
	}
	return rows[0], nil
}

func (f *RunningAdFlowImpl) ListRunningAds(ctx context.Context) ([]dto.RunningAdSummaryDTO, error) {
	rows, err := f.runningRepo.ListActiveSummaries(ctx, 0, 0)
	if err != nil {
		return nil, NewBusinessError("RUNNING_AD_LIST_FAILED", "Failed to list running ads", err)
	}

	out := make([]dto.RunningAdSummaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToRunningAdSummaryDTO(*row))
	}
	return out, nil
}

func (f *RunningAdFlowImpl) ListRunningAdsByApp(ctx context.Context, appID string) ([]dto.RunningAdDTO, error) {
	id, err := uuid.Parse(appID)
	if err != nil {
		return nil, ErrAppIDRequired
	}

	app, err := f.appRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("RUNNING_AD_LIST_FAILED", "Failed to list running ads", err)
	}
	if app == nil {
		return nil, ErrAppNotFound
	}

	filter := models.RunningAdFilter{AppID: &id, IsActive: utils.ToPtr(true)}
	rows, err := f.runningRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("RUNNING_AD_LIST_FAILED", "Failed to list running ads", err)
	}

	out := make([]dto.RunningAdDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToRunningAdDTO(*row))
	}
	return out, nil
}

// RandomAdByApp serves the SDK's fetch: one uniformly random active placement
// of the app, flattened to the asset to render, the destination link, and the
// placement id to report events against.
func (f *RunningAdFlowImpl) RandomAdByApp(ctx context.Context, appID string) (*dto.RandomRunningAdResponse, error) {
	id, err := uuid.Parse(appID)
	if err != nil {
		return nil, ErrAppIDRequired
	}

	row, err := f.runningRepo.RandomActiveByApp(ctx, id)
	if err != nil {
		return nil, NewBusinessError("RUNNING_AD_RANDOM_FAILED", "Failed to pick random running ad", err)
	}
	if row == nil || row.Ad == nil {
		return nil, ErrRunningAdNotFound
	}

	return &dto.RandomRunningAdResponse{
		RandomImage: row.Ad.AdAssetPath,
		AppURL:      row.Ad.AppLink,
		AdID:        row.ID.String(),
	}, nil
}

// IncrementImpression records one impression on a placement and cascades the
// count to the referenced ad and app. See cascadeIncrement for the
// transaction protocol.
func (f *RunningAdFlowImpl) IncrementImpression(ctx context.Context, runningAdID string) error {
	return f.cascadeIncrement(ctx, runningAdID,
		f.runningRepo.IncrementImpression,
		f.adRepo.IncrementImpression,
		f.appRepo.IncrementImpression,
	)
}

// IncrementClick records one click on a placement, cascading like
// IncrementImpression.
func (f *RunningAdFlowImpl) IncrementClick(ctx context.Context, runningAdID string) error {
	return f.cascadeIncrement(ctx, runningAdID,
		f.runningRepo.IncrementClick,
		f.adRepo.IncrementClick,
		f.appRepo.IncrementClick,
	)
}

// cascadeIncrement moves one counter across the three tables in a single
// transaction. The placement is read with a row lock inside the transaction,
// so a concurrent deactivation cannot land between the active check and the
// updates; each increment must hit exactly one row or everything rolls back.
func (f *RunningAdFlowImpl) cascadeIncrement(
	ctx context.Context,
	runningAdID string,
	bumpRunning func(context.Context, uuid.UUID) error,
	bumpAd func(context.Context, uuid.UUID) error,
	bumpApp func(context.Context, uuid.UUID) error,
) error {
	id, err := uuid.Parse(runningAdID)
	if err != nil {
		return ErrRunningAdIDRequired
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		row, err := f.runningRepo.ByIDLocked(txCtx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrRunningAdNotFound
		}
		if !row.IsActive {
			return ErrRunningAdInactive
		}

		if err := bumpRunning(txCtx, row.ID); err != nil {
			return err
		}
		if err := bumpAd(txCtx, row.AdID); err != nil {
			return err
		}
		return bumpApp(txCtx, row.AppID)
	})
	if err != nil {
		if IsRunningAdNotFound(err) || IsRunningAdInactive(err) {
			return err
		}
		return NewBusinessError("COUNTER_CASCADE_FAILED", "Failed to record ad event", err)
	}
	return nil
}

// Deactivate flips a placement to inactive, keeping the row and its counters.
func (f *RunningAdFlowImpl) Deactivate(ctx context.Context, runningAdID string) error {
	id, err := uuid.Parse(runningAdID)
	if err != nil {
		return ErrRunningAdIDRequired
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		row, err := f.runningRepo.ByIDLocked(txCtx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrRunningAdNotFound
		}
		if !row.IsActive {
			return nil // already inactive, nothing to do
		}
		if err := f.runningRepo.Deactivate(txCtx, id); err != nil {
			return err
		}
		return f.appRepo.SyncAdCount(txCtx, row.AppID)
	})
	if err != nil {
		if IsRunningAdNotFound(err) {
			return err
		}
		return NewBusinessError("RUNNING_AD_DEACTIVATE_FAILED", "Failed to deactivate running ad", err)
	}
	return nil
}
