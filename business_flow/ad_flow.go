package businessflow

import (
	"context"
	"strings"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/repository"
	"gorm.io/gorm"
)

// AdFlow manages the ad inventory: uploads, bulk creation, and the
// public listing/random-pick reads.
type AdFlow interface {
	CreateAd(ctx context.Context, assetPath, appLink string, isBanner bool) (*dto.AdDTO, error)
	CreateMultipleAds(ctx context.Context, tuples []dto.AdTuple) (int, error)
	ListAds(ctx context.Context) ([]dto.AdDTO, error)
	RandomAd(ctx context.Context) (*dto.AdDTO, error)
}

type AdFlowImpl struct {
	adRepo repository.AdRepository
	db     *gorm.DB
}

func NewAdFlow(adRepo repository.AdRepository, db *gorm.DB) AdFlow {
	return &AdFlowImpl{adRepo: adRepo, db: db}
}

func (f *AdFlowImpl) CreateAd(ctx context.Context, assetPath, appLink string, isBanner bool) (*dto.AdDTO, error) {
	if strings.TrimSpace(assetPath) == "" {
		return nil, ErrAdAssetRequired
	}
	if strings.TrimSpace(appLink) == "" {
		return nil, ErrAppLinkRequired
	}

	ad := &models.Ad{
		AdAssetPath: strings.TrimSpace(assetPath),
		AppLink:     strings.TrimSpace(appLink),
		IsBanner:    isBanner,
	}
	if err := f.adRepo.Save(ctx, ad); err != nil {
		return nil, NewBusinessError("AD_CREATE_FAILED", "Failed to create ad", err)
	}

	out := ToAdDTO(*ad)
	return &out, nil
}

// CreateMultipleAds stores the whole batch in one transaction; a single bad
// entry rolls back everything. Returns the number of ads created.
func (f *AdFlowImpl) CreateMultipleAds(ctx context.Context, tuples []dto.AdTuple) (int, error) {
	if len(tuples) == 0 {
		return 0, ErrEmptyAdList
	}

	ads := make([]*models.Ad, 0, len(tuples))
	for _, t := range tuples {
		ads = append(ads, &models.Ad{
			AdAssetPath: strings.TrimSpace(t.AdAssetPath),
			AppLink:     strings.TrimSpace(t.AppLink),
			IsBanner:    t.IsBanner,
		})
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.adRepo.SaveBatch(txCtx, ads)
	})
	if err != nil {
		return 0, NewBusinessError("AD_BULK_CREATE_FAILED", "Failed to create ads", err)
	}
	return len(ads), nil
}

func (f *AdFlowImpl) ListAds(ctx context.Context) ([]dto.AdDTO, error) {
	rows, err := f.adRepo.ByFilter(ctx, models.AdFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("AD_LIST_FAILED", "Failed to list ads", err)
	}

	out := make([]dto.AdDTO, 0, len(rows))
	for _, ad := range rows {
		out = append(out, ToAdDTO(*ad))
	}
	return out, nil
}

// RandomAd returns one uniformly random live ad, or ErrNoAdsAvailable when
// the inventory is empty.
func (f *AdFlowImpl) RandomAd(ctx context.Context) (*dto.AdDTO, error) {
	ad, err := f.adRepo.Random(ctx)
	if err != nil {
		return nil, NewBusinessError("AD_RANDOM_FAILED", "Failed to pick random ad", err)
	}
	if ad == nil {
		return nil, ErrNoAdsAvailable
	}

	out := ToAdDTO(*ad)
	return &out, nil
}
