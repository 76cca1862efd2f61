package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/repository"
	"gorm.io/gorm"
)

// RegisterAppFlow registers apps exactly once per (apk key, package name)
// and bootstraps each new app with one running ad.
type RegisterAppFlow interface {
	RegisterApp(ctx context.Context, req *dto.RegisterAppRequest) (*dto.RegisterAppResponse, error)
	ListApps(ctx context.Context) ([]dto.RegisteredAppDTO, error)
}

type RegisterAppFlowImpl struct {
	appRepo     repository.RegisteredAppRepository
	adRepo      repository.AdRepository
	runningRepo repository.RunningAdRepository
	db          *gorm.DB
}

func NewRegisterAppFlow(
	appRepo repository.RegisteredAppRepository,
	adRepo repository.AdRepository,
	runningRepo repository.RunningAdRepository,
	db *gorm.DB,
) RegisterAppFlow {
	return &RegisterAppFlowImpl{
		appRepo:     appRepo,
		adRepo:      adRepo,
		runningRepo: runningRepo,
		db:          db,
	}
}

// RegisterApp runs the whole registration in one transaction: look up the
// (apk key, package name) pair, return the stored record when it already
// exists, otherwise insert the app, pick one random live ad and create the
// bootstrap placement. Any failure rolls the whole registration back, so a
// half-registered app (row without its placement) can never be observed.
func (f *RegisterAppFlowImpl) RegisterApp(ctx context.Context, req *dto.RegisterAppRequest) (*dto.RegisterAppResponse, error) {
	appName := strings.TrimSpace(req.AppName)
	apkKey := strings.TrimSpace(req.AppApkKey)
	packageName := strings.ToLower(strings.TrimSpace(req.AppPackageName))
	version := strings.TrimSpace(req.AppVersion)
	if appName == "" || apkKey == "" || packageName == "" || version == "" {
		return nil, ErrMissingRequiredFields
	}

	var resp *dto.RegisterAppResponse
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		existing, err := f.appRepo.ByApkKeyAndPackage(txCtx, apkKey, packageName)
		if err != nil {
			return err
		}
		if existing != nil {
			dtoApp := ToRegisteredAppDTO(*existing)
			resp = &dto.RegisterAppResponse{Existing: true, App: dtoApp}
			return nil
		}

		app := &models.RegisteredApp{
			AppName:        appName,
			AppApkKey:      apkKey,
			AppPackageName: packageName,
			AppVersion:     version,
		}
		if err := f.appRepo.Save(txCtx, app); err != nil {
			return err
		}

		randomAd, err := f.adRepo.Random(txCtx)
		if err != nil {
			return err
		}
		if randomAd == nil {
			return ErrNoAdsAvailable
		}

		placement := &models.RunningAd{
			AppID: app.AppID,
			AdID:  randomAd.ID,
		}
		if err := f.runningRepo.Save(txCtx, placement); err != nil {
			return err
		}
		if err := f.appRepo.SyncAdCount(txCtx, app.AppID); err != nil {
			return err
		}

		// Re-read so the response carries the bumped ad_count.
		stored, err := f.appRepo.ByID(txCtx, app.AppID)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("registered app %s not visible after insert", app.AppID)
		}
		dtoApp := ToRegisteredAppDTO(*stored)
		resp = &dto.RegisterAppResponse{Existing: false, App: dtoApp}
		return nil
	})
	if err != nil {
		if IsNoAdsAvailable(err) {
			return nil, err
		}
		return nil, NewBusinessError("APP_REGISTER_FAILED", "Failed to register app", err)
	}
	return resp, nil
}

func (f *RegisterAppFlowImpl) ListApps(ctx context.Context) ([]dto.RegisteredAppDTO, error) {
	rows, err := f.appRepo.ByFilter(ctx, models.RegisteredAppFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("APP_LIST_FAILED", "Failed to list apps", err)
	}

	out := make([]dto.RegisteredAppDTO, 0, len(rows))
	for _, app := range rows {
		out = append(out, ToRegisteredAppDTO(*app))
	}
	return out, nil
}
