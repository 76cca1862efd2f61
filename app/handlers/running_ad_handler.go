package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/app/middleware"
	businessflow "github.com/ads-sdk/backend/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RunningAdHandlerInterface defines the contract for running-ad handlers
type RunningAdHandlerInterface interface {
	CreateRunningAd(c fiber.Ctx) error
	CreateMultipleRunningAds(c fiber.Ctx) error
	GetAllRunningAds(c fiber.Ctx) error
	GetRunningAdsByApp(c fiber.Ctx) error
	GetRandomAdByApkUniqueKey(c fiber.Ctx) error
	IncrementImpression(c fiber.Ctx) error
	IncrementClick(c fiber.Ctx) error
	DeleteRunningAd(c fiber.Ctx) error
}

// RunningAdHandler handles running-ad HTTP requests
type RunningAdHandler struct {
	runningFlow businessflow.RunningAdFlow
	validator   *validator.Validate
}

func NewRunningAdHandler(runningFlow businessflow.RunningAdFlow) *RunningAdHandler {
	return &RunningAdHandler{
		runningFlow: runningFlow,
		validator:   validator.New(),
	}
}

func (h *RunningAdHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RunningAdHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateRunningAd links one ad to one app
// @Summary Create Running Ad
// @Tags RunningAds
// @Accept json
// @Produce json
// @Success 201 {object} dto.APIResponse{data=dto.RunningAdDTO} "Running ad created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "App or ad not found"
// @Router /api/v1/run-ads/create-running-ad [post]
func (h *RunningAdHandler) CreateRunningAd(c fiber.Ctx) error {
	var req dto.CreateRunningAdRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validateStruct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err)
	}

	result, err := h.runningFlow.CreateRunningAd(h.createRequestContext(c, "/api/v1/run-ads/create-running-ad"), &req)
	if err != nil {
		if businessflow.IsAppNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "App not found", "APP_NOT_FOUND", nil)
		}
		if businessflow.IsAdNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ad not found", "AD_NOT_FOUND", nil)
		}
		log.Println("Create running ad failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create running ad", "RUNNING_AD_CREATE_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Running ad created", result)
}

// CreateMultipleRunningAds places a list of ads on one app
// @Summary Create Multiple Running Ads
// @Tags RunningAds
// @Accept json
// @Produce json
// @Success 201 {object} dto.APIResponse "Running ads created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "App or ad not found"
// @Router /api/v1/run-ads/create-running-multiple-ads [post]
func (h *RunningAdHandler) CreateMultipleRunningAds(c fiber.Ctx) error {
	var req dto.CreateMultipleRunningAdsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validateStruct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err)
	}

	result, err := h.runningFlow.CreateMultipleRunningAds(h.createRequestContext(c, "/api/v1/run-ads/create-running-multiple-ads"), &req)
	if err != nil {
		if businessflow.IsAppNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "App not found", "APP_NOT_FOUND", nil)
		}
		if businessflow.IsAdNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ad not found", "AD_NOT_FOUND", nil)
		}
		log.Println("Create multiple running ads failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create running ads", "RUNNING_AD_BULK_CREATE_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Running ads created", result)
}

// GetAllRunningAds lists active placements with joined ad/app fields
// @Summary Get All Running Ads
// @Tags RunningAds
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListRunningAdsResponse} "Running ads retrieved"
// @Router /api/v1/run-ads/get-all-running-ads [get]
func (h *RunningAdHandler) GetAllRunningAds(c fiber.Ctx) error {
	rows, err := h.runningFlow.ListRunningAds(h.createRequestContext(c, "/api/v1/run-ads/get-all-running-ads"))
	if err != nil {
		log.Println("List running ads failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list running ads", "RUNNING_AD_LIST_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Running ads retrieved", dto.ListRunningAdsResponse{RunningAds: rows})
}

// GetRunningAdsByApp lists active placements of one app
// @Summary Get Running Ads By App
// @Tags RunningAds
// @Produce json
// @Success 200 {object} dto.APIResponse "Running ads retrieved"
// @Failure 404 {object} dto.APIResponse "App not found"
// @Router /api/v1/run-ads/get-running-ads-by-app/{appId} [get]
func (h *RunningAdHandler) GetRunningAdsByApp(c fiber.Ctx) error {
	appID := c.Params("appId")
	if appID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "appId is required", "VALIDATION_ERROR", nil)
	}

	rows, err := h.runningFlow.ListRunningAdsByApp(h.createRequestContext(c, "/api/v1/run-ads/get-running-ads-by-app"), appID)
	if err != nil {
		if businessflow.IsAppNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "App not found", "APP_NOT_FOUND", nil)
		}
		log.Println("List running ads by app failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to list running ads", "RUNNING_AD_LIST_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Running ads retrieved", rows)
}

// GetRandomAdByApkUniqueKey serves one random active placement to an SDK client
// @Summary Get Random Running Ad
// @Tags RunningAds
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RandomRunningAdResponse} "Random running ad"
// @Failure 404 {object} dto.APIResponse "No active placement found"
// @Router /api/v1/run-ads/apkUniqueKey-get-random-ad [get]
func (h *RunningAdHandler) GetRandomAdByApkUniqueKey(c fiber.Ctx) error {
	apkUniqueKey := strings.TrimSpace(c.Query("apk_unique_key"))
	if apkUniqueKey == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "apk_unique_key is required", "VALIDATION_ERROR", nil)
	}

	result, err := h.runningFlow.RandomAdByApp(h.createRequestContext(c, "/api/v1/run-ads/apkUniqueKey-get-random-ad"), apkUniqueKey)
	if err != nil {
		if businessflow.IsRunningAdNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No active running ad found", "RUNNING_AD_NOT_FOUND", nil)
		}
		log.Println("Get random running ad failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to pick random running ad", "RUNNING_AD_RANDOM_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "success", result)
}

// IncrementImpression records one impression across the three tables
// @Summary Increment Ad Impression
// @Tags RunningAds
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse "Impression recorded"
// @Failure 404 {object} dto.APIResponse "Running ad not found"
// @Failure 409 {object} dto.APIResponse "Running ad inactive"
// @Router /api/v1/run-ads/increment-ad-impression [put]
func (h *RunningAdHandler) IncrementImpression(c fiber.Ctx) error {
	return h.increment(c, "/api/v1/run-ads/increment-ad-impression", "impression", "Impression recorded", h.runningFlow.IncrementImpression)
}

// IncrementClick records one click across the three tables
// @Summary Increment Ad Click
// @Tags RunningAds
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse "Click recorded"
// @Failure 404 {object} dto.APIResponse "Running ad not found"
// @Failure 409 {object} dto.APIResponse "Running ad inactive"
// @Router /api/v1/run-ads/increment-ad-click [put]
func (h *RunningAdHandler) IncrementClick(c fiber.Ctx) error {
	return h.increment(c, "/api/v1/run-ads/increment-ad-click", "click", "Click recorded", h.runningFlow.IncrementClick)
}

func (h *RunningAdHandler) increment(c fiber.Ctx, endpoint, kind, successMsg string, bump func(context.Context, string) error) error {
	var req dto.IncrementRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validateStruct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err)
	}

	if err := bump(h.createRequestContext(c, endpoint), req.RunningAdID); err != nil {
		if businessflow.IsRunningAdNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Running ad not found", "RUNNING_AD_NOT_FOUND", nil)
		}
		if businessflow.IsRunningAdInactive(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Running ad is inactive", "RUNNING_AD_INACTIVE", nil)
		}
		log.Println("Counter cascade failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record ad event", "COUNTER_CASCADE_FAILED", err.Error())
	}

	middleware.RecordAdEvent(kind)
	return h.SuccessResponse(c, fiber.StatusOK, successMsg, nil)
}

// DeleteRunningAd deactivates a placement
// @Summary Delete Running Ad
// @Tags RunningAds
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse "Running ad deactivated"
// @Failure 404 {object} dto.APIResponse "Running ad not found"
// @Router /api/v1/run-ads/delete-running-ad [delete]
func (h *RunningAdHandler) DeleteRunningAd(c fiber.Ctx) error {
	var req dto.DeactivateRunningAdRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validateStruct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err)
	}

	if err := h.runningFlow.Deactivate(h.createRequestContext(c, "/api/v1/run-ads/delete-running-ad"), req.ID); err != nil {
		if businessflow.IsRunningAdNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Running ad not found", "RUNNING_AD_NOT_FOUND", nil)
		}
		log.Println("Deactivate running ad failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to deactivate running ad", "RUNNING_AD_DEACTIVATE_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Running ad deactivated", nil)
}

func (h *RunningAdHandler) validateStruct(req any) []string {
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return validationErrors
	}
	return nil
}

func (h *RunningAdHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
