package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ads-sdk/backend/app/dto"
	businessflow "github.com/ads-sdk/backend/business_flow"
	"github.com/ads-sdk/backend/config"
	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// AdHandlerInterface defines the contract for ad handlers
type AdHandlerInterface interface {
	UploadAd(c fiber.Ctx) error
	UploadMultipleAds(c fiber.Ctx) error
	GetAllAds(c fiber.Ctx) error
	GetRandomAd(c fiber.Ctx) error
}

// AdHandler handles ad-related HTTP requests
type AdHandler struct {
	adFlow    businessflow.AdFlow
	upload    config.UploadConfig
	validator *validator.Validate
}

func NewAdHandler(adFlow businessflow.AdFlow, upload config.UploadConfig) *AdHandler {
	return &AdHandler{
		adFlow:    adFlow,
		upload:    upload,
		validator: validator.New(),
	}
}

func (h *AdHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// UploadAd handles the multipart ad upload
// @Summary Upload Ad
// @Tags Ads
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} dto.APIResponse{data=dto.AdDTO} "Ad created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/ads/upload-ad [post]
func (h *AdHandler) UploadAd(c fiber.Ctx) error {
	appURL := strings.TrimSpace(c.FormValue("appUrl"))
	if appURL == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "appUrl is required", "VALIDATION_ERROR", nil)
	}
	isBanner := false
	if v := c.FormValue("isBanner"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "isBanner must be 0 or 1", "VALIDATION_ERROR", nil)
		}
		isBanner = n != 0
	}

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "No image file provided", "INVALID_FILE", nil)
	}
	if !models.AllowedAssetExtension(fileHeader.Filename) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File type not allowed", "INVALID_FILE_TYPE", nil)
	}
	if h.upload.MaxFileSize > 0 && fileHeader.Size > h.upload.MaxFileSize {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File too large", "FILE_TOO_LARGE", nil)
	}

	storedName, storedPath, err := h.storeAsset(fileHeader)
	if err != nil {
		log.Println("Failed to store uploaded asset", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store uploaded file", "UPLOAD_FAILED", err.Error())
	}

	result, err := h.adFlow.CreateAd(h.createRequestContext(c, "/api/v1/ads/upload-ad"), storedName, appURL, isBanner)
	if err != nil {
		// The row was rejected, so the stored file must not stay servable.
		if rmErr := os.Remove(storedPath); rmErr != nil {
			log.Println("Failed to remove rejected asset", rmErr)
		}
		log.Println("Upload ad failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create ad", "AD_CREATE_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Ad created successfully", result)
}

// UploadMultipleAds handles bulk ad creation
// @Summary Upload Multiple Ads
// @Tags Ads
// @Accept json
// @Produce json
// @Success 201 {object} dto.APIResponse "Ads created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Router /api/v1/ads/upload-multiple-ads [post]
func (h *AdHandler) UploadMultipleAds(c fiber.Ctx) error {
	var req dto.UploadMultipleAdsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	count, err := h.adFlow.CreateMultipleAds(h.createRequestContext(c, "/api/v1/ads/upload-multiple-ads"), req.AdsData)
	if err != nil {
		log.Println("Upload multiple ads failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create ads", "AD_BULK_CREATE_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Ads created successfully", fiber.Map{"created": count})
}

// GetAllAds lists live ads
// @Summary Get All Ads
// @Tags Ads
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListAdsResponse} "Ads retrieved successfully"
// @Router /api/v1/ads/get-all-ads [get]
func (h *AdHandler) GetAllAds(c fiber.Ctx) error {
	ads, err := h.adFlow.ListAds(h.createRequestContext(c, "/api/v1/ads/get-all-ads"))
	if err != nil {
		log.Println("List ads failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list ads", "AD_LIST_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ads retrieved successfully", dto.ListAdsResponse{Ads: ads})
}

// GetRandomAd returns one uniformly random live ad
// @Summary Get Random Ad
// @Tags Ads
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RandomAdResponse} "Random ad retrieved"
// @Failure 404 {object} dto.APIResponse "No ads available"
// @Router /api/v1/ads/get-random-ad [get]
func (h *AdHandler) GetRandomAd(c fiber.Ctx) error {
	ad, err := h.adFlow.RandomAd(h.createRequestContext(c, "/api/v1/ads/get-random-ad"))
	if err != nil {
		if businessflow.IsNoAdsAvailable(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No ads available in the system", "NO_ADS_AVAILABLE", nil)
		}
		log.Println("Get random ad failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to pick random ad", "AD_RANDOM_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Random ad retrieved", dto.RandomAdResponse{Ad: ad})
}

// storeAsset writes the uploaded file into the images or videos directory,
// routed by sniffed content type, and returns the stored basename and full
// path. The name is regenerated so a hostile filename never reaches the
// filesystem.
func (h *AdHandler) storeAsset(fileHeader *multipart.FileHeader) (string, string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	contentType := http.DetectContentType(head[:n])

	dir := h.upload.ImagesDir
	if strings.HasPrefix(contentType, "video/") {
		dir = h.upload.VideosDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create asset file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head[:n]); err != nil {
		return "", "", fmt.Errorf("failed to write asset file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return "", "", fmt.Errorf("failed to write asset file: %w", err)
	}
	return name, path, nil
}

func (h *AdHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
