package handlers

import (
	"context"
	"log"
	"time"

	"github.com/ads-sdk/backend/app/dto"
	businessflow "github.com/ads-sdk/backend/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RegisterAppHandlerInterface defines the contract for app registration handlers
type RegisterAppHandlerInterface interface {
	RegisterApp(c fiber.Ctx) error
	GetAllApps(c fiber.Ctx) error
}

// RegisterAppHandler handles app registration HTTP requests
type RegisterAppHandler struct {
	registerFlow businessflow.RegisterAppFlow
	validator    *validator.Validate
}

func NewRegisterAppHandler(registerFlow businessflow.RegisterAppFlow) *RegisterAppHandler {
	return &RegisterAppHandler{
		registerFlow: registerFlow,
		validator:    validator.New(),
	}
}

func (h *RegisterAppHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RegisterAppHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RegisterApp handles the idempotent app registration
// @Summary Register App
// @Description Register an app once per (apk key, package name); repeated calls return the stored record
// @Tags Apps
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RegisterAppResponse} "App already registered"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterAppResponse} "App registered successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 409 {object} dto.APIResponse "No ads available to bootstrap the app"
// @Router /api/v1/apps/register-app [post]
func (h *RegisterAppHandler) RegisterApp(c fiber.Ctx) error {
	var req dto.RegisterAppRequest
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

	result, err := h.registerFlow.RegisterApp(h.createRequestContext(c, "/api/v1/apps/register-app"), &req)
	if err != nil {
		if businessflow.IsNoAdsAvailable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "No ads available in the system", "NO_ADS_AVAILABLE", nil)
		}
		log.Println("Register app failed", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to register app", "APP_REGISTER_FAILED", err.Error())
	}

	if result.Existing {
		return h.SuccessResponse(c, fiber.StatusOK, "App already registered", result)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "App registered successfully", result)
}

// GetAllApps lists live registered apps
// @Summary Get All Apps
// @Tags Apps
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListAppsResponse} "Apps retrieved successfully"
// @Router /api/v1/apps/getAllApps [get]
func (h *RegisterAppHandler) GetAllApps(c fiber.Ctx) error {
	apps, err := h.registerFlow.ListApps(h.createRequestContext(c, "/api/v1/apps/getAllApps"))
	if err != nil {
		log.Println("List apps failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list apps", "APP_LIST_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Apps retrieved successfully", dto.ListAppsResponse{Apps: apps})
}

func (h *RegisterAppHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
