// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/app/handlers"
	"github.com/ads-sdk/backend/app/middleware"
	"github.com/ads-sdk/backend/config"
	"github.com/ads-sdk/backend/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app              *fiber.App
	adHandler        handlers.AdHandlerInterface
	registerHandler  handlers.RegisterAppHandlerInterface
	runningAdHandler handlers.RunningAdHandlerInterface
	cfg              *config.Config
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	adHandler handlers.AdHandlerInterface,
	registerHandler handlers.RegisterAppHandlerInterface,
	runningAdHandler handlers.RunningAdHandlerInterface,
	cfg *config.Config,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Ads SDK API",
		ServerHeader: "Ads-SDK",
		ErrorHandler: errorHandler,
		BodyLimit:    int(cfg.Upload.MaxFileSize) + 1024*1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:              app,
		adHandler:        adHandler,
		registerHandler:  registerHandler,
		runningAdHandler: runningAdHandler,
		cfg:              cfg,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Liveness probe
	r.app.Get("/health-ping", r.healthPing)

	// Prometheus exposition
	if r.cfg.Metrics.Enabled {
		r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Uploaded assets served back by filename
	r.app.Get("/images/*", r.serveAsset(r.cfg.Upload.ImagesDir))
	r.app.Get("/videos/*", r.serveAsset(r.cfg.Upload.VideosDir))

	api := r.app.Group("/api/v1")

	ads := api.Group("/ads")
	ads.Post("/upload-ad", r.adHandler.UploadAd)
	ads.Post("/upload-multiple-ads", r.adHandler.UploadMultipleAds)
	ads.Get("/get-all-ads", r.adHandler.GetAllAds)
	ads.Get("/get-random-ad", r.adHandler.GetRandomAd)

	apps := api.Group("/apps")
	apps.Post("/register-app", r.registerHandler.RegisterApp)
	apps.Get("/getAllApps", r.registerHandler.GetAllApps)

	runAds := api.Group("/run-ads")
	runAds.Post("/create-running-ad", r.runningAdHandler.CreateRunningAd)
	runAds.Post("/create-running-multiple-ads", r.runningAdHandler.CreateMultipleRunningAds)
	runAds.Get("/get-all-running-ads", r.runningAdHandler.GetAllRunningAds)
	runAds.Get("/get-running-ads-by-app/:appId", r.runningAdHandler.GetRunningAdsByApp)
	runAds.Get("/apkUniqueKey-get-random-ad", r.runningAdHandler.GetRandomAdByApkUniqueKey)
	runAds.Put("/increment-ad-impression", r.runningAdHandler.IncrementImpression)
	runAds.Put("/increment-ad-click", r.runningAdHandler.IncrementClick)
	runAds.Delete("/delete-running-ad", r.runningAdHandler.DeleteRunningAd)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS middleware; SDK clients call from arbitrary app contexts
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Server.AllowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for media responses
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/")
		},
	}))

	// Request metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/health-ping" || c.Path() == "/metrics"
		},
	}))

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// serveAsset returns a handler serving files from dir by basename only, so
// path traversal in the wildcard cannot escape the upload directory.
func (r *FiberRouter) serveAsset(dir string) fiber.Handler {
	return func(c fiber.Ctx) error {
		name := filepath.Base(c.Params("*"))
		if name == "." || name == "/" || name == "" {
			return c.Status(fiber.StatusBadRequest).SendString("invalid asset name")
		}
		return c.SendFile(filepath.Join(dir, name))
	}
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Liveness probe endpoint
func (r *FiberRouter) healthPing(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": "Ads SDK server ====> running",
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
