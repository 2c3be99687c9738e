// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/app/handlers"
	"github.com/wikiforge/account-console/app/middleware"
	"github.com/wikiforge/account-console/config"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	editHandler    handlers.AccountEditHandlerInterface
	closeHandler   handlers.CloseAccountHandlerInterface
	auditHandler   handlers.AuditHandlerInterface
	authMiddleware *middleware.AuthMiddleware
	accessGate     *middleware.AccessGate
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	editHandler handlers.AccountEditHandlerInterface,
	closeHandler handlers.CloseAccountHandlerInterface,
	auditHandler handlers.AuditHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	accessGate *middleware.AccessGate,
) Router {
	// Configure Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "WikiForge Account Console",
		ServerHeader: "Account-Console",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		editHandler:    editHandler,
		closeHandler:   closeHandler,
		auditHandler:   auditHandler,
		authMiddleware: authMiddleware,
		accessGate:     accessGate,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// Prometheus scrape endpoint
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Apply general rate limiting to all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	// Self-service closure for authenticated non-staff callers. Blocked
	// accounts are refused outright.
	api.Post("/close-account",
		r.closeHandler.CloseOwnAccount,
		r.authMiddleware.Authenticate(),
		r.accessGate.RequireSelf(),
		r.accessGate.RefuseBlocked(),
		middleware.TrackMutation(models.AuditActionCloseAccount),
	)

	// Staff console routes with stricter rate limiting
	staff := api.Group("/staff")

	// Apply stricter rate limiting to staff endpoints (aligned with nginx)
	staff.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.StaffRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))

	staff.Use(r.authMiddleware.Authenticate())
	staff.Use(r.accessGate.RequireStaff())
	staff.Use(r.accessGate.RefuseBlocked())

	// Account lookup
	staff.Get("/accounts/:name", r.editHandler.GetAccount)
	staff.Get("/accounts/:name/close-requested", r.editHandler.CloseRequested)

	// Account mutations
	staff.Post("/accounts/email", r.editHandler.SetEmail, middleware.TrackMutation(models.AuditActionMailChange))
	staff.Post("/accounts/password", r.editHandler.SetPassword, middleware.TrackMutation(models.AuditActionPasswordChange))
	staff.Post("/accounts/realname", r.editHandler.SetRealName, middleware.TrackMutation(models.AuditActionRealNameChange))
	staff.Post("/accounts/close", r.closeHandler.CloseAccount, middleware.TrackMutation(models.AuditActionCloseAccount))
	staff.Post("/accounts/clear-unsubscribe", r.editHandler.ClearUnsubscribe, middleware.TrackMutation("clearunsub"))
	staff.Post("/accounts/clear-disable", r.editHandler.ClearDisable, middleware.TrackMutation("cleardisable"))
	staff.Post("/accounts/toggle-adoption", r.editHandler.ToggleAdoption, middleware.TrackMutation("toggleadopt"))

	// Audit log review
	staff.Get("/audit", r.auditHandler.ListAudit)
	staff.Get("/audit/export", r.auditHandler.ExportAudit)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
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
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.AllowedOrigins,
		AllowMethods: r.cfg.Security.AllowedMethods,
		AllowHeaders: r.cfg.Security.AllowedHeaders,
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
		},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for certain content types
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/")
		},
	}))

	// Cache middleware for static content
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			// Only cache GET requests to the health endpoint
			return c.Method() != "GET" || !contains(c.Path(), "/health")
		},
		Expiration: 30 * time.Minute,
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
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

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	// Add security headers
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "Account-Console")

	// Continue to next middleware
	return c.Next()
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

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "account-console",
		},
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
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
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

// Helper functions

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
