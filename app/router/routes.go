// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirphl/partyline/app/dto"
	"github.com/amirphl/partyline/app/handlers"
	"github.com/amirphl/partyline/app/middleware"
	"github.com/amirphl/partyline/config"
	_ "github.com/amirphl/partyline/docs"
	"github.com/amirphl/partyline/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

const (
	apiPrefix  = "/api/v1"
	healthPath = apiPrefix + "/health"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth      handlers.AuthHandlerInterface
	Profile   handlers.ProfileHandlerInterface
	Recipient handlers.RecipientHandlerInterface
	Event     handlers.EventHandlerInterface
	Message   handlers.MessageHandlerInterface
	Webhook   handlers.WebhookHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
	logger         *slog.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *slog.Logger,
) *FiberRouter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &FiberRouter{
		cfg:            cfg,
		handlers:       h,
		authMiddleware: authMiddleware,
		logger:         logger.With("component", "router"),
	}

	bodyLimit := cfg.Server.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 4 * 1024 * 1024
	}
	r.app = fiber.New(fiber.Config{
		AppName:      "Partyline API",
		ServerHeader: "Partyline",
		ErrorHandler: r.errorHandler,
		BodyLimit:    bodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.logger.Info("Setting up routes")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.metricsPath(), adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group(apiPrefix)

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	if r.cfg.Deployment.IsDevelopment() {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		r.logger.Info("API documentation enabled for development")
	}

	// Provider webhooks carry no bearer token and must not be throttled per IP
	webhooks := api.Group("/webhooks/messaging")
	webhooks.Post("/status", r.handlers.Webhook.StatusCallback)
	webhooks.Post("/inbound", r.handlers.Webhook.InboundMessage)

	limited := api.Group("", r.rateLimiter(r.cfg.Security.GlobalRateLimit, func(c fiber.Ctx) bool {
		path := c.Path()
		return path == healthPath || strings.HasPrefix(path, apiPrefix+"/webhooks/")
	}))

	auth := limited.Group("/auth", r.rateLimiter(r.cfg.Security.AuthRateLimit, nil))
	auth.Post("/signup", r.handlers.Auth.Signup)
	auth.Post("/login", r.handlers.Auth.Login)
	auth.Post("/refresh", r.handlers.Auth.RefreshToken)
	auth.Post("/logout", r.authMiddleware.Authenticate(), r.handlers.Auth.Logout)

	protected := limited.Group("", r.authMiddleware.Authenticate())

	protected.Get("/profile", r.handlers.Profile.GetProfile)
	protected.Put("/profile", r.handlers.Profile.UpdateProfile)

	recipients := protected.Group("/recipients")
	recipients.Get("/", r.handlers.Recipient.ListRecipients)
	recipients.Post("/", r.handlers.Recipient.CreateRecipient)
	recipients.Put("/:id", r.handlers.Recipient.UpdateRecipient)
	recipients.Delete("/:id", r.handlers.Recipient.DeleteRecipient)

	events := protected.Group("/events")
	events.Get("/", r.handlers.Event.ListEvents)
	events.Post("/", r.handlers.Event.CreateEvent)
	events.Get("/:uuid", r.handlers.Event.GetEvent)
	events.Put("/:uuid", r.handlers.Event.UpdateEvent)
	events.Delete("/:uuid", r.handlers.Event.DeleteEvent)
	events.Post("/:uuid/dispatch", r.handlers.Event.DispatchEvent)
	events.Get("/:uuid/messages", r.handlers.Event.ListEventMessages)

	messages := protected.Group("/messages")
	messages.Get("/export", r.handlers.Message.ExportSentMessages)
	messages.Post("/send", r.handlers.Message.SendMessage)
	messages.Post("/log", r.handlers.Message.LogSentMessage)
	messages.Post("/generate", r.handlers.Message.GenerateMessage)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	r.logger.Info("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	sec := r.cfg.Security
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             sec.XFrameOptions,
		HSTSMaxAge:                sec.HSTSMaxAge,
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     sec.CSPPolicy,
		ReferrerPolicy:            sec.ReferrerPolicy,
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     sec.AllowedOrigins,
		AllowMethods:     sec.AllowedMethods,
		AllowHeaders:     sec.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition", "X-Archive-Key"},
		AllowCredentials: sec.AllowCredentials,
		MaxAge:           sec.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				// xlsx is already zip-compressed
				return strings.HasSuffix(c.Path(), "/messages/export")
			},
		}))
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == healthPath
			},
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics(r.metricsPath(), healthPath))
	}

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("panic recovered",
				"request_id", requestIDOf(c),
				"error", e,
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
			)
		},
	}))
}

// rateLimiter builds an IP-keyed limiter; max <= 0 disables it
func (r *FiberRouter) rateLimiter(max int, next func(c fiber.Ctx) bool) fiber.Handler {
	if max <= 0 {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	window := r.cfg.Security.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
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
		Next: next,
	})
}

func (r *FiberRouter) metricsPath() string {
	if r.cfg.Metrics.Path == "" {
		return "/metrics"
	}
	return r.cfg.Metrics.Path
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("Starting server", "address", address)
	if r.cfg.Security.TLSEnabled {
		return r.app.Listen(address, fiber.ListenConfig{
			CertFile:    r.cfg.Security.TLSCertFile,
			CertKeyFile: r.cfg.Security.TLSKeyFile,
		})
	}
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
			"status":      "ok",
			"timestamp":   utils.UTCNow().Unix(),
			"version":     r.cfg.Deployment.Version,
			"environment": r.cfg.Deployment.Environment,
			"service":     "partyline-api",
		},
	})
}

// Serve Swagger JSON specification
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		r.logger.Error("failed to render swagger doc", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

// Serve Swagger UI HTML page
func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	c.Set("Content-Type", "text/html")
	return c.SendString(swaggerUIPage)
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Partyline API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestIDOf(c),
			},
		},
	})
}

// Global error handler
func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errCode := "INTERNAL_ERROR"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
			errCode = "REQUEST_ERROR"
		}
	}

	r.logger.Error("request failed",
		"status", code,
		"error", err,
		"path", c.Path(),
		"request_id", requestIDOf(c),
	)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestIDOf(c),
			},
		},
	})
}

func requestIDOf(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}
