// services/http.go
package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/skillpath/academy_api/services/handlers"
	"github.com/skillpath/academy_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	rateLimitSvc *RateLimitService

	contentHandler     *handlers.ContentHandler
	progressHandler    *handlers.ProgressHandler
	certificateHandler *handlers.CertificateHandler
	analyticsHandler   *handlers.AnalyticsHandler
	authHandler        *handlers.AuthHandler

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	monitoringSvc := svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.contentHandler = handlers.NewContentHandler(svc.Service(CONTENT_SVC).(*ContentService))
	svc.progressHandler = handlers.NewProgressHandler(
		svc.Service(PROGRESS_SVC).(*ProgressService),
		svc.Service(SCORING_SVC).(*ScoringService),
	)
	svc.certificateHandler = handlers.NewCertificateHandler(svc.Service(CERTIFICATE_SVC).(*CertificateService))
	svc.analyticsHandler = handlers.NewAnalyticsHandler(svc.Service(ANALYTICS_SVC).(*AnalyticsService))
	svc.authHandler = handlers.NewAuthHandler(svc.authSvc)

	app := fiber.New(fiber.Config{
		AppName:      "academy_api",
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(monitoringSvc))
	app.Use(svc.rateLimitSvc.IPRateLimit())

	app.Get("/ping", svc.ping)

	svc.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, http.StatusNotFound, "Page not found", nil)
	})

	svc.server = app
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	v1 := app.Group("/api/v1")

	v1.Get("/ping", svc.ping)

	// Auth
	v1.Post("/login", svc.rateLimitSvc.RateLimit("login"), svc.authHandler.Login)
	v1.Post("/refresh", svc.authHandler.RefreshToken)
	v1.Post("/logout", svc.authSvc.RequiredAuth(), svc.authHandler.Logout)

	// Content reads, public with an optional identity for editors
	content := v1.Group("/content", svc.authSvc.OptionalAuth())
	content.Get("/paths/:id/tree", svc.contentHandler.GetPathTree)
	content.Get("/challenges/:id", svc.contentHandler.GetChallenge)
	content.Get("/:kind", svc.contentHandler.ListContent)
	content.Get("/:kind/:id", svc.contentHandler.GetContent)

	// Content writes, editors only
	editorial := v1.Group("/content",
		svc.authSvc.RequiredAuth(), svc.authSvc.RequireRole(shared.RoleEditor))
	editorial.Post("/challenges", svc.contentHandler.CreateChallenge)
	editorial.Post("/:kind", svc.contentHandler.CreateContent)
	editorial.Patch("/:kind/:id", svc.contentHandler.UpdateContent)

	// Learner progress
	progress := v1.Group("/progress", svc.authSvc.RequiredAuth())
	progress.Post("/submit", svc.rateLimitSvc.RateLimit("submit"), svc.progressHandler.SubmitChallenge)
	progress.Post("/", svc.progressHandler.MarkProgress)
	progress.Get("/", svc.progressHandler.ListProgress)
	progress.Get("/xp", svc.progressHandler.GetUserXP)
	progress.Get("/paths/:id", svc.progressHandler.PathProgress)

	// Certificates
	v1.Get("/certificates/verify/:code",
		svc.rateLimitSvc.RateLimit("verify_cert"), svc.certificateHandler.VerifyCertificate)
	certificates := v1.Group("/certificates", svc.authSvc.RequiredAuth())
	certificates.Post("/", svc.rateLimitSvc.RateLimit("issue_cert"), svc.certificateHandler.IssueCertificate)
	certificates.Get("/", svc.certificateHandler.ListCertificates)

	// Analytics
	v1.Get("/analytics/leaderboard", svc.analyticsHandler.Leaderboard)
	v1.Get("/analytics/me", svc.authSvc.RequiredAuth(), svc.analyticsHandler.UserSummary)

	// Admin
	admin := v1.Group("/admin", svc.authSvc.RequiredAuth(), svc.authSvc.RequireRole(shared.RoleAdmin))
	admin.Get("/analytics", svc.analyticsHandler.PlatformSummary)
	admin.Get("/cache", svc.contentHandler.CacheStats)
	admin.Post("/cache/flush", svc.contentHandler.FlushCache)
	admin.Post("/certificates/:id/revoke", svc.certificateHandler.RevokeCertificate)
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

// handleError maps service errors onto the response envelope.
func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
