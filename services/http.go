package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/services/handlers"
	"github.com/tandemdaily/api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc        *AuthService
	rateLimitSvc   *RateLimitService
	contentSvc     *ContentService
	deliverySvc    *DeliveryService
	progressSvc    *ProgressService
	leaderboardSvc *LeaderboardService
	coopSvc        *CoopService
	mediaSvc       *MediaService
	aiSvc          *AIService
	accountSvc     *AccountService

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
	svc.contentSvc = svc.Service(CONTENT_SVC).(*ContentService)
	svc.deliverySvc = svc.Service(DELIVERY_SVC).(*DeliveryService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.leaderboardSvc = svc.Service(LEADERBOARD_SVC).(*LeaderboardService)
	svc.coopSvc = svc.Service(COOP_SVC).(*CoopService)
	svc.mediaSvc = svc.Service(MEDIA_SVC).(*MediaService)
	svc.aiSvc = svc.Service(AI_SVC).(*AIService)
	svc.accountSvc = svc.Service(ACCOUNT_SVC).(*AccountService)

	app := fiber.New(fiber.Config{
		ErrorHandler: svc.handleError,
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(securityHeaders())
	app.Use(MonitoringMiddleware())

	svc.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})

	svc.server = app

	log.Info().Int("port", svc.port).Msg("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// ==================== ROUTES ====================

func (svc *HttpService) registerRoutes(app *fiber.App) {
	authHandler := handlers.NewAuthHandler(svc.authSvc, svc.mediaSvc)
	puzzleHandler := handlers.NewPuzzleHandler(svc.deliverySvc, svc.contentSvc)
	statsHandler := handlers.NewStatsHandler(svc.progressSvc)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.leaderboardSvc)
	coopHandler := handlers.NewCoopHandler(svc.coopSvc)
	adminHandler := handlers.NewAdminHandler(svc.contentSvc, svc.aiSvc, svc.mediaSvc)
	accountHandler := handlers.NewAccountHandler(svc.accountSvc)

	app.Get("/ping", svc.ping)

	// Public routes accept any origin; admin routes are allowlisted below.
	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	api.Use(svc.rateLimitSvc.RateLimit("general"))

	// ==================== AUTH ====================

	api.Post("/register", svc.rateLimitSvc.RateLimit("auth"), authHandler.Register)
	api.Post("/login", svc.rateLimitSvc.RateLimit("auth"), authHandler.Login)

	api.Get("/avatars", authHandler.ListAvatars)
	api.Get("/profile", svc.authSvc.RequiredAuth(), authHandler.GetProfile)
	api.Put("/profile", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.RateLimit("write"), authHandler.UpdateProfile)

	// ==================== DELIVERY ====================

	// Tandem keeps its legacy mount at the API root.
	api.Get("/puzzle", puzzleHandler.GetDaily(shared.GameTandem))
	api.Post("/puzzle", puzzleHandler.AnonymousPing)
	api.Get("/puzzles/paginated", puzzleHandler.GetPaginated(shared.GameTandem))
	api.Post("/puzzles/batch", puzzleHandler.GetBatch(shared.GameTandem))

	for _, game := range []string{shared.GameCryptic, shared.GameMini, shared.GameReel, shared.GameSoup} {
		g := api.Group("/" + game)
		g.Get("/puzzle", puzzleHandler.GetDaily(game))
		g.Get("/puzzles/paginated", puzzleHandler.GetPaginated(game))
		g.Post("/puzzles/batch", puzzleHandler.GetBatch(game))
	}

	// ==================== PROGRESS ====================

	for _, game := range shared.Games {
		api.Post("/"+game+"/complete",
			svc.authSvc.RequiredAuth(), svc.rateLimitSvc.RateLimit("write"), statsHandler.Complete(game))
	}

	statsRoutes := map[string]string{
		shared.GameTandem:  "/user-stats",
		shared.GameCryptic: "/user-cryptic-stats",
		shared.GameMini:    "/user-mini-stats",
		shared.GameReel:    "/user-reel-stats",
		shared.GameSoup:    "/user-soup-stats",
	}
	for game, path := range statsRoutes {
		api.Get(path, svc.authSvc.RequiredAuth(), statsHandler.GetStats(game))
		api.Post(path, svc.authSvc.RequiredAuth(), svc.rateLimitSvc.RateLimit("write"), statsHandler.MergeStats(game))
	}

	// ==================== LEADERBOARDS ====================

	lb := api.Group("/leaderboard")
	lb.Get("/daily", svc.authSvc.OptionalAuth(), leaderboardHandler.GetDaily)
	lb.Get("/streak", svc.authSvc.OptionalAuth(), leaderboardHandler.GetStreak)
	lb.Post("/daily", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.LeaderboardCooldown(), leaderboardHandler.SubmitDaily)
	lb.Post("/streak", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.LeaderboardCooldown(), leaderboardHandler.SubmitStreak)
	lb.Put("/preference", svc.authSvc.RequiredAuth(), leaderboardHandler.SetPreference)

	// ==================== CO-OP ====================

	coop := api.Group("/daily-alchemy/coop", svc.authSvc.RequiredAuth())
	coop.Post("/create", svc.rateLimitSvc.RateLimit("write"), coopHandler.Create)
	coop.Post("/join", svc.rateLimitSvc.RateLimit("write"), coopHandler.Join)
	coop.Post("/session", coopHandler.Move)
	coop.Get("/session/:id", coopHandler.GetSession)
	coop.Post("/session/:id/complete", coopHandler.Complete)
	coop.Post("/session/:id/abandon", coopHandler.Abandon)
	coop.Post("/save", coopHandler.Save)

	// ==================== SUBMISSIONS ====================

	api.Post("/puzzles/submit",
		svc.authSvc.RequiredAuth(),
		svc.authSvc.RequireSubscription(),
		svc.rateLimitSvc.RateLimit("puzzle_submission"),
		puzzleHandler.SubmitPuzzle)

	// ==================== ACCOUNT ====================

	api.Delete("/account/delete", svc.authSvc.RequiredAuth(), accountHandler.DeleteAccount)

	// ==================== ADMIN ====================

	admin := api.Group("/admin", adminCORS(), adminCSP())

	admin.Post("/login", svc.rateLimitSvc.RateLimit("auth"), authHandler.AdminLogin)

	guarded := admin.Group("", svc.authSvc.RequireAdmin())

	for _, game := range shared.Games {
		g := guarded.Group("/" + game)
		g.Get("/puzzles", adminHandler.ListPuzzles(game))
		g.Post("/puzzles", svc.rateLimitSvc.RateLimit("write"), adminHandler.CreatePuzzle(game))
		g.Put("/puzzles/:id", svc.rateLimitSvc.RateLimit("write"), adminHandler.UpdatePuzzle)
		g.Delete("/puzzles/:id", svc.rateLimitSvc.RateLimit("write"), adminHandler.DeletePuzzle)
	}

	ai := svc.rateLimitSvc.RateLimit("ai_generation")
	guarded.Post("/tandem/suggest-themes", ai, adminHandler.SuggestThemes)
	guarded.Post("/tandem/generate-hints", ai, adminHandler.GenerateHints)
	guarded.Post("/tandem/regenerate-emoji", ai, adminHandler.RegenerateEmojiPair)
	guarded.Post("/reel/suggest-connections", ai, adminHandler.SuggestConnections)
	guarded.Post("/mini/suggest-words", ai, adminHandler.SuggestCrosswordWords)
	guarded.Post("/cryptic/assess-difficulty", ai, adminHandler.AssessCrypticDifficulty)

	guarded.Get("/submissions", adminHandler.ListSubmissions)
	guarded.Post("/submissions/:id/review", svc.rateLimitSvc.RateLimit("write"), adminHandler.ReviewSubmission)

	guarded.Post("/avatars", svc.rateLimitSvc.RateLimit("write"), adminHandler.CreateAvatar)
	guarded.Delete("/avatars/:id", svc.rateLimitSvc.RateLimit("write"), adminHandler.DeleteAvatar)

	guarded.Post("/subscriptions", svc.rateLimitSvc.RateLimit("write"), accountHandler.GrantSubscription)
	guarded.Delete("/subscriptions/:userId", svc.rateLimitSvc.RateLimit("write"), accountHandler.RevokeSubscription)
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

// ==================== MIDDLEWARE ====================

// securityHeaders applies the baseline response headers on every route.
func securityHeaders() fiber.Handler {
	production := os.Getenv("ENVIRONMENT") == "production"

	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "SAMEORIGIN")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if production {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		return c.Next()
	}
}

// adminCORS allowlists origins for the editorial console and allows
// credentialed requests so the CSRF cookie flows.
func adminCORS() fiber.Handler {
	origins := os.Getenv("ADMIN_CORS_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, x-csrf-token",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
	})
}

func adminCSP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		return c.Next()
	}
}

// ==================== ERRORS ====================

// handleError is the single point where errors become responses. Anything
// that is not an AppError, a validation error, or a known fiber error is
// sanitized to a plain 500.
func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		resp := dto.CreateValidationErrorResponse(validationErrs)
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ResponseNotFound(c)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message := fiberErr.Message
		if fiberErr.Code >= http.StatusInternalServerError {
			message = "Internal Server Error"
		}
		return shared.ResponseJSON(c, fiberErr.Code, message, nil)
	}

	// Body-parser failures surface as plain errors; treat them as bad input.
	if strings.Contains(err.Error(), "unexpected end of JSON") ||
		strings.Contains(err.Error(), "invalid character") {
		return shared.ResponseBadRequest(c, "Malformed request body")
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	return shared.ResponseJSON(c, http.StatusInternalServerError, "Internal Server Error", nil)
}
