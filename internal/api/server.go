package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jwtware "github.com/gofiber/jwt/v3"
	jwt "github.com/golang-jwt/jwt/v4"

	"github.com/planboardhq/planboard/internal/billing"
	"github.com/planboardhq/planboard/internal/config"
	"github.com/planboardhq/planboard/internal/pkg/supabase"
	"github.com/planboardhq/planboard/pkg/database"
)

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	db       *database.Clients
	identity supabase.Identity
	payments billing.PaymentsClient
}

// NewServer wires the HTTP app. identity and payments may be nil when the
// corresponding provider is not configured; the affected endpoints then
// answer with a fixed "not configured" error instead of crashing.
func NewServer(cfg *config.Config, db *database.Clients, identity supabase.Identity, payments billing.PaymentsClient) *Server {
	app := fiber.New()

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		db:       db,
		identity: identity,
		payments: payments,
	}

	// Routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.app.Post("/trial/claim", s.handleClaimTrial)
	s.app.Post("/auth/ensure-profile", s.handleEnsureProfile)
	s.app.Post("/auth/complete-registration", s.handleCompleteRegistration)
	s.app.Post("/admin/sync-subscription", s.handleSyncSubscription)
	s.app.Post("/waitlist", s.handleJoinWaitlist)
	s.app.Get("/waitlist", s.handleWaitlistCount)

	// Protected routes: bearer tokens are identity-provider JWTs signed with
	// the shared secret.
	sub := s.app.Group("/subscription", jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid bearer token",
			})
		},
	}))
	sub.Post("/cancel", s.handleCancelSubscription)
	sub.Post("/reactivate", s.handleReactivateSubscription)
	sub.Post("/switch-plan", s.handleSwitchPlan)
	sub.Get("/details", s.handleSubscriptionDetails)
	sub.Post("/feedback", s.handleFeedback)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

// currentUser extracts the authenticated user's id and email from the token
// the JWT middleware stored on the request.
func (s *Server) currentUser(c *fiber.Ctx) (userID, email string, ok bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return "", "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", false
	}
	userID, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	return userID, email, userID != ""
}

// paymentsUnavailable answers with the fixed degraded response when the
// payments provider is not configured.
func (s *Server) paymentsUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Payments provider is not configured",
	})
}
