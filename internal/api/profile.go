package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/planboardhq/planboard/internal/billing"
	"github.com/planboardhq/planboard/internal/models"
)

const profileColumns = `id, email, display_name, plan, trial_start_date, trial_end_date,
	trial_duration_days, has_used_trial, is_lifetime_free, stripe_customer_id,
	stripe_subscription_id, billing_interval, subscription_start_date,
	subscription_end_date, created_at, updated_at`

// handleClaimTrial grants a trial window exactly once per user. The claim is
// a single conditional upsert: the store's conflict handling is what makes
// two simultaneous claims safe, not any in-process coordination.
func (s *Server) handleClaimTrial(c *fiber.Ctx) error {
	var req models.ClaimTrialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	if s.identity == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Identity provider is not configured",
		})
	}

	user, err := s.identity.GetUser(req.UserID)
	if err != nil {
		slog.Info("Trial claim for unknown user", "user_id", req.UserID)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	start, end := billing.TrialWindow(time.Now(), models.DefaultTrialDurationDays)

	// Insert a fresh profile with the trial window, or set the window on an
	// existing profile only when no trial was ever started. When the WHERE
	// clause rejects the update the statement returns no row, which is the
	// already-claimed signal.
	claimQuery := `
		INSERT INTO profiles (id, email, display_name, plan, trial_start_date, trial_end_date, trial_duration_days, has_used_trial)
		VALUES ($1, $2, $3, 'free', $4, $5, $6, FALSE)
		ON CONFLICT (id) DO UPDATE
		SET plan = 'free',
			trial_start_date = EXCLUDED.trial_start_date,
			trial_end_date = EXCLUDED.trial_end_date,
			updated_at = now()
		WHERE profiles.trial_start_date IS NULL
		RETURNING ` + profileColumns

	var profile models.Profile
	err = s.db.DB.Get(&profile, claimQuery,
		req.UserID, user.Email, user.DisplayName, start, end, models.DefaultTrialDurationDays,
	)
	if err == nil {
		slog.Info("Trial claimed", "user_id", req.UserID, "trial_end", end)
		return c.JSON(fiber.Map{
			"success":        true,
			"alreadyClaimed": false,
			"profile":        profile.Trial(),
		})
	}

	if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("Failed to claim trial", "error", err, "user_id", req.UserID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to claim trial",
			"details": err.Error(),
		})
	}

	// Already claimed: return the existing state untouched.
	err = s.db.DB.Get(&profile, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", req.UserID)
	if err != nil {
		slog.Error("Failed to fetch claimed profile", "error", err, "user_id", req.UserID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch profile",
			"details": err.Error(),
		})
	}

	slog.Info("Trial already claimed", "user_id", req.UserID)
	return c.JSON(fiber.Map{
		"success":        true,
		"alreadyClaimed": true,
		"profile":        profile.Trial(),
	})
}

// handleEnsureProfile guarantees a minimal profile row exists without
// granting a trial, so a later explicit claim can run.
func (s *Server) handleEnsureProfile(c *fiber.Ctx) error {
	var req models.EnsureProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	if s.identity == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Identity provider is not configured",
		})
	}

	user, err := s.identity.GetUser(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	insertQuery := `
		INSERT INTO profiles (id, email, display_name, plan)
		VALUES ($1, $2, $3, 'free')
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + profileColumns

	var profile models.Profile
	err = s.db.DB.Get(&profile, insertQuery, req.UserID, user.Email, user.DisplayName)
	if err == nil {
		slog.Info("Profile created", "user_id", req.UserID)
		return c.JSON(fiber.Map{
			"success": true,
			"existed": false,
			"profile": profile,
		})
	}

	if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("Failed to ensure profile", "error", err, "user_id", req.UserID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to ensure profile",
			"details": err.Error(),
		})
	}

	// Row already present: return it as-is, whatever its trial state.
	err = s.db.DB.Get(&profile, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", req.UserID)
	if err != nil {
		slog.Error("Failed to fetch existing profile", "error", err, "user_id", req.UserID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch profile",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"existed": true,
		"profile": profile,
	})
}

// handleCompleteRegistration materializes a profile right after identity
// verification, with the trial duration taken from signup metadata.
func (s *Server) handleCompleteRegistration(c *fiber.Ctx) error {
	var req models.CompleteRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	if s.identity == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Identity provider is not configured",
		})
	}

	user, err := s.identity.GetUser(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	start, end := billing.TrialWindow(time.Now(), user.TrialDurationDays)

	// Upsert keyed on the user id so repeated completion calls are safe.
	upsertQuery := `
		INSERT INTO profiles (id, email, display_name, plan, trial_start_date, trial_end_date, trial_duration_days, has_used_trial)
		VALUES ($1, $2, $3, 'free', $4, $5, $6, FALSE)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			plan = 'free',
			trial_start_date = EXCLUDED.trial_start_date,
			trial_end_date = EXCLUDED.trial_end_date,
			trial_duration_days = EXCLUDED.trial_duration_days,
			has_used_trial = FALSE,
			updated_at = now()
	`
	_, err = s.db.DB.Exec(upsertQuery,
		req.UserID, user.Email, user.DisplayName, start, end, user.TrialDurationDays,
	)
	if err != nil {
		slog.Error("Failed to complete registration", "error", err, "user_id", req.UserID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to complete registration",
			"details": err.Error(),
		})
	}

	slog.Info("Registration completed", "user_id", req.UserID, "trial_days", user.TrialDurationDays)
	return c.JSON(fiber.Map{
		"success": true,
	})
}
