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

// handleSyncSubscription reconciles a profile with the payments provider:
// provider state wins, local billing fields are a cache of it.
func (s *Server) handleSyncSubscription(c *fiber.Ctx) error {
	var req models.SyncSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}

	if s.payments == nil {
		return s.paymentsUnavailable(c)
	}

	var profile models.Profile
	err := s.db.DB.Get(&profile, "SELECT "+profileColumns+" FROM profiles WHERE email = $1", req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Profile not found",
			})
		}
		slog.Error("Failed to load profile for sync", "error", err, "email", req.Email)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to load profile",
			"details": err.Error(),
		})
	}

	cust, err := s.payments.FindCustomerByEmail(req.Email)
	if err != nil {
		if errors.Is(err, billing.ErrNoCustomer) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No customer found for this email",
			})
		}
		slog.Error("Customer lookup failed", "error", err, "email", req.Email)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to look up customer",
			"details": err.Error(),
		})
	}

	subs, err := s.payments.ListSubscriptions(cust.ID)
	if err != nil {
		slog.Error("Subscription listing failed", "error", err, "customer_id", cust.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to list subscriptions",
			"details": err.Error(),
		})
	}
	if len(subs) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No subscriptions found for customer",
		})
	}

	// Provider default ordering puts the most recent subscription first.
	sub := subs[0]

	interval := billing.IntervalFromSubscription(sub)
	plan := billing.PlanFromStatus(sub.Status)
	subStart := billing.SubscriptionStart(sub, time.Now())
	subEnd := billing.SubscriptionEnd(sub)

	updateQuery := `
		UPDATE profiles
		SET plan = $1,
			stripe_customer_id = $2,
			stripe_subscription_id = $3,
			billing_interval = $4,
			subscription_start_date = $5,
			subscription_end_date = $6,
			updated_at = now()
		WHERE id = $7
	`
	_, err = s.db.DB.Exec(updateQuery, plan, cust.ID, sub.ID, interval, subStart, subEnd, profile.ID)
	if err != nil {
		slog.Error("Failed to write synced subscription", "error", err, "user_id", profile.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to update profile",
			"details": err.Error(),
		})
	}

	slog.Info("Subscription synced", "user_id", profile.ID, "subscription_id", sub.ID, "plan", plan)
	return c.JSON(fiber.Map{
		"success": true,
		"data": models.SyncResult{
			CustomerID:      cust.ID,
			SubscriptionID:  sub.ID,
			Status:          string(sub.Status),
			Plan:            plan,
			BillingInterval: interval,
		},
	})
}

// linkedSubscriptionID loads the profile's subscription reference for the
// authenticated user. A missing profile or missing linkage both read as
// "no subscription".
func (s *Server) linkedSubscriptionID(userID string) (string, error) {
	var subID sql.NullString
	err := s.db.DB.Get(&subID, "SELECT stripe_subscription_id FROM profiles WHERE id = $1", userID)
	if err != nil {
		return "", err
	}
	if !subID.Valid || subID.String == "" {
		return "", sql.ErrNoRows
	}
	return subID.String, nil
}

func (s *Server) handleCancelSubscription(c *fiber.Ctx) error {
	userID, _, ok := s.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}

	if s.payments == nil {
		return s.paymentsUnavailable(c)
	}

	subID, err := s.linkedSubscriptionID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No subscription found",
			})
		}
		slog.Error("Failed to load subscription reference", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to load profile",
			"details": err.Error(),
		})
	}

	// Only the provider object is mutated; the local plan follows from a
	// later sync.
	sub, err := s.payments.SetCancelAtPeriodEnd(subID, true)
	if err != nil {
		slog.Error("Cancel request failed", "error", err, "subscription_id", subID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to cancel subscription",
			"details": err.Error(),
		})
	}

	slog.Info("Subscription set to cancel at period end", "user_id", userID, "subscription_id", subID)
	return c.JSON(fiber.Map{
		"success":            true,
		"message":            "Subscription will be canceled at the end of the current billing period",
		"cancel_at":          sub.CancelAt,
		"current_period_end": sub.CurrentPeriodEnd,
	})
}

func (s *Server) handleReactivateSubscription(c *fiber.Ctx) error {
	userID, _, ok := s.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}

	if s.payments == nil {
		return s.paymentsUnavailable(c)
	}

	subID, err := s.linkedSubscriptionID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No subscription found",
			})
		}
		slog.Error("Failed to load subscription reference", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to load profile",
			"details": err.Error(),
		})
	}

	sub, err := s.payments.SetCancelAtPeriodEnd(subID, false)
	if err != nil {
		slog.Error("Reactivate request failed", "error", err, "subscription_id", subID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to reactivate subscription",
			"details": err.Error(),
		})
	}

	slog.Info("Subscription reactivated", "user_id", userID, "subscription_id", subID)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Subscription reactivated",
		"subscription": fiber.Map{
			"id":                 sub.ID,
			"status":             string(sub.Status),
			"current_period_end": sub.CurrentPeriodEnd,
		},
	})
}

// handleSwitchPlan changes billing cadence with no immediate charge: the new
// price applies from the next renewal.
func (s *Server) handleSwitchPlan(c *fiber.Ctx) error {
	userID, _, ok := s.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}

	var req models.SwitchPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	newInterval := models.BillingInterval(req.NewInterval)
	if newInterval != models.IntervalMonthly && newInterval != models.IntervalAnnual {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Interval must be 'monthly' or 'annual'",
		})
	}

	if s.payments == nil {
		return s.paymentsUnavailable(c)
	}

	var profile models.Profile
	err := s.db.DB.Get(&profile, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Profile not found",
			})
		}
		slog.Error("Failed to load profile", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to load profile",
			"details": err.Error(),
		})
	}

	if profile.StripeSubscriptionID == nil || *profile.StripeSubscriptionID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No subscription found",
		})
	}

	if profile.BillingInterval != nil && *profile.BillingInterval == newInterval {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Already on the requested billing interval",
		})
	}

	sub, err := s.payments.GetSubscription(*profile.StripeSubscriptionID)
	if err != nil {
		slog.Error("Failed to fetch subscription", "error", err, "subscription_id", *profile.StripeSubscriptionID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch subscription",
			"details": err.Error(),
		})
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Subscription has no line items",
		})
	}

	newPrice, err := s.payments.CreatePrice(newInterval)
	if err != nil {
		slog.Error("Failed to create price", "error", err, "interval", newInterval)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to create price",
			"details": err.Error(),
		})
	}

	updated, err := s.payments.SwitchSubscriptionPrice(sub.ID, sub.Items.Data[0].ID, newPrice.ID)
	if err != nil {
		slog.Error("Failed to switch plan", "error", err, "subscription_id", sub.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to switch plan",
			"details": err.Error(),
		})
	}

	// Optimistic local write, ahead of provider confirmation.
	_, err = s.db.DB.Exec("UPDATE profiles SET billing_interval = $1, updated_at = now() WHERE id = $2", newInterval, userID)
	if err != nil {
		slog.Error("Failed to store new billing interval", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to update profile",
			"details": err.Error(),
		})
	}

	slog.Info("Plan switched", "user_id", userID, "interval", newInterval)
	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Billing interval updated; the change is effective at the end of the current period",
		"effective_date": updated.CurrentPeriodEnd,
		"new_amount":     billing.CatalogAmount(newInterval),
		"new_interval":   newInterval,
	})
}

// handleSubscriptionDetails is a read-only projection of local plan/trial
// state plus a live provider snapshot when a subscription is linked.
func (s *Server) handleSubscriptionDetails(c *fiber.Ctx) error {
	userID, _, ok := s.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}

	var profile models.Profile
	err := s.db.DB.Get(&profile, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Profile not found",
			})
		}
		slog.Error("Failed to load profile", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to load profile",
			"details": err.Error(),
		})
	}

	resp := fiber.Map{
		"plan":                    profile.Plan,
		"billing_interval":        profile.BillingInterval,
		"trial_end_date":          profile.TrialEndDate,
		"subscription_start_date": profile.SubscriptionStartDate,
		"subscription_end_date":   profile.SubscriptionEndDate,
		"subscription":            nil,
	}

	if profile.StripeSubscriptionID != nil && *profile.StripeSubscriptionID != "" && s.payments != nil {
		sub, err := s.payments.GetSubscription(*profile.StripeSubscriptionID)
		if err != nil {
			slog.Error("Failed to fetch live subscription", "error", err, "subscription_id", *profile.StripeSubscriptionID)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to fetch subscription",
				"details": err.Error(),
			})
		}
		resp["subscription"] = billing.Snapshot(sub)
	}

	return c.JSON(resp)
}

func (s *Server) handleFeedback(c *fiber.Ctx) error {
	userID, _, ok := s.currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}

	var req models.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Reason is required",
		})
	}

	_, err := s.db.DB.Exec(
		"INSERT INTO cancellation_feedback (user_id, reason, additional_feedback) VALUES ($1, $2, $3)",
		userID, req.Reason, req.AdditionalFeedback,
	)
	if err != nil {
		slog.Error("Failed to store feedback", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to store feedback",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Thanks for the feedback",
	})
}
