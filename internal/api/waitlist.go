package api

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"github.com/planboardhq/planboard/internal/models"
)

const uniqueViolation = "23505"

func (s *Server) handleJoinWaitlist(c *fiber.Ctx) error {
	var req models.WaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please provide a valid email address",
		})
	}

	plan := req.Plan
	if plan == "" {
		plan = string(models.PlanFree)
	}

	_, err := s.db.DB.Exec("INSERT INTO waitlist (email, plan) VALUES ($1, $2)", email, plan)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This email is already on the waitlist",
			})
		}
		slog.Error("Failed to join waitlist", "error", err, "email", email)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to join waitlist",
			"details": err.Error(),
		})
	}

	slog.Info("Waitlist signup", "email", email, "plan", plan)
	return c.JSON(fiber.Map{
		"success": true,
		"email":   email,
		"plan":    plan,
	})
}

func (s *Server) handleWaitlistCount(c *fiber.Ctx) error {
	plan := c.Query("plan")

	var count int
	var err error
	if plan == "" {
		err = s.db.DB.Get(&count, "SELECT COUNT(*) FROM waitlist")
	} else {
		err = s.db.DB.Get(&count, "SELECT COUNT(*) FROM waitlist WHERE plan = $1", plan)
	}
	if err != nil {
		slog.Error("Failed to count waitlist", "error", err, "plan", plan)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to count waitlist",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"count": count,
		"plan":  plan,
	})
}
