package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/planboardhq/planboard/internal/api"
	"github.com/planboardhq/planboard/internal/billing"
	"github.com/planboardhq/planboard/internal/config"
	"github.com/planboardhq/planboard/internal/pkg/supabase"
	"github.com/planboardhq/planboard/pkg/database"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize database clients
	db, err := database.NewClients(cfg.Database.URL)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.DB.Close()
	slog.Info("✅ Connected to database")

	if err := db.CreateProfilesTable(); err != nil {
		slog.Error("Failed to prepare profiles table", "error", err)
		os.Exit(1)
	}
	if err := db.CreateWaitlistTable(); err != nil {
		slog.Error("Failed to prepare waitlist table", "error", err)
		os.Exit(1)
	}
	if err := db.CreateFeedbackTable(); err != nil {
		slog.Error("Failed to prepare feedback table", "error", err)
		os.Exit(1)
	}

	// Identity provider is required for the profile endpoints.
	var identity supabase.Identity
	if cfg.IdentityConfigured() {
		client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			slog.Error("Failed to connect to identity provider", "error", err)
			os.Exit(1)
		}
		identity = client
		slog.Info("✅ Connected to identity provider")
	} else {
		slog.Warn("Identity provider not configured; profile endpoints will be degraded")
	}

	// Payments provider is optional: without a key the billing endpoints
	// answer with a fixed "not configured" error.
	var payments billing.PaymentsClient
	if cfg.PaymentsConfigured() {
		payments = billing.NewStripeClient(cfg.Stripe.SecretKey)
		slog.Info("✅ Payments provider configured")
	} else {
		slog.Warn("Payments provider not configured; billing endpoints will be degraded")
	}

	startExpirySweeper(db)

	// Create and start server
	server := api.NewServer(cfg, db, identity, payments)
	if err := server.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// startExpirySweeper downgrades profiles with a lapsed cached subscription
// end once at boot and then hourly.
func startExpirySweeper(db *database.Clients) {
	_ = db.ExpireSubscriptions(context.Background())

	t := time.NewTicker(1 * time.Hour)
	go func() {
		for range t.C {
			if err := db.ExpireSubscriptions(context.Background()); err != nil {
				slog.Error("Subscription expiry sweep failed", "error", err)
			}
		}
	}()
}
