package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Clients struct {
	DB *sqlx.DB
}

func NewClients(dbURL string) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Clients{DB: db}, nil
}

func (c *Clients) CreateProfilesTable() error {
	schema := `CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		plan TEXT NOT NULL DEFAULT 'free',
		trial_start_date TIMESTAMPTZ,
		trial_end_date TIMESTAMPTZ,
		trial_duration_days INT NOT NULL DEFAULT 7,
		has_used_trial BOOLEAN NOT NULL DEFAULT FALSE,
		is_lifetime_free BOOLEAN NOT NULL DEFAULT FALSE,
		stripe_customer_id TEXT,
		stripe_subscription_id TEXT,
		billing_interval TEXT,
		subscription_start_date TIMESTAMPTZ,
		subscription_end_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS profiles_email_idx ON profiles (email) WHERE email <> '';`

	if _, err := c.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	slog.Info("✅ Profiles table is ready!")
	return nil
}

func (c *Clients) CreateWaitlistTable() error {
	schema := `CREATE TABLE IF NOT EXISTS waitlist (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		plan TEXT NOT NULL DEFAULT 'free',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	if _, err := c.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create waitlist table: %w", err)
	}

	slog.Info("✅ Waitlist table is ready!")
	return nil
}

func (c *Clients) CreateFeedbackTable() error {
	schema := `CREATE TABLE IF NOT EXISTS cancellation_feedback (
		id SERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		reason TEXT NOT NULL,
		additional_feedback TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	if _, err := c.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cancellation_feedback table: %w", err)
	}

	slog.Info("✅ Cancellation feedback table is ready!")
	return nil
}

// ExpireSubscriptions downgrades premium profiles whose cached subscription
// end has passed. Lifetime-free profiles are left alone. This only sweeps the
// local cache; it does not consult the payments provider.
func (c *Clients) ExpireSubscriptions(ctx context.Context) error {
	const q = `
		UPDATE profiles
		SET plan = 'free', updated_at = now()
		WHERE plan = 'premium'
		  AND is_lifetime_free = FALSE
		  AND subscription_end_date IS NOT NULL
		  AND subscription_end_date < now();
	`
	res, err := c.DB.ExecContext(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Info("Expired stale subscriptions", "count", n)
	}
	return nil
}
