package models

import "time"

// Plan is the locally stored plan for a profile.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// BillingInterval is the billing cadence cached from the payments provider.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// DefaultTrialDurationDays is used when signup metadata carries no duration.
const DefaultTrialDurationDays = 7

// Profile represents a user's plan/trial/billing record in the system.
// It is keyed by the identity provider's user id and is only ever mutated
// by request handlers, never directly by clients.
type Profile struct {
	ID                    string           `json:"id" db:"id"` // UUID that matches auth.users.id
	Email                 string           `json:"email" db:"email"`
	DisplayName           string           `json:"display_name" db:"display_name"`
	Plan                  Plan             `json:"plan" db:"plan"`
	TrialStartDate        *time.Time       `json:"trial_start_date" db:"trial_start_date"`
	TrialEndDate          *time.Time       `json:"trial_end_date" db:"trial_end_date"`
	TrialDurationDays     int              `json:"trial_duration_days" db:"trial_duration_days"`
	HasUsedTrial          bool             `json:"has_used_trial" db:"has_used_trial"`
	IsLifetimeFree        bool             `json:"is_lifetime_free" db:"is_lifetime_free"`
	StripeCustomerID      *string          `json:"stripe_customer_id" db:"stripe_customer_id"`
	StripeSubscriptionID  *string          `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	BillingInterval       *BillingInterval `json:"billing_interval" db:"billing_interval"`
	SubscriptionStartDate *time.Time       `json:"subscription_start_date" db:"subscription_start_date"`
	SubscriptionEndDate   *time.Time       `json:"subscription_end_date" db:"subscription_end_date"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// TrialFields is the subset of a profile returned by trial endpoints.
type TrialFields struct {
	Plan           Plan       `json:"plan"`
	TrialStartDate *time.Time `json:"trial_start_date"`
	TrialEndDate   *time.Time `json:"trial_end_date"`
}

// Trial returns the trial-facing projection of the profile.
func (p *Profile) Trial() TrialFields {
	return TrialFields{
		Plan:           p.Plan,
		TrialStartDate: p.TrialStartDate,
		TrialEndDate:   p.TrialEndDate,
	}
}
