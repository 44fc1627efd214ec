package models

// ClaimTrialRequest is the body for POST /trial/claim.
type ClaimTrialRequest struct {
	// The user ID from the identity provider
	UserID string `json:"userId" example:"5f3c1f4e-8b2a-4c3d-9e1f-2a7b8c9d0e1f"`
}

// EnsureProfileRequest is the body for POST /auth/ensure-profile.
type EnsureProfileRequest struct {
	UserID string `json:"userId"`
}

// CompleteRegistrationRequest is the body for POST /auth/complete-registration.
type CompleteRegistrationRequest struct {
	UserID string `json:"userId"`
}

// SyncSubscriptionRequest is the body for POST /admin/sync-subscription.
type SyncSubscriptionRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// SwitchPlanRequest is the body for POST /subscription/switch-plan.
type SwitchPlanRequest struct {
	// Target billing cadence: "monthly" or "annual"
	NewInterval string `json:"newInterval" example:"annual"`
}

// FeedbackRequest is the body for POST /subscription/feedback.
type FeedbackRequest struct {
	Reason             string `json:"reason"`
	AdditionalFeedback string `json:"additional_feedback,omitempty"`
}

// WaitlistRequest is the body for POST /waitlist.
type WaitlistRequest struct {
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// SyncResult is the data payload returned by a successful subscription sync.
type SyncResult struct {
	CustomerID      string          `json:"customerId"`
	SubscriptionID  string          `json:"subscriptionId"`
	Status          string          `json:"status"`
	Plan            Plan            `json:"plan"`
	BillingInterval BillingInterval `json:"billingInterval"`
}

// SubscriptionSnapshot is the live provider state attached to the details response.
type SubscriptionSnapshot struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAt           int64  `json:"cancel_at,omitempty"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	TrialEnd           int64  `json:"trial_end,omitempty"`
	Amount             int64  `json:"amount"`
	Currency           string `json:"currency"`
	Interval           string `json:"interval"`
}
