// Package billing holds the pure lifecycle logic shared by the request
// handlers: access evaluation over a profile snapshot and the derivations
// used to reconcile a profile against a provider subscription.
package billing

import (
	"time"

	"github.com/planboardhq/planboard/internal/models"
)

// IsOnTrial reports whether the profile is inside an active trial window.
// Only free-plan profiles can be on trial; comparisons use UTC instants.
func IsOnTrial(p *models.Profile, now time.Time) bool {
	if p.Plan != models.PlanFree {
		return false
	}
	if p.TrialEndDate == nil {
		return false
	}
	return now.UTC().Before(p.TrialEndDate.UTC())
}

// IsPremium reports whether the profile is on the paid plan.
func IsPremium(p *models.Profile) bool {
	return p.Plan == models.PlanPremium
}

// HasAccess reports whether the profile currently has premium-equivalent access.
func HasAccess(p *models.Profile, now time.Time) bool {
	return IsPremium(p) || IsOnTrial(p, now)
}

// TrialWindow computes a trial window of the given duration starting at now.
func TrialWindow(now time.Time, days int) (start, end time.Time) {
	start = now.UTC()
	end = start.AddDate(0, 0, days)
	return start, end
}
