package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planboardhq/planboard/internal/models"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	assert.NoError(t, err)
	return ts
}

func TestAccessEvaluation(t *testing.T) {
	trialEnd := mustTime(t, "2025-01-10T00:00:00Z")

	tests := []struct {
		name       string
		profile    models.Profile
		now        string
		wantTrial  bool
		wantAccess bool
	}{
		{
			name:       "free plan inside trial window",
			profile:    models.Profile{Plan: models.PlanFree, TrialEndDate: &trialEnd},
			now:        "2025-01-05T00:00:00Z",
			wantTrial:  true,
			wantAccess: true,
		},
		{
			name:       "free plan after trial window",
			profile:    models.Profile{Plan: models.PlanFree, TrialEndDate: &trialEnd},
			now:        "2025-01-11T00:00:00Z",
			wantTrial:  false,
			wantAccess: false,
		},
		{
			name:       "free plan exactly at trial end",
			profile:    models.Profile{Plan: models.PlanFree, TrialEndDate: &trialEnd},
			now:        "2025-01-10T00:00:00Z",
			wantTrial:  false,
			wantAccess: false,
		},
		{
			name:       "free plan with no trial claimed",
			profile:    models.Profile{Plan: models.PlanFree},
			now:        "2025-01-05T00:00:00Z",
			wantTrial:  false,
			wantAccess: false,
		},
		{
			name:       "premium plan ignores trial window",
			profile:    models.Profile{Plan: models.PlanPremium},
			now:        "2025-01-11T00:00:00Z",
			wantTrial:  false,
			wantAccess: true,
		},
		{
			name:       "premium plan with stale trial fields",
			profile:    models.Profile{Plan: models.PlanPremium, TrialEndDate: &trialEnd},
			now:        "2025-01-05T00:00:00Z",
			wantTrial:  false,
			wantAccess: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := mustTime(t, tt.now)
			assert.Equal(t, tt.wantTrial, IsOnTrial(&tt.profile, now))
			assert.Equal(t, tt.wantAccess, HasAccess(&tt.profile, now))
		})
	}
}

func TestAccessIsTimezoneConsistent(t *testing.T) {
	trialEnd := mustTime(t, "2025-01-10T00:00:00Z")
	profile := models.Profile{Plan: models.PlanFree, TrialEndDate: &trialEnd}

	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// 2025-01-09 23:00 in New York is past the UTC trial end.
	local := time.Date(2025, 1, 9, 23, 0, 0, 0, loc)
	assert.False(t, IsOnTrial(&profile, local))

	// The same wall-clock instant expressed in UTC agrees.
	assert.Equal(t, IsOnTrial(&profile, local), IsOnTrial(&profile, local.UTC()))
}

func TestTrialWindow(t *testing.T) {
	now := mustTime(t, "2025-03-01T12:30:00Z")
	start, end := TrialWindow(now, 7)

	assert.Equal(t, now, start)
	assert.Equal(t, now.AddDate(0, 0, 7), end)
	assert.Equal(t, time.UTC, start.Location())

	start, end = TrialWindow(now, 14)
	assert.Equal(t, 14*24*time.Hour, end.Sub(start))
}
