package supabase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planboardhq/planboard/internal/models"
)

func TestExtractProjectRef(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://akrqbuajqkirdekonpzy.supabase.co", "akrqbuajqkirdekonpzy"},
		{"http://akrqbuajqkirdekonpzy.supabase.co", "akrqbuajqkirdekonpzy"},
		{"akrqbuajqkirdekonpzy.supabase.co", "akrqbuajqkirdekonpzy"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractProjectRef(tt.url))
	}
}

func TestMetadataString(t *testing.T) {
	meta := map[string]interface{}{
		"full_name": "  Ada Lovelace  ",
		"name":      "fallback",
	}
	assert.Equal(t, "Ada Lovelace", metadataString(meta, "full_name", "name"))

	// First non-empty key wins; blank values are skipped.
	meta["full_name"] = "   "
	assert.Equal(t, "fallback", metadataString(meta, "full_name", "name"))

	assert.Equal(t, "", metadataString(nil, "full_name"))
	assert.Equal(t, "", metadataString(map[string]interface{}{"name": 42}, "name"))
}

func TestMetadataDays(t *testing.T) {
	// JSON numbers decode as float64.
	assert.Equal(t, 14, metadataDays(map[string]interface{}{"trial_duration_days": float64(14)}, "trial_duration_days"))
	assert.Equal(t, 30, metadataDays(map[string]interface{}{"trial_duration_days": 30}, "trial_duration_days"))

	// Absent, zero, or negative fall back to the default.
	assert.Equal(t, models.DefaultTrialDurationDays, metadataDays(nil, "trial_duration_days"))
	assert.Equal(t, models.DefaultTrialDurationDays, metadataDays(map[string]interface{}{}, "trial_duration_days"))
	assert.Equal(t, models.DefaultTrialDurationDays, metadataDays(map[string]interface{}{"trial_duration_days": float64(0)}, "trial_duration_days"))
	assert.Equal(t, models.DefaultTrialDurationDays, metadataDays(map[string]interface{}{"trial_duration_days": "7"}, "trial_duration_days"))
}
