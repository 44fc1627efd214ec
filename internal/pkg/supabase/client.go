// Package supabase wraps the GoTrue admin API used to resolve identities.
package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/planboardhq/planboard/internal/models"
)

// ErrUserNotFound is returned when the identity provider has no such user.
var ErrUserNotFound = errors.New("user not found")

// User is the slice of the identity record the profile handlers need.
type User struct {
	ID                string
	Email             string
	DisplayName       string
	TrialDurationDays int
}

// Identity resolves identity-provider users by id.
type Identity interface {
	GetUser(userID string) (*User, error)
}

// Client implements Identity against a GoTrue-compatible auth server.
type Client struct {
	auth gotrue.Client
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	parts := strings.Split(url, ".")
	return parts[0]
}

// NewClient initializes the auth client with the service-role key so admin
// endpoints are reachable, and verifies connectivity once.
func NewClient(supabaseURL, serviceKey string) (*Client, error) {
	projectRef := extractProjectRef(supabaseURL)

	slog.Info("Initializing Supabase client", "project_ref", projectRef)

	auth := gotrue.New(projectRef, serviceKey).WithToken(serviceKey)
	if _, err := auth.GetSettings(); err != nil {
		return nil, fmt.Errorf("failed to connect to Supabase: %w", err)
	}

	return &Client{auth: auth}, nil
}

// GetUser resolves a user by id via the admin API. Any lookup failure,
// including a malformed id, reports the user as absent; the caller treats
// that as NotFound.
func (c *Client) GetUser(userID string) (*User, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	resp, err := c.auth.AdminGetUser(types.AdminGetUserRequest{UserID: uid})
	if err != nil {
		slog.Error("Identity lookup failed", "user_id", userID, "error", err)
		return nil, ErrUserNotFound
	}

	return &User{
		ID:                resp.ID.String(),
		Email:             resp.Email,
		DisplayName:       metadataString(resp.UserMetadata, "full_name", "name", "display_name"),
		TrialDurationDays: metadataDays(resp.UserMetadata, "trial_duration_days"),
	}, nil
}

func metadataString(meta map[string]interface{}, keys ...string) string {
	if meta == nil {
		return ""
	}
	for _, key := range keys {
		if s, ok := meta[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// metadataDays reads a trial duration from signup metadata, falling back to
// the default when absent or not a positive number.
func metadataDays(meta map[string]interface{}, key string) int {
	if meta != nil {
		switch v := meta[key].(type) {
		case float64:
			if v > 0 {
				return int(v)
			}
		case int:
			if v > 0 {
				return v
			}
		}
	}
	return models.DefaultTrialDurationDays
}
