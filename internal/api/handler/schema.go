package handler

import (
	"time"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/policy"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

// ── Requests ──────────────────────────────────────────────────────────────────

type signupRequest struct {
	Name        string `json:"name"         validate:"required,max=100"`
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateMeRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value" validate:"omitempty,max=100"`
}

type scanRequest struct {
	// Payload is the decoded QR content; omit it for a manual scan.
	Payload string `json:"payload" validate:"max=2048"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type errorResponse struct {
	Error string `json:"error"`
}

type authResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Session   domain.Session `json:"session"`
}

type meResponse struct {
	domain.Session
	Progress *domain.Progress `json:"progress,omitempty"`
}

type scanResponse struct {
	Points           int                `json:"points"`
	NewlyAchieved    []domain.Milestone `json:"newly_achieved"`
	ResetRecommended bool               `json:"reset_recommended"`
	Progress         domain.Progress    `json:"progress"`
}

type resetResponse struct {
	Points   int             `json:"points"`
	Progress domain.Progress `json:"progress"`
}

type milestonesResponse struct {
	Milestones []ports.MilestoneStatus `json:"milestones"`
}

type usersResponse struct {
	Items      []domain.UserProfile `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

type navigationResponse struct {
	Path      string           `json:"path"`
	PageClass policy.PageClass `json:"page_class"`
	Decision  policy.Decision  `json:"decision"`
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{Token: r.Token, ExpiresAt: r.ExpiresAt, Session: r.Session}
}

func toUsersResponse(r *ports.ListUsersResult) usersResponse {
	items := r.Items
	if items == nil {
		items = []domain.UserProfile{}
	}
	return usersResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}
