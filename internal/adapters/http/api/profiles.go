// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/internal/domain/profile"
)

// ProfileDependencies defines the interface for questionnaire operations.
type ProfileDependencies interface {
	SubmitProfile(ctx context.Context, p profile.Profile) (repository.ProfileRecord, error)
	Profile(ctx context.Context, id string) (repository.ProfileRecord, error)
}

// ProfilesHandler handles lifestyle questionnaire requests.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

type profileSubmitResponse struct {
	ProfileID       string   `json:"profile_id"`
	LifestyleRisk   float64  `json:"lifestyle_risk"`
	RiskFactors     []string `json:"risk_factors"`
	PositiveFactors []string `json:"positive_factors"`
}

type profileResponse struct {
	ProfileID       string          `json:"profile_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Profile         profile.Profile `json:"profile"`
	LifestyleRisk   float64         `json:"lifestyle_risk"`
	RiskFactors     []string        `json:"risk_factors"`
	PositiveFactors []string        `json:"positive_factors"`
}

// HandlePostProfile handles POST /profiles requests.
func (h *ProfilesHandler) HandlePostProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_profile"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, fmt.Errorf("%s: %w: %v", op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.SubmitProfile(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profileSubmitResponse{
		ProfileID:       rec.ID,
		LifestyleRisk:   rec.LifestyleRisk,
		RiskFactors:     rec.RiskFactors,
		PositiveFactors: rec.PositiveFactors,
	})
}

// HandleGetProfile handles GET /profiles/{id} requests.
func (h *ProfilesHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/profiles/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, ErrBadRequest)
		return
	}
	rec, err := h.deps.Profile(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ProfileID:       rec.ID,
		CreatedAt:       rec.CreatedAt,
		Profile:         rec.Profile,
		LifestyleRisk:   rec.LifestyleRisk,
		RiskFactors:     rec.RiskFactors,
		PositiveFactors: rec.PositiveFactors,
	})
}
