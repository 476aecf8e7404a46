// Package handler exposes the reputation endpoints.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbridge/internal/platform/web"
	"trustbridge/internal/reputation"
	"trustbridge/internal/reputation/service"
	"trustbridge/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// Register mounts the reputation routes. All of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reputation/profile", h.profile)
	r.Get("/reputation/claims", h.claims)
	r.Post("/reputation/recalculate", h.recalculate)
}

type claimResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Text        string          `json:"text"`
	Data        json.RawMessage `json:"data"`
	Confidence  float64         `json:"confidence"`
	PeriodStart *time.Time      `json:"period_start,omitempty"`
	PeriodEnd   *time.Time      `json:"period_end,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toClaimResponses(claims []reputation.Claim) []claimResponse {
	out := make([]claimResponse, 0, len(claims))
	for _, claim := range claims {
		out = append(out, claimResponse{
			ID:          claim.ID.String(),
			Type:        string(claim.Type),
			Text:        claim.Text,
			Data:        claim.Data,
			Confidence:  claim.Confidence,
			PeriodStart: claim.PeriodStart,
			PeriodEnd:   claim.PeriodEnd,
			CreatedAt:   claim.CreatedAt,
		})
	}
	return out
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]any{
		"score":     profile.Score,
		"level":     profile.Level,
		"breakdown": profile.Breakdown,
		"claims":    toClaimResponses(profile.Claims),
	})
}

func (h *Handler) claims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.service.Claims(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]any{"claims": toClaimResponses(claims)})
}

// recalculate rebuilds the caller's claim set on demand. A regeneration
// already in flight for the same owner is a conflict, not a queue.
func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	claims, err := h.service.TryRecalculate(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]any{"claims": toClaimResponses(claims)})
}
