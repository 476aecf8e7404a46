// Package handler exposes the credential endpoints: the authenticated
// issuance surface and the public verification surface.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbridge/internal/credential"
	"trustbridge/internal/credential/service"
	"trustbridge/internal/platform/web"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// Register mounts the authenticated credential routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/generate", h.generate)
	r.Get("/credentials", h.list)
	r.Delete("/credentials/{credentialID}", h.revoke)
}

// RegisterPublic mounts the verification route. Verifiers hold only the share
// token; no authentication applies.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/credentials/verify/{token}", h.verify)
}

type generateRequest struct {
	ClaimIDs     []string `json:"claim_ids"`
	ExpiresHours int      `json:"expires_hours"`
}

type credentialResponse struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	ClaimIDs   []string  `json:"claim_ids"`
	ClaimCount int       `json:"claim_count"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsRevoked  bool      `json:"is_revoked"`
	ViewCount  int64     `json:"view_count"`
	ShareURL   string    `json:"share_url,omitempty"`
}

func toCredentialResponse(cred credential.Credential, shareURL string) credentialResponse {
	claimIDs := make([]string, len(cred.ClaimIDs))
	for i, claimID := range cred.ClaimIDs {
		claimIDs[i] = claimID.String()
	}
	return credentialResponse{
		ID:         cred.ID.String(),
		Token:      cred.Token,
		ClaimIDs:   claimIDs,
		ClaimCount: len(cred.Assertions),
		IssuedAt:   cred.IssuedAt,
		ExpiresAt:  cred.ExpiresAt,
		IsRevoked:  cred.IsRevoked,
		ViewCount:  cred.ViewCount,
		ShareURL:   shareURL,
	}
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	claimIDs := make([]id.ClaimID, 0, len(req.ClaimIDs))
	for _, raw := range req.ClaimIDs {
		claimID, err := id.ParseClaimID(raw)
		if err != nil {
			web.Error(w, err)
			return
		}
		claimIDs = append(claimIDs, claimID)
	}

	issued, err := h.service.Generate(r.Context(), requestcontext.UserID(r.Context()), claimIDs, req.ExpiresHours)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusCreated, toCredentialResponse(issued.Credential, issued.ShareURL))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	creds, err := h.service.List(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		web.Error(w, err)
		return
	}
	out := make([]credentialResponse, 0, len(creds))
	for _, cred := range creds {
		out = append(out, toCredentialResponse(cred, ""))
	}
	web.Respond(w, http.StatusOK, map[string]any{"credentials": out})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	credID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		web.Error(w, err)
		return
	}
	if err := h.service.Revoke(r.Context(), requestcontext.UserID(r.Context()), credID); err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusNoContent, nil)
}

// verify answers with the same shape whether the token is unknown, tampered,
// expired, revoked, or valid. The status is always 200; the body says why.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusOK, result)
}
