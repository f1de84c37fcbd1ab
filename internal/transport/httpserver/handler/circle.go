package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	circledomain "carelink-go/internal/domain/circle"
	profiledomain "carelink-go/internal/domain/profile"
	vaultdomain "carelink-go/internal/domain/vault"
	"carelink-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type inviteRequest struct {
	Contact   string `json:"contact"`
	ProfileID string `json:"profile_id,omitempty"`
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type linkResponse struct {
	ID             string    `json:"id"`
	RequesterID    string    `json:"requester_id"`
	RecipientID    string    `json:"recipient_id"`
	OwnerProfileID string    `json:"owner_profile_id"`
	Relationship   string    `json:"relationship,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toLinkResponse(link *circledomain.Link) linkResponse {
	return linkResponse{
		ID:             link.ID,
		RequesterID:    link.RequesterID,
		RecipientID:    link.RecipientID,
		OwnerProfileID: link.OwnerProfileID,
		Relationship:   link.Relationship,
		Status:         link.Status,
		CreatedAt:      link.CreatedAt,
		UpdatedAt:      link.UpdatedAt,
	}
}

func (h *Handlers) GetCircleLinks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	view, err := h.Circle.Links(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("circle.links: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) CreateCircleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	link, err := h.Circle.Invite(r.Context(), user.ID, req.Contact, req.ProfileID)
	if err != nil {
		switch {
		case errors.Is(err, circledomain.ErrInvalidContact),
			errors.Is(err, profiledomain.ErrInvalidPhone):
			h.log.BusinessError("circle.invite: invalid contact", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_contact", "contact must be a phone number")
		case errors.Is(err, circledomain.ErrContactNotFound):
			h.log.BusinessError("circle.invite: contact not registered", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "contact_not_found", "no registered user for contact")
		case errors.Is(err, circledomain.ErrSelfInvite):
			h.log.BusinessError("circle.invite: self invite", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "self_invite", "cannot invite yourself")
		case errors.Is(err, circledomain.ErrNoProfile):
			h.log.BusinessError("circle.invite: no profile", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "no_profile", "no profile available to share")
		case errors.Is(err, circledomain.ErrInviteExists):
			h.log.BusinessError("circle.invite: invite exists", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "invite_exists", "an invite for this member already exists")
		default:
			h.log.InternalError("circle.invite: create failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toLinkResponse(link))
}

func (h *Handlers) RespondCircleLink(w http.ResponseWriter, r *http.Request) {
	linkID := strings.TrimSpace(chi.URLParam(r, "link_id"))
	if linkID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "link_id is required")
		return
	}

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var link *circledomain.Link
	var err error
	if req.Accept {
		link, err = h.Circle.Accept(r.Context(), linkID, user.ID)
	} else {
		link, err = h.Circle.Decline(r.Context(), linkID, user.ID)
	}
	if err != nil {
		switch {
		case errors.Is(err, circledomain.ErrLinkNotFound):
			h.log.BusinessError("circle.respond: link not found", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusNotFound, "link_not_found", "link not found")
		case errors.Is(err, circledomain.ErrNotRecipient):
			h.log.BusinessError("circle.respond: not recipient", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		case errors.Is(err, circledomain.ErrLinkNotPending):
			h.log.BusinessError("circle.respond: link not pending", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusConflict, "link_not_pending", "link is no longer pending")
		default:
			h.log.InternalError("circle.respond: respond failed", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toLinkResponse(link))
}

func (h *Handlers) RemoveCircleLink(w http.ResponseWriter, r *http.Request) {
	linkID := strings.TrimSpace(chi.URLParam(r, "link_id"))
	if linkID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "link_id is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Circle.Remove(r.Context(), linkID, user.ID); err != nil {
		switch {
		case errors.Is(err, circledomain.ErrLinkNotFound):
			h.log.BusinessError("circle.remove: link not found", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusNotFound, "link_not_found", "link not found")
		case errors.Is(err, circledomain.ErrNotRequester):
			h.log.BusinessError("circle.remove: not allowed", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		default:
			h.log.InternalError("circle.remove: remove failed", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateCircleRole(w http.ResponseWriter, r *http.Request) {
	linkID := strings.TrimSpace(chi.URLParam(r, "link_id"))
	if linkID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "link_id is required")
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	link, err := h.Circle.UpdateRole(r.Context(), linkID, user.ID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, circledomain.ErrInvalidRole):
			h.log.BusinessError("circle.role: invalid role", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusBadRequest, "invalid_role", "role must be family or friend")
		case errors.Is(err, circledomain.ErrLinkNotFound):
			h.log.BusinessError("circle.role: link not found", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusNotFound, "link_not_found", "link not found")
		case errors.Is(err, circledomain.ErrNotRequester):
			h.log.BusinessError("circle.role: not requester", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		case errors.Is(err, circledomain.ErrLinkNotAccepted):
			h.log.BusinessError("circle.role: link not accepted", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusConflict, "link_not_accepted", "link is not accepted")
		default:
			h.log.InternalError("circle.role: update failed", err, "user_id", user.ID, "link_id", linkID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toLinkResponse(link))
}

func (h *Handlers) GetCircleSignedURL(w http.ResponseWriter, r *http.Request) {
	linkID := strings.TrimSpace(chi.URLParam(r, "link_id"))
	if linkID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "link_id is required")
		return
	}

	folder := vaultdomain.Folder(strings.TrimSpace(r.URL.Query().Get("folder")))
	name := strings.TrimSpace(r.URL.Query().Get("name"))

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	signed, err := h.Vault.IssueCircleFileURL(r.Context(), user.ID, linkID, folder, name)
	if err != nil {
		h.writeVaultError(w, err, user.ID, "circle.signed_url", "link_id", linkID)
		return
	}

	writeJSON(w, http.StatusOK, signed)
}

// writeVaultError maps signed-URL issuance failures. Access denials collapse
// to the generic not_allowed code so callers cannot probe which links or
// members exist.
func (h *Handlers) writeVaultError(w http.ResponseWriter, err error, userID, op string, args ...any) {
	logArgs := append([]any{"user_id", userID}, args...)
	switch {
	case errors.Is(err, vaultdomain.ErrInvalidFolder):
		h.log.BusinessError(op+": invalid folder", err, logArgs...)
		writeError(w, http.StatusBadRequest, "invalid_folder", "unknown vault folder")
	case errors.Is(err, vaultdomain.ErrInvalidFileName):
		h.log.BusinessError(op+": invalid file name", err, logArgs...)
		writeError(w, http.StatusBadRequest, "invalid_file_name", "invalid file name")
	case errors.Is(err, vaultdomain.ErrAccessDenied),
		errors.Is(err, circledomain.ErrAccessDenied),
		errors.Is(err, circledomain.ErrLinkNotFound):
		h.log.BusinessError(op+": access denied", err, logArgs...)
		writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
	default:
		h.log.InternalError(op+": issue failed", err, logArgs...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
