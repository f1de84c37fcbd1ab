package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	familydomain "carelink-go/internal/domain/family"
	vaultdomain "carelink-go/internal/domain/vault"
	"carelink-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createFamilyRequest struct {
	Name string `json:"name"`
}

type joinRequestBody struct {
	Code string `json:"code"`
}

type reviewRequestBody struct {
	Approve bool `json:"approve"`
}

type familyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type createFamilyResponse struct {
	familyResponse
	InviteCode string `json:"invite_code,omitempty"`
	// CodeError reports a failed initial code mint. The family itself was
	// created; the owner can mint again.
	CodeError bool `json:"invite_code_error,omitempty"`
}

type inviteCodeResponse struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func toFamilyResponse(family *familydomain.Family) familyResponse {
	return familyResponse{
		ID:        family.ID,
		Name:      family.Name,
		OwnerID:   family.OwnerID,
		CreatedAt: family.CreatedAt,
	}
}

func (h *Handlers) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Families.CreateFamily(r.Context(), user.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, familydomain.ErrInvalidName):
			h.log.BusinessError("families.create: invalid name", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_name", "family name must be 2-50 characters")
		case errors.Is(err, familydomain.ErrAlreadyInFamily):
			h.log.BusinessError("families.create: already in family", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "already_in_family", "already in a family")
		default:
			h.log.InternalError("families.create: create failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	resp := createFamilyResponse{familyResponse: toFamilyResponse(&result.Family)}
	if result.MintErr != nil {
		h.log.InternalError("families.create: initial code mint failed", result.MintErr, "user_id", user.ID, "family_id", result.Family.ID)
		resp.CodeError = true
	} else if result.InviteCode != nil {
		resp.InviteCode = result.InviteCode.Code
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) GetFamilyMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	family, err := h.Families.GetFamilyByUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, familydomain.ErrFamilyNotFound) {
			h.log.BusinessError("families.get_me: family not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "family_not_found", "family not found")
			return
		}
		h.log.InternalError("families.get_me: get family failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toFamilyResponse(family))
}

func (h *Handlers) MintInviteCode(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	code, err := h.Families.MintInviteCode(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, familydomain.ErrMemberNotFound):
			h.log.BusinessError("families.mint: not in a family", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "family_not_found", "family not found")
		case errors.Is(err, familydomain.ErrNotOwner):
			h.log.BusinessError("families.mint: not owner", err, "user_id", user.ID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		case errors.Is(err, familydomain.ErrFamilyFull):
			h.log.BusinessError("families.mint: family full", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "family_full", "family is at its member limit")
		default:
			h.log.InternalError("families.mint: mint failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, inviteCodeResponse{Code: code.Code, CreatedAt: code.CreatedAt})
}

func (h *Handlers) PreviewInvite(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))

	preview, err := h.Families.PreviewInvite(r.Context(), code)
	if err != nil {
		if errors.Is(err, familydomain.ErrInvalidCode) {
			h.log.BusinessError("families.preview: invalid code", err)
			writeError(w, http.StatusNotFound, "invalid_code", "invite code not recognized")
			return
		}
		h.log.InternalError("families.preview: preview failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

func (h *Handlers) RequestJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	request, err := h.Families.RequestJoin(r.Context(), user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, familydomain.ErrInvalidCode):
			h.log.BusinessError("families.join: invalid code", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "invalid_code", "invite code not recognized")
		case errors.Is(err, familydomain.ErrAlreadyInFamily):
			h.log.BusinessError("families.join: already in family", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "already_in_family", "already in a family")
		case errors.Is(err, familydomain.ErrPendingRequestExists):
			h.log.BusinessError("families.join: pending request exists", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "pending_request_exists", "a pending join request already exists")
		default:
			h.log.InternalError("families.join: request failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

func (h *Handlers) ReviewJoinRequest(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(chi.URLParam(r, "request_id"))
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "request_id is required")
		return
	}

	var req reviewRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	request, err := h.Families.ReviewJoinRequest(r.Context(), user.ID, requestID, req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, familydomain.ErrRequestNotFound),
			errors.Is(err, familydomain.ErrFamilyNotFound):
			h.log.BusinessError("families.review: request not found", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusNotFound, "request_not_found", "join request not found")
		case errors.Is(err, familydomain.ErrNotOwner):
			h.log.BusinessError("families.review: not owner", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		case errors.Is(err, familydomain.ErrRequestNotPending):
			h.log.BusinessError("families.review: request resolved", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusConflict, "request_not_pending", "join request already resolved")
		case errors.Is(err, familydomain.ErrRequestExpired):
			h.log.BusinessError("families.review: request expired", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusConflict, "request_expired", "join request has expired")
		case errors.Is(err, familydomain.ErrFamilyFull):
			h.log.BusinessError("families.review: family full", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusConflict, "family_full", "family is at its member limit")
		case errors.Is(err, familydomain.ErrAlreadyInFamily):
			h.log.BusinessError("families.review: requester already in family", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusConflict, "already_in_family", "requester already joined a family")
		default:
			h.log.InternalError("families.review: review failed", err, "user_id", user.ID, "request_id", requestID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *Handlers) GetPendingJoinRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	requests, err := h.Families.PendingRequests(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, familydomain.ErrMemberNotFound):
			h.log.BusinessError("families.requests: not in a family", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "family_not_found", "family not found")
		case errors.Is(err, familydomain.ErrNotOwner):
			h.log.BusinessError("families.requests: not owner", err, "user_id", user.ID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		default:
			h.log.InternalError("families.requests: list failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

func (h *Handlers) GetFamilyMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	members, err := h.Families.Members(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, familydomain.ErrFamilyNotFound) {
			h.log.BusinessError("families.members: family not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "family_not_found", "family not found")
			return
		}
		h.log.InternalError("families.members: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *Handlers) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Families.DeleteFamily(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, familydomain.ErrMemberNotFound):
			h.log.BusinessError("families.delete: not in a family", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "family_not_found", "family not found")
		case errors.Is(err, familydomain.ErrNotOwner):
			h.log.BusinessError("families.delete: not owner", err, "user_id", user.ID)
			writeError(w, http.StatusForbidden, "not_allowed", "not allowed")
		default:
			h.log.InternalError("families.delete: delete failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetFamilySignedURL(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(chi.URLParam(r, "member_id"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "member_id is required")
		return
	}

	folder := vaultdomain.Folder(strings.TrimSpace(r.URL.Query().Get("folder")))
	name := strings.TrimSpace(r.URL.Query().Get("name"))

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	signed, err := h.Vault.IssueFamilyFileURL(r.Context(), user.ID, memberID, folder, name)
	if err != nil {
		h.writeVaultError(w, err, user.ID, "families.signed_url", "member_id", memberID)
		return
	}

	writeJSON(w, http.StatusOK, signed)
}
