package handler

import (
	"net/http"
)

// InviteHandler は招待コード検証のHTTPハンドラー。
type InviteHandler struct {
	invites InviteValidator
}

// NewInviteHandler はInviteHandlerを生成する。
func NewInviteHandler(invites InviteValidator) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type validateInviteRequest struct {
	Code string `json:"code"`
}

// Validate は招待コードを検証する。使用回数は変化しない。
// POST /api/invites/validate
// 無効なコードも200で{valid:false, error}として返す。
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateInviteRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, h.invites.Validate(r.Context(), req.Code))
}
