package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/lifelog/internal/middleware"
	"github.com/hitoshi/lifelog/internal/model"
	"github.com/hitoshi/lifelog/internal/user"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdatePreferences(ctx context.Context, userID string, patch model.PreferencesPatch) (*model.Profile, error)
	// CheckUsernameAvailable はエラーを返さない。保存層の失敗は利用不可として扱う。
	CheckUsernameAvailable(ctx context.Context, userID, name string) bool
	// UpdateUsername は失敗理由を値として返す。
	UpdateUsername(ctx context.Context, userID, name string) user.UsernameResult
	// DeleteAccount はユーザーと所有データをすべて削除する。
	DeleteAccount(ctx context.Context, userID string) error
	GetPrivateProfile(ctx context.Context, userID string) (*model.PrivateProfile, error)
	UpsertPrivateProfile(ctx context.Context, userID string, in model.PrivateProfileInput) (*model.PrivateProfile, error)
}

// ProfileHandler はプロフィールと退会のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
	authCfg AuthHandlerConfig
}

// NewProfileHandler はProfileHandlerを生成する。
// authCfgは退会時のセッションCookie削除に使用する。
func NewProfileHandler(service ProfileServiceInterface, authCfg AuthHandlerConfig) *ProfileHandler {
	return &ProfileHandler{service: service, authCfg: authCfg}
}

type usernameRequest struct {
	Username string `json:"username"`
}

type usernameAvailabilityResponse struct {
	Available bool `json:"available"`
}

// GetProfile はプロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// UpdatePreferences はプリファレンスを部分更新する。
// PATCH /api/profile/preferences
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch model.PreferencesPatch
	if apiErr := decodeJSON(w, r, &patch); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	profile, err := h.service.UpdatePreferences(r.Context(), userID, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// CheckUsername はユーザー名が利用可能かを返す。
// GET /api/profile/username/availability?username=
func (h *ProfileHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	available := h.service.CheckUsernameAvailable(r.Context(), userID, r.URL.Query().Get("username"))
	writeJSON(w, http.StatusOK, usernameAvailabilityResponse{Available: available})
}

// UpdateUsername はユーザー名を更新する。
// PUT /api/profile/username
// 検証失敗も200で{success:false, error}として返す。
func (h *ProfileHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req usernameRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, h.service.UpdateUsername(r.Context(), userID, req.Username))
}

// DeleteAccount は退会処理を実行し、セッションCookieを削除する。
// DELETE /api/profile
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.authCfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// GetPrivateProfile はプライベートプロフィールを返す。
// GET /api/private-profile
func (h *ProfileHandler) GetPrivateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetPrivateProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPrivateProfileResponse(p))
}

// PutPrivateProfile はプライベートプロフィールを作成または更新する。
// PUT /api/private-profile
func (h *ProfileHandler) PutPrivateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.PrivateProfileInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.UpsertPrivateProfile(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPrivateProfileResponse(p))
}
