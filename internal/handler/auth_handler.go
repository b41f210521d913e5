package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/lifelog/internal/auth"
	"github.com/hitoshi/lifelog/internal/invite"
	"github.com/hitoshi/lifelog/internal/middleware"
	"github.com/hitoshi/lifelog/internal/model"
)

const (
	oauthStateCookie  = "oauth_state"
	oauthInviteCookie = "oauth_invite"
	oauthNextCookie   = "oauth_next"

	oauthCookieMaxAge = 600 // 10分
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	SignUpWithPassword(ctx context.Context, email, password, inviteCode string) (*model.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignInAnonymously(ctx context.Context, inviteCode string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// InviteValidator は招待コードを読み取り専用で検証する。
type InviteValidator interface {
	Validate(ctx context.Context, raw string) invite.Validation
}

// CallbackRunner はOAuthコールバックの状態遷移を実行する。
type CallbackRunner interface {
	Run(ctx context.Context, p auth.CallbackParams) auth.CallbackResult
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL   string // リダイレクト先の接頭辞。空の場合は相対パス
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	invites  InviteValidator
	callback CallbackRunner
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, invites InviteValidator, callback CallbackRunner, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		invites:  invites,
		callback: callback,
		config:   config,
	}
}

type signUpRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type anonymousRequest struct {
	InviteCode string `json:"inviteCode"`
}

type sessionResponse struct {
	UserID    string `json:"userId"`
	ExpiresAt string `json:"expiresAt"`
}

type currentUserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google/login?invite=&next=
// 招待コードが指定された場合は先に検証し、無効ならプロバイダーに遷移しない。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	inviteCode := strings.TrimSpace(q.Get("invite"))
	next := q.Get("next")

	// 1. 招待コードの事前検証
	if inviteCode != "" {
		if v := h.invites.Validate(r.Context(), inviteCode); !v.Valid {
			h.redirectToFrontend(w, r, auth.ErrorRedirect(v.Error))
			return
		}
	}

	// 2. stateの生成（CSRF対策）
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// 3. コールバックまで引き継ぐ値を短命Cookieに保存
	h.setOAuthCookie(w, oauthStateCookie, state)
	if inviteCode != "" {
		h.setOAuthCookie(w, oauthInviteCookie, inviteCode)
	}
	if auth.IsSafeNext(next) {
		h.setOAuthCookie(w, oauthNextCookie, next)
	}

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/callback?code=&state=&error=&error_description=&invite=&next=
// 結果は常にフロントエンドへのリダイレクトで返す。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := auth.CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		ExpectedState:    cookieValue(r, oauthStateCookie),
		Invite:           firstNonEmpty(q.Get("invite"), cookieValue(r, oauthInviteCookie)),
		Next:             firstNonEmpty(q.Get("next"), cookieValue(r, oauthNextCookie)),
	}

	// ログイン開始時のCookieは結果によらず削除する
	for _, name := range []string{oauthStateCookie, oauthInviteCookie, oauthNextCookie} {
		h.clearCookie(w, name, true)
	}

	res := h.callback.Run(r.Context(), params)
	if res.Session != nil {
		h.setSessionCookie(w, res.Session.ID)
	}
	h.redirectToFrontend(w, r, res.RedirectPath)
}

// SignUp はメールアドレスとパスワードでアカウントを作成する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	session, err := h.service.SignUpWithPassword(r.Context(), req.Email, req.Password, req.InviteCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// SignIn はメールアドレスとパスワードでサインインする。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	session, err := h.service.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Anonymous は匿名ユーザーとしてサインインする。招待コードは任意。
// POST /auth/anonymous
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	var req anonymousRequest
	if apiErr := decodeOptionalJSON(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	session, err := h.service.SignInAnonymously(r.Context(), req.InviteCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := cookieValue(r, middleware.SessionCookieName); sessionID != "" {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	h.clearCookie(w, middleware.SessionCookieName, false)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := cookieValue(r, middleware.SessionCookieName)
	if sessionID == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), sessionID)
	if err != nil {
		slog.Warn("failed to get current user", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, currentUserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsAnonymous: user.IsAnonymous,
	})
}

// --- ヘルパー関数 ---

func (h *AuthHandler) redirectToFrontend(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.config.FrontendURL+path, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) setOAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth",
		MaxAge:   oauthCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie はCookieを削除する。oauthがtrueの場合はログイン開始時のCookieのPathを使う。
func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string, oauth bool) {
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if oauth {
		c.Path = "/auth"
		c.Domain = ""
	}
	http.SetCookie(w, c)
}

func toSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt.UTC().Format(timeLayout),
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
