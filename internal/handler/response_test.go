package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lifelog/internal/middleware"
	"github.com/hitoshi/lifelog/internal/model"
)

// decodeErrorCode はエラーレスポンスのcodeを取り出す。
func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return body.Code
}

// newAuthedRequest はセッションミドルウェア通過後と同等のリクエストを作る。
// pathParamsはchiのURLパラメータとして設定する（キーと値の組）。
func newAuthedRequest(method, target, body string, pathParams ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	ctx := middleware.ContextWithUserID(req.Context(), "user-1")
	if len(pathParams) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(pathParams); i += 2 {
			rctx.URLParams.Add(pathParams[i], pathParams[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewCSRFError(), http.StatusForbidden},
		{model.NewInvalidInviteError("Invalid invite code"), http.StatusBadRequest},
		{model.NewValidationError(nil), http.StatusBadRequest},
		{model.NewInvalidRequestError(), http.StatusBadRequest},
		{model.NewEmailTakenError(), http.StatusConflict},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewDecisionNotFoundError("x"), http.StatusNotFound},
		{model.NewJournalNotFoundError("x"), http.StatusNotFound},
		{model.NewPhaseNotFoundError("x"), http.StatusNotFound},
		{model.NewGoalNotFoundError("x"), http.StatusNotFound},
		{model.NewPrivateProfileNotFoundError(), http.StatusNotFound},
		{model.NewRateLimitedError(), http.StatusTooManyRequests},
		{&model.APIError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, fmt.Errorf("failed to load: %w", model.NewDecisionNotFoundError("d1")))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeDecisionNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeDecisionNotFound)
	}
}

func TestHandleServiceError_PlainError_HidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("internal error leaked into response: %s", w.Body.String())
	}
}

func TestDecodeJSON_TypeMismatch_ReturnsValidationError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"confidenceLevel":"high"}`))
	w := httptest.NewRecorder()

	var in model.DecisionInput
	apiErr := decodeJSON(w, req, &in)
	if apiErr == nil {
		t.Fatal("expected error, got nil")
	}
	if apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
	}
}

func TestDecodeJSON_EmptyBody_ReturnsInvalidRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	w := httptest.NewRecorder()

	var in model.DecisionInput
	apiErr := decodeJSON(w, req, &in)
	if apiErr == nil || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("apiErr = %v, want INVALID_REQUEST", apiErr)
	}
}

func TestRequireUserID_Missing_Writes401(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	if _, ok := requireUserID(w, req); ok {
		t.Fatal("expected ok=false")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
