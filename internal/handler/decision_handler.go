package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lifelog/internal/model"
)

// DecisionServiceInterface は意思決定ハンドラーが必要とするサービスインターフェース。
type DecisionServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.Decision, error)
	Get(ctx context.Context, userID, id string) (*model.Decision, error)
	Create(ctx context.Context, userID string, in model.DecisionInput) (*model.Decision, error)
	Update(ctx context.Context, userID, id string, patch model.DecisionPatch) (*model.Decision, error)
	Delete(ctx context.Context, userID, id string) error
	AddReflection(ctx context.Context, userID, decisionID string, in model.ReflectionInput) (*model.Reflection, error)
}

// DecisionHandler は意思決定のHTTPハンドラー。
type DecisionHandler struct {
	service DecisionServiceInterface
}

// NewDecisionHandler はDecisionHandlerを生成する。
func NewDecisionHandler(service DecisionServiceInterface) *DecisionHandler {
	return &DecisionHandler{service: service}
}

// List は意思決定の一覧を返す。
// GET /api/decisions
func (h *DecisionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisions, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionResponses(decisions))
}

// Get は意思決定を1件返す。
// GET /api/decisions/{id}
func (h *DecisionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionResponse(d))
}

// Create は意思決定を作成する。
// POST /api/decisions
func (h *DecisionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.DecisionInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	d, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDecisionResponse(d))
}

// Update は意思決定を部分更新する。
// PATCH /api/decisions/{id}
func (h *DecisionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch model.DecisionPatch
	if apiErr := decodeJSON(w, r, &patch); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	d, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionResponse(d))
}

// Delete は意思決定と振り返りを削除する。
// DELETE /api/decisions/{id}
func (h *DecisionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddReflection は振り返りを追加する。
// POST /api/decisions/{id}/reflections
func (h *DecisionHandler) AddReflection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.ReflectionInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	ref, err := h.service.AddReflection(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReflectionResponse(ref))
}
