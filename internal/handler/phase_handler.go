package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lifelog/internal/model"
)

// PhaseServiceInterface はライフフェーズハンドラーが必要とするサービスインターフェース。
type PhaseServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.LifePhase, error)
	Get(ctx context.Context, userID, id string) (*model.LifePhase, error)
	// GetActive はアクティブなフェーズがない場合nilを返す。
	GetActive(ctx context.Context, userID string) (*model.LifePhase, error)
	Create(ctx context.Context, userID string, in model.PhaseInput) (*model.LifePhase, error)
	Update(ctx context.Context, userID, id string, patch model.PhasePatch) (*model.LifePhase, error)
	Delete(ctx context.Context, userID, id string) error
	AddGoal(ctx context.Context, userID, phaseID string, in model.GoalInput) (*model.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, patch model.GoalPatch) (*model.Goal, error)
}

// PhaseHandler はライフフェーズと目標のHTTPハンドラー。
type PhaseHandler struct {
	service PhaseServiceInterface
}

// NewPhaseHandler はPhaseHandlerを生成する。
func NewPhaseHandler(service PhaseServiceInterface) *PhaseHandler {
	return &PhaseHandler{service: service}
}

// List GET /api/phases
func (h *PhaseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	phases, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhaseResponses(phases))
}

// Get GET /api/phases/{id}
func (h *PhaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhaseResponse(p))
}

// GetActive はアクティブなフェーズを返す。存在しない場合は200でnullを返す。
// GET /api/phases/active
func (h *PhaseHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetActive(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toPhaseResponse(p))
}

// Create POST /api/phases
func (h *PhaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.PhaseInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPhaseResponse(p))
}

// Update PATCH /api/phases/{id}
func (h *PhaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch model.PhasePatch
	if apiErr := decodeJSON(w, r, &patch); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhaseResponse(p))
}

// Delete DELETE /api/phases/{id}
func (h *PhaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// AddGoal POST /api/phases/{id}/goals
func (h *PhaseHandler) AddGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.GoalInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	g, err := h.service.AddGoal(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

// UpdateGoal PATCH /api/goals/{id}
func (h *PhaseHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch model.GoalPatch
	if apiErr := decodeJSON(w, r, &patch); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	g, err := h.service.UpdateGoal(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}
