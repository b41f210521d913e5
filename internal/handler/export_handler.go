package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/lifelog/internal/export"
	"github.com/hitoshi/lifelog/internal/model"
)

// ExportServiceInterface はエクスポートハンドラーが必要とするサービスインターフェース。
type ExportServiceInterface interface {
	Export(ctx context.Context, userID string) (*model.ExportSnapshot, error)
}

// ExportHandler はデータエクスポートのHTTPハンドラー。
type ExportHandler struct {
	service ExportServiceInterface
}

// NewExportHandler はExportHandlerを生成する。
func NewExportHandler(service ExportServiceInterface) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export は全データをJSONファイルとしてダウンロードさせる。
// GET /api/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Export(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(snap.ExportedAt)))
	writeJSON(w, http.StatusOK, toExportResponse(snap))
}
