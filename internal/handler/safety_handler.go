package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/safety"
)

// SafetyServiceInterface はセーフティチェックハンドラーが必要とするサービスインターフェース。
type SafetyServiceInterface interface {
	Evaluate(ctx context.Context, in model.SafetyInputs) (*safety.Result, error)
	Save(ctx context.Context, userID string, in model.SafetyInputs) (*safety.Result, error)
	List(ctx context.Context, userID string) ([]*model.SafetyCheck, error)
	// Report は保存済みチェックのPNGレポートを返す。所有者以外はNotFound。
	Report(ctx context.Context, userID string, id int64) ([]byte, error)
}

// SafetyHandler はセーフティチェックのHTTPハンドラー。
type SafetyHandler struct {
	service SafetyServiceInterface
}

// NewSafetyHandler はSafetyHandlerを生成する。
func NewSafetyHandler(service SafetyServiceInterface) *SafetyHandler {
	return &SafetyHandler{service: service}
}

type safetyResultResponse struct {
	Results []model.SafetyResult `json:"results"`
	Saved   bool                 `json:"saved"`
	CheckID *int64               `json:"check_id,omitempty"`
}

type safetyCheckResponse struct {
	ID          int64                `json:"id"`
	Supplements []string             `json:"supplements"`
	Medications []string             `json:"medications"`
	Conditions  []string             `json:"conditions"`
	Results     []model.SafetyResult `json:"results"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Check は保存せずに判定結果を返す。
// POST /api/safety/check
func (h *SafetyHandler) Check(w http.ResponseWriter, r *http.Request) {
	var in model.SafetyInputs
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.service.Evaluate(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSafetyResultResponse(result))
}

// Save は判定結果を保存する。
// POST /api/safety-checks
func (h *SafetyHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.SafetyInputs
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.service.Save(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSafetyResultResponse(result))
}

// List は保存済みチェックを新しい順に返す。
// GET /api/safety-checks
func (h *SafetyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	checks, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]safetyCheckResponse, len(checks))
	for i, c := range checks {
		resp[i] = safetyCheckResponse{
			ID:          c.ID,
			Supplements: c.Supplements,
			Medications: c.Meds,
			Conditions:  c.Conditions,
			Results:     c.Result,
			CreatedAt:   c.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Report は保存済みチェックのPNGレポートをダウンロードさせる。
// GET /api/safety-checks/{id}/report.png
func (h *SafetyHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	png, err := h.service.Report(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="safety-check-%d.png"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func toSafetyResultResponse(result *safety.Result) safetyResultResponse {
	resp := safetyResultResponse{
		Results: result.Results,
		Saved:   result.Saved,
	}
	if result.Saved && result.Check != nil {
		resp.CheckID = &result.Check.ID
	}
	return resp
}
